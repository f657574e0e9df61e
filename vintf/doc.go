// Package vintf models vendor interface (VINTF) objects: device and
// framework HAL manifests, compatibility matrices, and the predicate that
// decides whether a manifest satisfies a matrix.
//
// Manifests are not read from the live device. An [Object] is assembled
// from three providers:
//   - a [FileSystem] that serves /vendor, /odm, ... paths, usually rooted
//     at a directory snapshot via [NewFileSystemUnderPath];
//   - a [PropertyFetcher] that answers the SKU properties used to pick
//     manifest variants;
//   - a [RuntimeInfoFactory] that produces [RuntimeInfo] values for
//     runtime-dependent checks.
//
// # Check Flags
//
// [CheckFlags] selects the predicate categories that need live facts
// (kernel, AVB, runtime info). HAL coverage and sepolicy version are always
// checked. With [DisableAllChecks] a passing check means "compatible on
// every predicate that does not depend on the running device".
package vintf
