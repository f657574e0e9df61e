// Package vintfcheck decides whether a device image, mounted as a plain
// directory, satisfies a framework compatibility matrix.
//
// The device under evaluation is usually not the device running the
// check: a generic system image is matched against a vendor partition
// that was extracted or mounted elsewhere. The package therefore builds a
// [vintf.Object] from three substitute providers:
//   - a filesystem rooted at the snapshot directory;
//   - a property fetcher that answers the vendor and hardware SKU
//     properties with caller-supplied values ([SkuPropertyFetcher]);
//   - a runtime info provider that never returns facts ([StubRuntimeInfo]).
//
// Because runtime facts are unavailable, kernel, AVB and runtime-info
// predicates are suppressed ([SuppressedChecks]). A compatible answer
// means compatible on every predicate that does not need runtime facts.
//
// # Result Codes
//
// [CheckCompatibilityMatrix] returns:
//
//	 1  compatible
//	 0  incompatible
//	-1  the matrix text could not be parsed
//	-2  no device manifest could be loaded from the root path
//
// [Evaluate] returns the same outcome as a [Result] whose Err carries the
// detail (*[ParseError], *[ResolutionError], or the list of failed
// predicates).
//
// # Usage
//
//	code := vintfcheck.CheckCompatibilityMatrix(matrixXML, "/mnt/device", "", "")
//
// Sweeping several matrices with the vendor sepolicy version injected:
//
//	v, err := vintfcheck.DetectSepolicyVersion(afero.NewBasePathFs(afero.NewOsFs(), root))
//	if err != nil {
//	    return err
//	}
//	var texts []string
//	for _, m := range matrices {
//	    texts = append(texts, vintfcheck.InjectSepolicy(m, v))
//	}
//	i, res := vintfcheck.Decide(vintfcheck.CheckMatrices(texts, root, "", ""))
//
// A device targeting a level newer than every matrix checked cannot be
// judged incompatible by them:
//
//	results := vintfcheck.CheckMatrices(texts, root, "", "")
//	device, _ := vintfcheck.InspectDevice(root, "", "")
//	i, verdict := vintfcheck.DecideForLevel(results, device.Level, vintfcheck.MaxMatrixLevel(texts))
//
// Evaluations share no state: concurrent calls are safe.
package vintfcheck
