package vintf

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// FakeAIDLMajor is the major version assigned to AIDL HAL versions, which
// only carry a single number. Comparing two AIDL versions therefore reduces
// to comparing their minor parts.
const FakeAIDLMajor = math.MaxUint64

// Version is a HIDL-style major.minor version.
type Version struct {
	Major uint64
	Minor uint64
}

// ParseVersion parses "M.m".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return Version{}, fmt.Errorf("invalid version %q: want MAJOR.MINOR", s)
	}
	ma, err := strconv.ParseUint(major, 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	mi, err := strconv.ParseUint(minor, 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{Major: ma, Minor: mi}, nil
}

// ParseAIDLVersion parses the single-number version used by AIDL HALs.
func ParseAIDLVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("invalid AIDL version %q: %w", s, err)
	}
	return Version{Major: FakeAIDLMajor, Minor: n}, nil
}

// IsZero reports whether v is 0.0.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}

// Compare returns -1, 0 or +1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major < o.Major:
		return -1
	case v.Major > o.Major:
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	}
	return 0
}

func (v Version) String() string {
	if v.Major == FakeAIDLMajor {
		return strconv.FormatUint(v.Minor, 10)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// VersionRange is "M.m" or "M.m-n": any version with the same major and a
// minor between MinMinor and MaxMinor inclusive.
type VersionRange struct {
	Major    uint64
	MinMinor uint64
	MaxMinor uint64
}

// ParseVersionRange parses "M.m" or "M.m-n".
func ParseVersionRange(s string) (VersionRange, error) {
	s = strings.TrimSpace(s)
	base, upper, hasUpper := strings.Cut(s, "-")
	v, err := ParseVersion(base)
	if err != nil {
		return VersionRange{}, err
	}
	r := VersionRange{Major: v.Major, MinMinor: v.Minor, MaxMinor: v.Minor}
	if hasUpper {
		hi, err := strconv.ParseUint(strings.TrimSpace(upper), 10, 64)
		if err != nil {
			return VersionRange{}, fmt.Errorf("invalid version range %q: %w", s, err)
		}
		if hi < r.MinMinor {
			return VersionRange{}, fmt.Errorf("invalid version range %q: upper bound below lower bound", s)
		}
		r.MaxMinor = hi
	}
	return r, nil
}

// ParseAIDLVersionRange parses "n" or "n-m" for AIDL HALs.
func ParseAIDLVersionRange(s string) (VersionRange, error) {
	s = strings.TrimSpace(s)
	lower, upper, hasUpper := strings.Cut(s, "-")
	lo, err := strconv.ParseUint(strings.TrimSpace(lower), 10, 64)
	if err != nil {
		return VersionRange{}, fmt.Errorf("invalid AIDL version range %q: %w", s, err)
	}
	r := VersionRange{Major: FakeAIDLMajor, MinMinor: lo, MaxMinor: lo}
	if hasUpper {
		hi, err := strconv.ParseUint(strings.TrimSpace(upper), 10, 64)
		if err != nil {
			return VersionRange{}, fmt.Errorf("invalid AIDL version range %q: %w", s, err)
		}
		if hi < lo {
			return VersionRange{}, fmt.Errorf("invalid AIDL version range %q: upper bound below lower bound", s)
		}
		r.MaxMinor = hi
	}
	return r, nil
}

// SupportedBy reports whether an implementation of v satisfies the range.
// Minor versions are backward compatible, so any minor at or above MinMinor
// on the same major qualifies.
func (r VersionRange) SupportedBy(v Version) bool {
	return r.Major == v.Major && v.Minor >= r.MinMinor
}

func (r VersionRange) String() string {
	if r.Major == FakeAIDLMajor {
		if r.MinMinor == r.MaxMinor {
			return strconv.FormatUint(r.MinMinor, 10)
		}
		return fmt.Sprintf("%d-%d", r.MinMinor, r.MaxMinor)
	}
	if r.MinMinor == r.MaxMinor {
		return fmt.Sprintf("%d.%d", r.Major, r.MinMinor)
	}
	return fmt.Sprintf("%d.%d-%d", r.Major, r.MinMinor, r.MaxMinor)
}

var kernelReleasePrefix = regexp.MustCompile(`^\d+\.\d+(\.\d+)?`)

// KernelVersion is a kernel version such as 4.14.42.
type KernelVersion struct {
	v *semver.Version
}

// ParseKernelVersion parses a kernel version. Trailing release decorations
// ("-1005-aws", "+") are ignored, so uname release strings are accepted.
func ParseKernelVersion(s string) (KernelVersion, error) {
	prefix := kernelReleasePrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return KernelVersion{}, fmt.Errorf("invalid kernel version %q", s)
	}
	v, err := semver.NewVersion(prefix)
	if err != nil {
		return KernelVersion{}, fmt.Errorf("invalid kernel version %q: %w", s, err)
	}
	return KernelVersion{v: v}, nil
}

// IsZero reports whether the version was never set.
func (k KernelVersion) IsZero() bool {
	return k.v == nil
}

// Major returns the kernel version number (the "4" in 4.14.42).
func (k KernelVersion) Major() uint64 {
	if k.v == nil {
		return 0
	}
	return k.v.Major()
}

// Minor returns the major revision (the "14" in 4.14.42).
func (k KernelVersion) Minor() uint64 {
	if k.v == nil {
		return 0
	}
	return k.v.Minor()
}

// Patch returns the minor revision (the "42" in 4.14.42).
func (k KernelVersion) Patch() uint64 {
	if k.v == nil {
		return 0
	}
	return k.v.Patch()
}

// SameBranch reports whether both versions share major and minor numbers.
func (k KernelVersion) SameBranch(o KernelVersion) bool {
	return k.v != nil && o.v != nil && k.Major() == o.Major() && k.Minor() == o.Minor()
}

// Satisfies reports whether k is on the same branch as floor and not older.
func (k KernelVersion) Satisfies(floor KernelVersion) bool {
	return k.SameBranch(floor) && !k.v.LessThan(floor.v)
}

func (k KernelVersion) String() string {
	if k.v == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", k.Major(), k.Minor(), k.Patch())
}
