package vintf

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// CompatibilityMatrix is the parsed form of a <compatibility-matrix> document.
// A framework matrix states what the system image needs from the device,
// a device matrix states what the vendor image needs from the framework.
type CompatibilityMatrix struct {
	Type  SchemaType
	Level Level

	Hals []MatrixHal

	// Framework matrix only.
	Kernels  []MatrixKernel
	Sepolicy Sepolicy
	// AVBVersion is the minimum vbmeta version; zero when not declared.
	AVBVersion Version

	// Device matrix only.
	VendorNDKVersion string
	SystemSDK        []string
}

// MatrixHal is a HAL requirement.
type MatrixHal struct {
	Format     HalFormat
	Name       string
	Optional   bool
	Versions   []VersionRange
	Interfaces []MatrixInterface
}

// MatrixInterface lists the instances required for one interface of a HAL.
type MatrixInterface struct {
	Name           string
	Instances      []string
	RegexInstances []*regexp.Regexp
}

// MatrixKernel is the requirement for one kernel branch.
type MatrixKernel struct {
	Version KernelVersion
	Level   Level
	// Conditions gate Configs: when non-empty, Configs apply only to
	// kernels that satisfy every condition.
	Conditions []KernelConfigRequirement
	Configs    []KernelConfigRequirement
}

// Sepolicy holds the sepolicy requirements of a framework matrix.
type Sepolicy struct {
	KernelSepolicyVersion uint64
	SepolicyVersions      []VersionRange
}

// KernelConfigRequirement is one <config> entry.
type KernelConfigRequirement struct {
	Key   string
	Type  KernelConfigType
	Value string
}

// SatisfiedBy reports whether a kernel config value satisfies the requirement.
// present is false when the option is absent from the kernel config.
func (r KernelConfigRequirement) SatisfiedBy(actual string, present bool) bool {
	switch r.Type {
	case ConfigTristate:
		switch r.Value {
		case "n":
			return !present || actual == "n"
		default:
			return present && actual == r.Value
		}
	case ConfigString:
		return present && strings.Trim(actual, `"`) == r.Value
	case ConfigInt:
		if !present {
			return false
		}
		want, err1 := strconv.ParseInt(r.Value, 0, 64)
		got, err2 := strconv.ParseInt(actual, 0, 64)
		return err1 == nil && err2 == nil && want == got
	case ConfigRange:
		if !present {
			return false
		}
		lo, hi, ok := parseIntRange(r.Value)
		if !ok {
			return false
		}
		got, err := strconv.ParseInt(actual, 0, 64)
		return err == nil && got >= lo && got <= hi
	}
	return false
}

func (r KernelConfigRequirement) String() string {
	return fmt.Sprintf("%s=%s", r.Key, r.Value)
}

func parseIntRange(s string) (int64, int64, bool) {
	lower, upper, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, false
	}
	lo, err := strconv.ParseInt(strings.TrimSpace(lower), 0, 64)
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.ParseInt(strings.TrimSpace(upper), 0, 64)
	if err != nil || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// RequiredHals returns the non-optional HAL requirements, deduplicated by
// format and name in declaration order. Version ranges and interfaces of
// duplicate entries are merged into the first one.
func (m *CompatibilityMatrix) RequiredHals() []MatrixHal {
	type halKey struct {
		format HalFormat
		name   string
	}
	seen := map[halKey]int{}
	var out []MatrixHal
	for _, h := range m.Hals {
		if h.Optional {
			continue
		}
		k := halKey{h.Format, h.Name}
		if i, ok := seen[k]; ok {
			out[i].Versions = append(out[i].Versions, h.Versions...)
			out[i].Interfaces = append(out[i].Interfaces, h.Interfaces...)
			continue
		}
		seen[k] = len(out)
		h.Versions = slices.Clone(h.Versions)
		h.Interfaces = slices.Clone(h.Interfaces)
		out = append(out, h)
	}
	return out
}
