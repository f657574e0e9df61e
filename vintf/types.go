package vintf

import (
	"fmt"
	"strconv"
	"strings"
)

// SchemaType tells which side of the framework/device split a manifest or
// matrix describes.
type SchemaType int

const (
	// SchemaUnknown is the zero value; documents must declare a type.
	SchemaUnknown SchemaType = iota
	// SchemaDevice describes the vendor/ODM side.
	SchemaDevice
	// SchemaFramework describes the system side.
	SchemaFramework
)

func (t SchemaType) String() string {
	switch t {
	case SchemaDevice:
		return "device"
	case SchemaFramework:
		return "framework"
	default:
		return fmt.Sprintf("SchemaType(%d)", t)
	}
}

func parseSchemaType(s string) (SchemaType, error) {
	switch strings.TrimSpace(s) {
	case "device":
		return SchemaDevice, nil
	case "framework":
		return SchemaFramework, nil
	default:
		return SchemaUnknown, fmt.Errorf("unknown schema type %q", s)
	}
}

// HalFormat is the interface definition language of a HAL.
type HalFormat int

const (
	// FormatHIDL is the default format when none is declared.
	FormatHIDL HalFormat = iota
	FormatAIDL
	FormatNative
)

var halFormatNames = map[HalFormat]string{
	FormatHIDL:   "hidl",
	FormatAIDL:   "aidl",
	FormatNative: "native",
}

func (f HalFormat) String() string {
	if name, ok := halFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("HalFormat(%d)", f)
}

func parseHalFormat(s string) (HalFormat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FormatHIDL, nil
	}
	for f, name := range halFormatNames {
		if name == s {
			return f, nil
		}
	}
	return FormatHIDL, fmt.Errorf("unknown HAL format %q", s)
}

// Transport is how a manifest HAL is served.
type Transport int

const (
	TransportEmpty Transport = iota
	TransportHwbinder
	TransportPassthrough
	TransportInet
)

var transportNames = map[Transport]string{
	TransportEmpty:       "",
	TransportHwbinder:    "hwbinder",
	TransportPassthrough: "passthrough",
	TransportInet:        "inet",
}

func (t Transport) String() string {
	if name, ok := transportNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Transport(%d)", t)
}

func parseTransport(s string) (Transport, error) {
	s = strings.TrimSpace(s)
	for t, name := range transportNames {
		if name == s {
			return t, nil
		}
	}
	return TransportEmpty, fmt.Errorf("unknown transport %q", s)
}

// Level is a framework compatibility matrix level ("target-level" / "level").
type Level int

// LevelUnspecified is used when a document does not declare a level.
const LevelUnspecified Level = -1

func (l Level) String() string {
	if l == LevelUnspecified {
		return "unspecified"
	}
	return strconv.Itoa(int(l))
}

func parseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LevelUnspecified, nil
	}
	if s == "legacy" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return LevelUnspecified, fmt.Errorf("invalid level %q", s)
	}
	return Level(n), nil
}

// CheckFlags selects which categories of compatibility predicate run.
// The categories all need facts from a live device.
type CheckFlags uint

const (
	// CheckKernel compares the manifest kernel version with matrix kernels.
	CheckKernel CheckFlags = 1 << iota
	// CheckAVB compares the runtime AVB version with the matrix vbmeta-version.
	CheckAVB
	// CheckRuntimeInfo compares runtime kernel facts with matrix kernel requirements.
	CheckRuntimeInfo
)

const (
	// DisableAllChecks runs HAL, sepolicy and SDK predicates only.
	DisableAllChecks CheckFlags = 0
	// EnableAllChecks runs every predicate.
	EnableAllChecks = CheckKernel | CheckAVB | CheckRuntimeInfo
)

// Has reports whether all bits of o are set in f.
func (f CheckFlags) Has(o CheckFlags) bool {
	return f&o == o
}

func (f CheckFlags) String() string {
	if f == DisableAllChecks {
		return "none"
	}
	var parts []string
	if f.Has(CheckKernel) {
		parts = append(parts, "kernel")
	}
	if f.Has(CheckAVB) {
		parts = append(parts, "avb")
	}
	if f.Has(CheckRuntimeInfo) {
		parts = append(parts, "runtime-info")
	}
	return strings.Join(parts, ",")
}

// FetchFlags selects which runtime facts a [RuntimeInfo] should gather.
type FetchFlags uint

const (
	FetchCPUVersion FetchFlags = 1 << iota
	FetchConfigGz
	FetchPolicyVersion
	FetchAVB

	FetchAll = FetchCPUVersion | FetchConfigGz | FetchPolicyVersion | FetchAVB
)

// KernelConfigType is the value type of a matrix kernel config constraint.
type KernelConfigType int

const (
	ConfigTristate KernelConfigType = iota
	ConfigString
	ConfigInt
	ConfigRange
)

var kernelConfigTypeNames = map[KernelConfigType]string{
	ConfigTristate: "tristate",
	ConfigString:   "string",
	ConfigInt:      "int",
	ConfigRange:    "range",
}

func (t KernelConfigType) String() string {
	if name, ok := kernelConfigTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("KernelConfigType(%d)", t)
}

func parseKernelConfigType(s string) (KernelConfigType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ConfigTristate, nil
	}
	for t, name := range kernelConfigTypeNames {
		if name == s {
			return t, nil
		}
	}
	return ConfigTristate, fmt.Errorf("unknown kernel config type %q", s)
}
