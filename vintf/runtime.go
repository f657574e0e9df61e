package vintf

import "errors"

var (
	// ErrRuntimeInfoUnavailable is returned by runtime info providers that
	// cannot observe a live kernel.
	ErrRuntimeInfoUnavailable = errors.New("runtime info unavailable")

	// ErrUnsupportedPlatform is returned by [LiveRuntimeInfo] outside Linux.
	ErrUnsupportedPlatform = errors.New("unsupported platform (requires Linux)")
)

// RuntimeFacts are the facts about a running kernel that runtime checks
// compare against a framework matrix.
type RuntimeFacts struct {
	OSName     string
	NodeName   string
	OSRelease  string
	OSVersion  string
	HardwareID string

	KernelVersion         KernelVersion
	KernelConfig          *KernelConfig
	KernelSepolicyVersion uint64
	BootAVBVersion        Version
	CPUInfo               string
}

// RuntimeInfo gathers [RuntimeFacts].
type RuntimeInfo interface {
	// Fetch gathers the facts selected by flags. On error no facts are
	// returned.
	Fetch(flags FetchFlags) (*RuntimeFacts, error)
}

// RuntimeInfoFactory constructs [RuntimeInfo] values for an [Object].
type RuntimeInfoFactory interface {
	NewRuntimeInfo() RuntimeInfo
}

// RuntimeInfoFactoryFunc adapts a function to [RuntimeInfoFactory].
type RuntimeInfoFactoryFunc func() RuntimeInfo

func (f RuntimeInfoFactoryFunc) NewRuntimeInfo() RuntimeInfo {
	return f()
}

// LiveRuntimeInfoFactory produces [LiveRuntimeInfo] values reading the
// kernel the process runs on.
type LiveRuntimeInfoFactory struct{}

func (LiveRuntimeInfoFactory) NewRuntimeInfo() RuntimeInfo {
	return &LiveRuntimeInfo{}
}
