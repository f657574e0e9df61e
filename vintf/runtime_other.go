//go:build !linux

package vintf

// LiveRuntimeInfo reads facts from the kernel the process runs on.
// On non-Linux platforms every fetch fails with [ErrUnsupportedPlatform].
type LiveRuntimeInfo struct {
	ConfigSources []ConfigSource
}

// ConfigSource describes a kernel config file location.
type ConfigSource struct {
	Path       string
	Compressed bool
}

func (r *LiveRuntimeInfo) Fetch(_ FetchFlags) (*RuntimeFacts, error) {
	return nil, ErrUnsupportedPlatform
}
