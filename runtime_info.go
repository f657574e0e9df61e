package vintfcheck

import "github.com/leodido/vintfcheck/vintf"

// StubRuntimeInfo stands in for live kernel introspection. The manifest
// under evaluation may come from another device, so kernel version,
// SELinux state and friends are not observable: every fetch fails and
// no fact is ever populated.
type StubRuntimeInfo struct{}

// Fetch always fails with [vintf.ErrRuntimeInfoUnavailable].
func (StubRuntimeInfo) Fetch(vintf.FetchFlags) (*vintf.RuntimeFacts, error) {
	return nil, vintf.ErrRuntimeInfoUnavailable
}

// StaticRuntimeInfoFactory hands out a new [StubRuntimeInfo] on every call.
type StaticRuntimeInfoFactory struct{}

func (StaticRuntimeInfoFactory) NewRuntimeInfo() vintf.RuntimeInfo {
	return &StubRuntimeInfo{}
}

var (
	_ vintf.RuntimeInfo        = (*StubRuntimeInfo)(nil)
	_ vintf.RuntimeInfoFactory = StaticRuntimeInfoFactory{}
)
