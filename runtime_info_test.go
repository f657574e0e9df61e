package vintfcheck

import (
	"errors"
	"testing"

	"github.com/leodido/vintfcheck/vintf"
)

func TestStubRuntimeInfo_AlwaysFails(t *testing.T) {
	flags := []vintf.FetchFlags{0, vintf.FetchCPUVersion, vintf.FetchConfigGz, vintf.FetchPolicyVersion, vintf.FetchAVB, vintf.FetchAll}

	info := StaticRuntimeInfoFactory{}.NewRuntimeInfo()
	for round := 0; round < 2; round++ {
		for _, f := range flags {
			facts, err := info.Fetch(f)
			if !errors.Is(err, vintf.ErrRuntimeInfoUnavailable) {
				t.Errorf("round %d: Fetch(%d) error = %v, want ErrRuntimeInfoUnavailable", round, f, err)
			}
			if facts != nil {
				t.Errorf("round %d: Fetch(%d) populated facts: %+v", round, f, facts)
			}
		}
	}
}

func TestStaticRuntimeInfoFactory_FreshInstances(t *testing.T) {
	var f StaticRuntimeInfoFactory
	a, b := f.NewRuntimeInfo(), f.NewRuntimeInfo()
	if a == nil || b == nil {
		t.Fatal("NewRuntimeInfo() returned nil")
	}
	if _, ok := a.(*StubRuntimeInfo); !ok {
		t.Errorf("NewRuntimeInfo() = %T, want *StubRuntimeInfo", a)
	}
	if _, err := b.Fetch(vintf.FetchAll); err == nil {
		t.Error("second instance Fetch() succeeded")
	}
}
