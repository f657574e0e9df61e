package vintf

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"1.0", Version{1, 0}, false},
		{" 27.3 ", Version{27, 3}, false},
		{"1", Version{}, true},
		{"a.b", Version{}, true},
		{"1.-2", Version{}, true},
		{"", Version{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVersion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	if got := (Version{2, 1}).String(); got != "2.1" {
		t.Errorf("String() = %q, want %q", got, "2.1")
	}
	v, err := ParseAIDLVersion("3")
	if err != nil {
		t.Fatalf("ParseAIDLVersion() error = %v", err)
	}
	if got := v.String(); got != "3" {
		t.Errorf("AIDL String() = %q, want %q", got, "3")
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{Version{1, 0}, Version{1, 0}, 0},
		{Version{1, 0}, Version{1, 1}, -1},
		{Version{2, 0}, Version{1, 9}, 1},
		{Version{0, 0}, Version{0, 1}, -1},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseVersionRange(t *testing.T) {
	tests := []struct {
		in      string
		want    VersionRange
		wantErr bool
	}{
		{"1.0", VersionRange{1, 0, 0}, false},
		{"1.0-3", VersionRange{1, 0, 3}, false},
		{"2.1 - 4", VersionRange{2, 1, 4}, false},
		{"1.3-1", VersionRange{}, true},
		{"1.x-3", VersionRange{}, true},
		{"1.0-", VersionRange{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersionRange(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersionRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVersionRange(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVersionRangeSupportedBy(t *testing.T) {
	r := VersionRange{Major: 1, MinMinor: 1, MaxMinor: 2}
	tests := []struct {
		v         Version
		supported bool
	}{
		{Version{1, 0}, false},
		{Version{1, 1}, true},
		{Version{1, 2}, true},
		{Version{1, 5}, true},
		{Version{2, 1}, false},
	}
	for _, tt := range tests {
		if got := r.SupportedBy(tt.v); got != tt.supported {
			t.Errorf("%s.SupportedBy(%s) = %v, want %v", r, tt.v, got, tt.supported)
		}
	}
}

func TestParseAIDLVersionRange(t *testing.T) {
	r, err := ParseAIDLVersionRange("1-3")
	if err != nil {
		t.Fatalf("ParseAIDLVersionRange() error = %v", err)
	}
	if r.Major != FakeAIDLMajor || r.MinMinor != 1 || r.MaxMinor != 3 {
		t.Errorf("ParseAIDLVersionRange(1-3) = %+v", r)
	}
	if got := r.String(); got != "1-3" {
		t.Errorf("String() = %q, want %q", got, "1-3")
	}
	v, _ := ParseAIDLVersion("2")
	if !r.SupportedBy(v) {
		t.Errorf("%s.SupportedBy(%s) = false, want true", r, v)
	}
	if r.SupportedBy(Version{2, 2}) {
		t.Error("AIDL range must not be supported by a HIDL version")
	}
}

func TestParseKernelVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"4.14.42", "4.14.42", false},
		{"5.10", "5.10.0", false},
		{"5.15.0-91-generic", "5.15.0", false},
		{"6.1.25-android14-11-gdeadbeef", "6.1.25", false},
		{"linux", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKernelVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKernelVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("ParseKernelVersion(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestKernelVersionSatisfies(t *testing.T) {
	mustKernel := func(s string) KernelVersion {
		t.Helper()
		k, err := ParseKernelVersion(s)
		if err != nil {
			t.Fatalf("ParseKernelVersion(%q) error = %v", s, err)
		}
		return k
	}

	tests := []struct {
		actual, floor string
		sameBranch    bool
		satisfies     bool
	}{
		{"4.14.42", "4.14.0", true, true},
		{"4.14.42", "4.14.42", true, true},
		{"4.14.10", "4.14.42", true, false},
		{"4.19.0", "4.14.0", false, false},
		{"5.4.0", "4.14.0", false, false},
	}
	for _, tt := range tests {
		a, f := mustKernel(tt.actual), mustKernel(tt.floor)
		if got := a.SameBranch(f); got != tt.sameBranch {
			t.Errorf("%s.SameBranch(%s) = %v, want %v", a, f, got, tt.sameBranch)
		}
		if got := a.Satisfies(f); got != tt.satisfies {
			t.Errorf("%s.Satisfies(%s) = %v, want %v", a, f, got, tt.satisfies)
		}
	}
}

func TestKernelVersionZero(t *testing.T) {
	var k KernelVersion
	if !k.IsZero() {
		t.Error("zero KernelVersion.IsZero() = false, want true")
	}
	if k.Major() != 0 || k.Minor() != 0 || k.Patch() != 0 {
		t.Errorf("zero KernelVersion = %d.%d.%d", k.Major(), k.Minor(), k.Patch())
	}
}
