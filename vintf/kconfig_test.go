package vintf

import (
	"strings"
	"testing"
)

func TestParseKernelConfig(t *testing.T) {
	input := `#
# Automatically generated file; DO NOT EDIT.
# Linux/arm64 5.10.0 Kernel Configuration
#
CONFIG_CC_IS_CLANG=y
CONFIG_CLANG_VERSION=120000
CONFIG_LOCALVERSION="-android12"
CONFIG_ANDROID_BINDER_IPC=y
CONFIG_ZRAM=m
# CONFIG_DEVMEM is not set
not a config line
CONFIG_BROKEN
`

	kc, err := ParseKernelConfig(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseKernelConfig() error = %v", err)
	}

	tests := []struct {
		key     string
		want    string
		present bool
	}{
		{"CC_IS_CLANG", "y", true},
		{"CONFIG_CC_IS_CLANG", "y", true},
		{"CLANG_VERSION", "120000", true},
		{"LOCALVERSION", `"-android12"`, true},
		{"ANDROID_BINDER_IPC", "y", true},
		{"ZRAM", "m", true},
		{"DEVMEM", "n", true},
		{"BROKEN", "", false},
		{"NONEXISTENT", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := kc.Get(tt.key)
			if got != tt.want || ok != tt.present {
				t.Errorf("Get(%q) = %q, %v, want %q, %v", tt.key, got, ok, tt.want, tt.present)
			}
		})
	}

	if !kc.IsSet("ZRAM") {
		t.Error("IsSet(ZRAM) = false, want true")
	}
	if kc.IsSet("DEVMEM") {
		t.Error("IsSet(DEVMEM) = true, want false")
	}
	if got := kc.Len(); got != 6 {
		t.Errorf("Len() = %d, want 6", got)
	}
}

func TestParseKernelConfig_Empty(t *testing.T) {
	kc, err := ParseKernelConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseKernelConfig() error = %v", err)
	}
	if _, ok := kc.Get("anything"); ok {
		t.Error("expected no options in empty config")
	}
}

func TestNewKernelConfig_Copies(t *testing.T) {
	raw := map[string]string{"CONFIG_A": "y", "B": "m"}
	kc := NewKernelConfig(raw)
	raw["CONFIG_A"] = "n"

	if v, _ := kc.Get("A"); v != "y" {
		t.Errorf("Get(A) = %q, want %q (config must not alias the input map)", v, "y")
	}
	if !kc.IsSet("CONFIG_B") {
		t.Error("IsSet(CONFIG_B) = false, want true")
	}
}

func TestKernelConfig_Nil(t *testing.T) {
	var kc *KernelConfig
	if _, ok := kc.Get("A"); ok {
		t.Error("nil config Get() reported present")
	}
	if kc.Len() != 0 {
		t.Error("nil config Len() != 0")
	}
}

func TestKernelConfigRequirement_SatisfiedBy(t *testing.T) {
	tests := []struct {
		name    string
		req     KernelConfigRequirement
		actual  string
		present bool
		want    bool
	}{
		{"tristate y", KernelConfigRequirement{"CONFIG_A", ConfigTristate, "y"}, "y", true, true},
		{"tristate y got m", KernelConfigRequirement{"CONFIG_A", ConfigTristate, "y"}, "m", true, false},
		{"tristate y absent", KernelConfigRequirement{"CONFIG_A", ConfigTristate, "y"}, "", false, false},
		{"tristate n absent", KernelConfigRequirement{"CONFIG_A", ConfigTristate, "n"}, "", false, true},
		{"tristate n explicit", KernelConfigRequirement{"CONFIG_A", ConfigTristate, "n"}, "n", true, true},
		{"tristate n got y", KernelConfigRequirement{"CONFIG_A", ConfigTristate, "n"}, "y", true, false},
		{"string", KernelConfigRequirement{"CONFIG_S", ConfigString, "binder,hwbinder"}, `"binder,hwbinder"`, true, true},
		{"string mismatch", KernelConfigRequirement{"CONFIG_S", ConfigString, "binder"}, `"vndbinder"`, true, false},
		{"int", KernelConfigRequirement{"CONFIG_HZ", ConfigInt, "250"}, "250", true, true},
		{"int hex", KernelConfigRequirement{"CONFIG_X", ConfigInt, "0x10"}, "16", true, true},
		{"int absent", KernelConfigRequirement{"CONFIG_HZ", ConfigInt, "250"}, "", false, false},
		{"range in", KernelConfigRequirement{"CONFIG_R", ConfigRange, "8-18"}, "17", true, true},
		{"range out", KernelConfigRequirement{"CONFIG_R", ConfigRange, "8-18"}, "20", true, false},
		{"range malformed", KernelConfigRequirement{"CONFIG_R", ConfigRange, "8"}, "8", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.SatisfiedBy(tt.actual, tt.present); got != tt.want {
				t.Errorf("%s.SatisfiedBy(%q, %v) = %v, want %v", tt.req, tt.actual, tt.present, got, tt.want)
			}
		})
	}
}
