//go:build linux

package vintf

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfigFrom_Testdata(t *testing.T) {
	kc, err := parseConfigFrom(ConfigSource{Path: "testdata/config-android"})
	if err != nil {
		t.Fatalf("parseConfigFrom() error = %v", err)
	}
	if !kc.IsSet("ANDROID_BINDER_IPC") {
		t.Error("IsSet(ANDROID_BINDER_IPC) = false, want true")
	}
	if v, _ := kc.Get("HZ"); v != "250" {
		t.Errorf("Get(HZ) = %q, want %q", v, "250")
	}
	if v, _ := kc.Get("MODULES"); v != "n" {
		t.Errorf("Get(MODULES) = %q, want %q", v, "n")
	}
}

func TestParseConfigFrom_Compressed(t *testing.T) {
	src, err := os.ReadFile("testdata/config-android")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(src); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	kc, err := parseConfigFrom(ConfigSource{Path: path, Compressed: true})
	if err != nil {
		t.Fatalf("parseConfigFrom() error = %v", err)
	}
	if v, _ := kc.Get("ZRAM"); v != "m" {
		t.Errorf("Get(ZRAM) = %q, want %q", v, "m")
	}
}

func TestReadKernelConfig_FallsBack(t *testing.T) {
	kc, err := readKernelConfig([]ConfigSource{
		{Path: "/nonexistent/config.gz", Compressed: true},
		{Path: "testdata/config-android"},
	})
	if err != nil {
		t.Fatalf("readKernelConfig() error = %v", err)
	}
	if !kc.IsSet("ARM64") {
		t.Error("IsSet(ARM64) = false, want true")
	}
}

func TestReadKernelConfig_Sentinel(t *testing.T) {
	_, err := readKernelConfig([]ConfigSource{{Path: "/nonexistent/path/config"}})
	if !errors.Is(err, ErrNoKernelConfig) {
		t.Errorf("readKernelConfig() error = %v, want ErrNoKernelConfig", err)
	}
}

func TestReadBootAVBVersion(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cmdline string
		want    Version
		wantErr bool
	}{
		{"present", "console=ttyS0 androidboot.vbmeta.avb_version=1.1 quiet\n", Version{1, 1}, false},
		{"absent", "console=ttyS0 quiet\n", Version{}, false},
		{"malformed", "androidboot.vbmeta.avb_version=one\n", Version{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte(tt.cmdline), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := readBootAVBVersion(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readBootAVBVersion() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("readBootAVBVersion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadUintFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policyvers")
	if err := os.WriteFile(path, []byte("33\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := readUintFile(path)
	if err != nil || n != 33 {
		t.Errorf("readUintFile() = %d, %v, want 33, nil", n, err)
	}
	if _, err := readUintFile(filepath.Join(t.TempDir(), "missing")); !isNotExist(err) {
		t.Errorf("readUintFile(missing) error = %v, want not-exist", err)
	}
}

func TestLiveRuntimeInfo_Fetch(t *testing.T) {
	info := &LiveRuntimeInfo{ConfigSources: []ConfigSource{{Path: "testdata/config-android"}}}
	facts, err := info.Fetch(FetchConfigGz)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if facts.OSName == "" || facts.OSRelease == "" {
		t.Errorf("uname fields empty: %+v", facts)
	}
	if facts.KernelVersion.IsZero() {
		t.Error("KernelVersion not populated")
	}
	if !facts.KernelConfig.IsSet("ANDROID") {
		t.Error("KernelConfig not read from configured source")
	}
}
