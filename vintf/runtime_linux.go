//go:build linux

package vintf

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Kernel fact sources.
const (
	policyVersionPath = "/sys/fs/selinux/policyvers"
	cmdlinePath       = "/proc/cmdline"
	cpuinfoPath       = "/proc/cpuinfo"
	avbCmdlineKey     = "androidboot.vbmeta.avb_version"
)

// LiveRuntimeInfo reads facts from the kernel the process runs on.
// It is only meaningful when the evaluated manifest belongs to this device.
type LiveRuntimeInfo struct {
	// ConfigSources overrides the kernel config search order (for testing).
	ConfigSources []ConfigSource
}

// ConfigSource describes a kernel config file location.
type ConfigSource struct {
	Path       string
	Compressed bool
}

func (r *LiveRuntimeInfo) Fetch(flags FetchFlags) (*RuntimeFacts, error) {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return nil, fmt.Errorf("uname: %w", err)
	}
	facts := &RuntimeFacts{
		OSName:     unix.ByteSliceToString(uname.Sysname[:]),
		NodeName:   unix.ByteSliceToString(uname.Nodename[:]),
		OSRelease:  unix.ByteSliceToString(uname.Release[:]),
		OSVersion:  unix.ByteSliceToString(uname.Version[:]),
		HardwareID: unix.ByteSliceToString(uname.Machine[:]),
	}
	kv, err := ParseKernelVersion(facts.OSRelease)
	if err != nil {
		return nil, err
	}
	facts.KernelVersion = kv

	if flags&FetchConfigGz != 0 {
		sources := r.ConfigSources
		if len(sources) == 0 {
			sources = defaultConfigSources(facts.OSRelease)
		}
		kc, err := readKernelConfig(sources)
		if err != nil {
			return nil, err
		}
		facts.KernelConfig = kc
	}

	if flags&FetchPolicyVersion != 0 {
		// No selinuxfs means SELinux is disabled: policy version 0.
		n, err := readUintFile(policyVersionPath)
		if err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("read sepolicy version: %w", err)
		}
		facts.KernelSepolicyVersion = n
	}

	if flags&FetchAVB != 0 {
		v, err := readBootAVBVersion(cmdlinePath)
		if err != nil {
			return nil, err
		}
		facts.BootAVBVersion = v
	}

	if flags&FetchCPUVersion != 0 {
		data, err := os.ReadFile(cpuinfoPath)
		if err != nil {
			return nil, fmt.Errorf("read cpuinfo: %w", err)
		}
		facts.CPUInfo = string(data)
	}

	return facts, nil
}

// defaultConfigSources lists kernel config locations in priority order:
//  1. /proc/config.gz (requires CONFIG_IKCONFIG_PROC=y)
//  2. /boot/config-$(uname -r)
//  3. /lib/modules/$(uname -r)/config
func defaultConfigSources(release string) []ConfigSource {
	return []ConfigSource{
		{Path: "/proc/config.gz", Compressed: true},
		{Path: "/boot/config-" + release},
		{Path: "/lib/modules/" + release + "/config"},
	}
}

func readKernelConfig(sources []ConfigSource) (*KernelConfig, error) {
	var lastErr error
	for _, src := range sources {
		kc, err := parseConfigFrom(src)
		if err == nil {
			return kc, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %w", ErrNoKernelConfig, lastErr)
}

func parseConfigFrom(src ConfigSource) (*KernelConfig, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if src.Compressed {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		reader = gr
	}

	return ParseKernelConfig(reader)
}

func readUintFile(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}

// readBootAVBVersion extracts androidboot.vbmeta.avb_version from the
// kernel command line. A missing key yields the zero version.
func readBootAVBVersion(path string) (Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Version{}, fmt.Errorf("read kernel cmdline: %w", err)
	}
	for _, field := range strings.Fields(string(data)) {
		if value, ok := strings.CutPrefix(field, avbCmdlineKey+"="); ok {
			return ParseVersion(value)
		}
	}
	return Version{}, nil
}
