package vintf

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ErrNoKernelConfig is returned when no kernel config source is available.
var ErrNoKernelConfig = errors.New("no kernel config found")

// KernelConfig holds parsed kernel configuration values.
type KernelConfig struct {
	// raw maps keys without the CONFIG_ prefix to their textual value
	// ("y", "m", "0x10", "\"str\"").
	raw map[string]string
}

// NewKernelConfig creates a KernelConfig from a raw config map.
// The map is copied to ensure immutability after construction.
func NewKernelConfig(raw map[string]string) *KernelConfig {
	copied := make(map[string]string, len(raw))
	for k, v := range raw {
		copied[strings.TrimPrefix(k, "CONFIG_")] = v
	}
	return &KernelConfig{raw: copied}
}

// Get returns the value of a kernel config key. The CONFIG_ prefix is optional.
func (kc *KernelConfig) Get(key string) (string, bool) {
	if kc == nil || kc.raw == nil {
		return "", false
	}
	v, ok := kc.raw[strings.TrimPrefix(key, "CONFIG_")]
	return v, ok
}

// IsSet returns true if the config option is enabled (=m or =y).
func (kc *KernelConfig) IsSet(key string) bool {
	v, _ := kc.Get(key)
	return v == "y" || v == "m"
}

// Len returns the number of options present.
func (kc *KernelConfig) Len() int {
	if kc == nil {
		return 0
	}
	return len(kc.raw)
}

// ParseKernelConfig parses kernel configuration text (the format of
// /proc/config.gz once decompressed).
// "# CONFIG_FOO is not set" lines record FOO as "n".
func ParseKernelConfig(r io.Reader) (*KernelConfig, error) {
	raw := make(map[string]string)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if key, ok := strings.CutSuffix(strings.TrimPrefix(line, "# "), " is not set"); ok && strings.HasPrefix(key, "CONFIG_") {
				raw[strings.TrimPrefix(key, "CONFIG_")] = "n"
			}
			continue
		}

		if !strings.HasPrefix(line, "CONFIG_") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		raw[strings.TrimPrefix(key, "CONFIG_")] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &KernelConfig{raw: raw}, nil
}
