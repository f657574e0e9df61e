package vintfcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leodido/vintfcheck/vintf"
)

// String returns a one-line summary of the result.
func (r Result) String() string {
	if r.Err == nil {
		return fmt.Sprintf("%s (%d)", r.Status, r.Code())
	}
	return fmt.Sprintf("%s (%d): %v", r.Status, r.Code(), r.Err)
}

// FormatManifest returns a human-readable summary of a resolved device
// manifest.
func FormatManifest(m *vintf.HalManifest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Type: %s\n", m.Type)
	fmt.Fprintf(&b, "Target level: %s\n", m.Level)
	if !m.SepolicyVersion.IsZero() {
		fmt.Fprintf(&b, "Sepolicy: %s\n", m.SepolicyVersion)
	}
	if m.Kernel != nil && !m.Kernel.Version.IsZero() {
		fmt.Fprintf(&b, "Kernel: %s\n", m.Kernel.Version)
	}
	b.WriteString("\n")

	hals := make([]vintf.ManifestHal, len(m.Hals))
	copy(hals, m.Hals)
	sort.SliceStable(hals, func(i, j int) bool {
		if hals[i].Format != hals[j].Format {
			return hals[i].Format < hals[j].Format
		}
		return hals[i].Name < hals[j].Name
	})

	fmt.Fprintf(&b, "HALs (%d):\n", len(hals))
	for i := range hals {
		writeHal(&b, &hals[i])
	}
	return b.String()
}

func writeHal(b *strings.Builder, h *vintf.ManifestHal) {
	versions := make([]string, 0, len(h.Versions))
	for _, v := range h.AllVersions() {
		versions = append(versions, v.String())
	}
	fmt.Fprintf(b, "  %s %s [%s]", h.Format, h.Name, strings.Join(versions, ", "))
	if h.Transport != vintf.TransportEmpty {
		fmt.Fprintf(b, " %s", h.Transport)
	}
	b.WriteString("\n")
	for _, fq := range h.Instances() {
		fmt.Fprintf(b, "    %s\n", fq)
	}
}
