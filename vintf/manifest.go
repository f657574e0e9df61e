package vintf

import (
	"fmt"
	"slices"
)

// HalManifest is the parsed form of a <manifest> document: what a device
// (or the framework) actually provides.
type HalManifest struct {
	Type  SchemaType
	Level Level

	Hals []ManifestHal

	// Device manifest only.
	SepolicyVersion Version
	Kernel          *ManifestKernel

	// Framework manifest only.
	VendorNDKVersions []string
	SystemSDK         []string
}

// ManifestKernel is the kernel declared by a device manifest.
type ManifestKernel struct {
	Version KernelVersion
	Level   Level
}

// ManifestHal is one <hal> entry.
type ManifestHal struct {
	Format     HalFormat
	Name       string
	Transport  Transport
	Arch       string
	Override   bool
	Versions   []Version
	Interfaces []HalInterface
	FQNames    []FQInstance
}

// HalInterface lists the instances served for one interface.
type HalInterface struct {
	Name      string
	Instances []string
}

// FQInstance is a fully qualified instance, written in manifests as
// "@1.0::IFoo/default" (HIDL) or "IFoo/default" (AIDL).
type FQInstance struct {
	Version   Version
	Interface string
	Instance  string
}

func (f FQInstance) String() string {
	if f.Version.Major == FakeAIDLMajor {
		return fmt.Sprintf("%s/%s", f.Interface, f.Instance)
	}
	return fmt.Sprintf("@%s::%s/%s", f.Version, f.Interface, f.Instance)
}

// Instances flattens the HAL into every (version, interface, instance)
// triple it serves.
func (h *ManifestHal) Instances() []FQInstance {
	out := make([]FQInstance, 0, len(h.FQNames)+len(h.Versions)*len(h.Interfaces))
	for _, v := range h.Versions {
		for _, iface := range h.Interfaces {
			for _, inst := range iface.Instances {
				out = append(out, FQInstance{Version: v, Interface: iface.Name, Instance: inst})
			}
		}
	}
	out = append(out, h.FQNames...)
	return out
}

// AllVersions returns the declared versions plus those implied by fqnames.
func (h *ManifestHal) AllVersions() []Version {
	out := slices.Clone(h.Versions)
	for _, fq := range h.FQNames {
		if !slices.Contains(out, fq.Version) {
			out = append(out, fq.Version)
		}
	}
	return out
}

// HalsByName returns the HALs with the given format and name.
func (m *HalManifest) HalsByName(format HalFormat, name string) []*ManifestHal {
	var out []*ManifestHal
	for i := range m.Hals {
		if m.Hals[i].Format == format && m.Hals[i].Name == name {
			out = append(out, &m.Hals[i])
		}
	}
	return out
}

// Merge adds the content of other (a fragment or ODM manifest) into m.
// HALs marked override replace every HAL with the same format and name.
// Scalar fields of m win when already set.
func (m *HalManifest) Merge(other *HalManifest) error {
	if other == nil {
		return nil
	}
	if m.Type != other.Type {
		return fmt.Errorf("cannot merge %s manifest into %s manifest", other.Type, m.Type)
	}
	for _, h := range other.Hals {
		if h.Override {
			m.Hals = slices.DeleteFunc(m.Hals, func(e ManifestHal) bool {
				return e.Format == h.Format && e.Name == h.Name
			})
		}
		m.Hals = append(m.Hals, h)
	}
	if m.Level == LevelUnspecified {
		m.Level = other.Level
	}
	if m.SepolicyVersion.IsZero() {
		m.SepolicyVersion = other.SepolicyVersion
	}
	if m.Kernel == nil && other.Kernel != nil {
		k := *other.Kernel
		m.Kernel = &k
	}
	for _, v := range other.VendorNDKVersions {
		if !slices.Contains(m.VendorNDKVersions, v) {
			m.VendorNDKVersions = append(m.VendorNDKVersions, v)
		}
	}
	for _, v := range other.SystemSDK {
		if !slices.Contains(m.SystemSDK, v) {
			m.SystemSDK = append(m.SystemSDK, v)
		}
	}
	return nil
}
