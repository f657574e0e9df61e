package vintf

import (
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/rs/zerolog"
)

// Device paths searched for manifests.
const (
	VendorVintfDir       = "/vendor/etc/vintf/"
	VendorManifest       = VendorVintfDir + "manifest.xml"
	VendorManifestFrags  = VendorVintfDir + "manifest/"
	VendorMatrix         = VendorVintfDir + "compatibility_matrix.xml"
	OdmVintfDir          = "/odm/etc/vintf/"
	OdmManifest          = OdmVintfDir + "manifest.xml"
	OdmManifestFrags     = OdmVintfDir + "manifest/"
	OdmLegacyDir         = "/odm/etc/"
	OdmLegacyManifest    = OdmLegacyDir + "manifest.xml"
	VendorLegacyManifest = "/vendor/manifest.xml"
)

var (
	// ErrMissingProvider is returned by [Builder.Build] when a provider is nil.
	ErrMissingProvider = errors.New("missing provider")
	// ErrManifestNotFound is returned when no device manifest exists under
	// any of the searched paths.
	ErrManifestNotFound = errors.New("device manifest not found")
)

// Object is the evaluation environment: a filesystem, a property fetcher
// and a runtime info factory, plus manifest resolution on top of them.
// An Object is immutable once built; the device manifest is resolved at
// most once and shared by every caller.
type Object struct {
	fs      FileSystem
	props   PropertyFetcher
	runtime RuntimeInfoFactory
	logger  zerolog.Logger

	once     sync.Once
	manifest *HalManifest
	err      error
}

// Builder assembles an [Object].
type Builder struct {
	fs      FileSystem
	props   PropertyFetcher
	runtime RuntimeInfoFactory
	logger  zerolog.Logger
}

// NewBuilder returns a Builder with no providers and a disabled logger.
func NewBuilder() *Builder {
	return &Builder{logger: zerolog.Nop()}
}

func (b *Builder) SetFileSystem(fs FileSystem) *Builder {
	b.fs = fs
	return b
}

func (b *Builder) SetPropertyFetcher(p PropertyFetcher) *Builder {
	b.props = p
	return b
}

func (b *Builder) SetRuntimeInfoFactory(f RuntimeInfoFactory) *Builder {
	b.runtime = f
	return b
}

func (b *Builder) SetLogger(l zerolog.Logger) *Builder {
	b.logger = l
	return b
}

// Build returns the Object. Every provider must be set.
func (b *Builder) Build() (*Object, error) {
	switch {
	case b.fs == nil:
		return nil, fmt.Errorf("%w: filesystem", ErrMissingProvider)
	case b.props == nil:
		return nil, fmt.Errorf("%w: property fetcher", ErrMissingProvider)
	case b.runtime == nil:
		return nil, fmt.Errorf("%w: runtime info factory", ErrMissingProvider)
	}
	return &Object{
		fs:      b.fs,
		props:   b.props,
		runtime: b.runtime,
		logger:  b.logger,
	}, nil
}

// FileSystem returns the filesystem provider.
func (o *Object) FileSystem() FileSystem { return o.fs }

// PropertyFetcher returns the property provider.
func (o *Object) PropertyFetcher() PropertyFetcher { return o.props }

// RuntimeInfo returns a fresh runtime info object from the factory.
func (o *Object) RuntimeInfo() RuntimeInfo { return o.runtime.NewRuntimeInfo() }

// DeviceHalManifest resolves the device manifest:
//  1. vendor manifest (SKU variant first), plus vendor fragments if found;
//  2. ODM manifest (SKU variant first, then legacy /odm/etc locations);
//  3. ODM fragments, only if the vendor manifest was found;
//  4. legacy /vendor/manifest.xml when nothing else was found.
func (o *Object) DeviceHalManifest() (*HalManifest, error) {
	o.once.Do(func() {
		o.manifest, o.err = o.fetchDeviceHalManifest()
	})
	return o.manifest, o.err
}

// DeviceCompatibilityMatrix reads the matrix the vendor image ships at
// [VendorMatrix]. It returns nil, nil when the image has none.
func (o *Object) DeviceCompatibilityMatrix() (*CompatibilityMatrix, error) {
	data, err := o.fs.ReadFile(VendorMatrix)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	m, err := ParseMatrix(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", VendorMatrix, err)
	}
	if m.Type != SchemaDevice {
		return nil, fmt.Errorf("%s has type %s", VendorMatrix, m.Type)
	}
	o.logger.Debug().Str("path", VendorMatrix).Str("vendor_ndk", m.VendorNDKVersion).Msg("loaded device matrix")
	return m, nil
}

func (o *Object) fetchDeviceHalManifest() (*HalManifest, error) {
	vendorSku := o.props.GetProperty(PropVendorSku, "")
	hardwareSku := o.props.GetProperty(PropHardwareSku, "")

	out, err := o.fetchVendorManifest(vendorSku)
	if err != nil {
		return nil, err
	}
	vendorFound := out != nil
	if vendorFound {
		if err := o.mergeFragments(out, VendorManifestFrags); err != nil {
			return nil, err
		}
	}

	odm, err := o.fetchOdmManifest(hardwareSku)
	if err != nil {
		return nil, err
	}
	if odm != nil {
		if out == nil {
			out = odm
		} else if err := out.Merge(odm); err != nil {
			return nil, err
		}
	}

	if vendorFound {
		if err := o.mergeFragments(out, OdmManifestFrags); err != nil {
			return nil, err
		}
	}

	if out == nil {
		legacy, err := o.fetchOneManifest(VendorLegacyManifest)
		if err != nil {
			return nil, err
		}
		if legacy == nil {
			return nil, ErrManifestNotFound
		}
		o.logger.Debug().Str("path", VendorLegacyManifest).Msg("using legacy device manifest")
		out = legacy
	}

	if out.Type != SchemaDevice {
		return nil, fmt.Errorf("device manifest has type %s", out.Type)
	}
	return out, nil
}

func (o *Object) fetchVendorManifest(sku string) (*HalManifest, error) {
	candidates := []string{VendorManifest}
	if sku != "" {
		candidates = []string{VendorVintfDir + "manifest_" + sku + ".xml", VendorManifest}
	}
	return o.fetchFirstManifest(candidates)
}

func (o *Object) fetchOdmManifest(sku string) (*HalManifest, error) {
	var candidates []string
	if sku != "" {
		candidates = append(candidates, OdmVintfDir+"manifest_"+sku+".xml")
	}
	candidates = append(candidates, OdmManifest)
	if sku != "" {
		candidates = append(candidates, OdmLegacyDir+"manifest_"+sku+".xml")
	}
	candidates = append(candidates, OdmLegacyManifest)
	return o.fetchFirstManifest(candidates)
}

// fetchFirstManifest returns the first candidate that exists, or nil when
// none does.
func (o *Object) fetchFirstManifest(candidates []string) (*HalManifest, error) {
	for _, p := range candidates {
		m, err := o.fetchOneManifest(p)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// fetchOneManifest returns nil, nil when the file does not exist.
func (o *Object) fetchOneManifest(p string) (*HalManifest, error) {
	data, err := o.fs.ReadFile(p)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	m, err := ParseManifest(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	o.logger.Debug().Str("path", p).Int("hals", len(m.Hals)).Msg("loaded manifest")
	return m, nil
}

func (o *Object) mergeFragments(into *HalManifest, dir string) error {
	names, err := o.fs.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return err
	}
	for _, name := range names {
		frag, err := o.fetchOneManifest(path.Join(dir, name))
		if err != nil {
			return err
		}
		if frag == nil {
			continue
		}
		if err := into.Merge(frag); err != nil {
			return fmt.Errorf("merge %s: %w", path.Join(dir, name), err)
		}
	}
	return nil
}
