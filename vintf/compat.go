package vintf

import (
	"errors"
	"fmt"
	"strings"
)

// IncompatibleError lists every reason a manifest does not satisfy a matrix.
type IncompatibleError struct {
	Reasons []string
}

func (e *IncompatibleError) Error() string {
	return strings.Join(e.Reasons, "; ")
}

func (e *IncompatibleError) add(format string, args ...any) {
	e.Reasons = append(e.Reasons, fmt.Sprintf(format, args...))
}

func (e *IncompatibleError) orNil() error {
	if len(e.Reasons) == 0 {
		return nil
	}
	return e
}

// CheckCompatibility reports whether m satisfies mat. The error, when
// non-nil, explains every failed predicate; it is an *[IncompatibleError]
// unless the inputs themselves are unusable.
//
// flags only gates the kernel category here: AVB and runtime-info checks need
// a [RuntimeInfo] and are run by [Object.CheckCompatibility].
func (m *HalManifest) CheckCompatibility(mat *CompatibilityMatrix, flags CheckFlags) (bool, error) {
	if m == nil || mat == nil {
		return false, errors.New("nil manifest or matrix")
	}

	incompat := &IncompatibleError{}
	switch {
	case m.Type == SchemaDevice && mat.Type != SchemaFramework:
		incompat.add("device manifest can only be checked against a framework matrix, got %s matrix", mat.Type)
		return false, incompat
	case m.Type == SchemaFramework && mat.Type != SchemaDevice:
		incompat.add("framework manifest can only be checked against a device matrix, got %s matrix", mat.Type)
		return false, incompat
	}

	m.checkHals(mat, incompat)

	if m.Type == SchemaDevice {
		m.checkSepolicy(mat, incompat)
		if flags.Has(CheckKernel) {
			m.checkKernel(mat, incompat)
		}
	} else {
		m.checkVendorNDK(mat, incompat)
		m.checkSystemSDK(mat, incompat)
	}

	if err := incompat.orNil(); err != nil {
		return false, err
	}
	return true, nil
}

func (m *HalManifest) checkHals(mat *CompatibilityMatrix, incompat *IncompatibleError) {
	for _, req := range mat.RequiredHals() {
		candidates := m.HalsByName(req.Format, req.Name)
		if len(candidates) == 0 {
			incompat.add("%s HAL %s is required but not provided", req.Format, req.Name)
			continue
		}
		if len(req.Interfaces) == 0 {
			if !providesAnyVersion(candidates, req.Versions) {
				incompat.add("%s HAL %s requires version %s, provided %s",
					req.Format, req.Name, joinRanges(req.Versions), joinVersions(candidates))
			}
			continue
		}
		for _, iface := range req.Interfaces {
			for _, inst := range iface.Instances {
				if !providesInstance(candidates, req.Versions, iface.Name, func(s string) bool { return s == inst }) {
					incompat.add("%s HAL %s: %s/%s at version %s is required but not provided",
						req.Format, req.Name, iface.Name, inst, joinRanges(req.Versions))
				}
			}
			for _, re := range iface.RegexInstances {
				if !providesInstance(candidates, req.Versions, iface.Name, re.MatchString) {
					incompat.add("%s HAL %s: %s/%s at version %s is required but not provided",
						req.Format, req.Name, iface.Name, re.String(), joinRanges(req.Versions))
				}
			}
		}
	}
}

func providesAnyVersion(hals []*ManifestHal, ranges []VersionRange) bool {
	for _, h := range hals {
		if len(ranges) == 0 {
			return true
		}
		for _, v := range h.AllVersions() {
			if anySupportedBy(ranges, v) {
				return true
			}
		}
	}
	return false
}

func providesInstance(hals []*ManifestHal, ranges []VersionRange, iface string, match func(string) bool) bool {
	for _, h := range hals {
		for _, fq := range h.Instances() {
			if fq.Interface != iface || !match(fq.Instance) {
				continue
			}
			if len(ranges) == 0 || anySupportedBy(ranges, fq.Version) {
				return true
			}
		}
	}
	return false
}

func anySupportedBy(ranges []VersionRange, v Version) bool {
	for _, r := range ranges {
		if r.SupportedBy(v) {
			return true
		}
	}
	return false
}

func (m *HalManifest) checkSepolicy(mat *CompatibilityMatrix, incompat *IncompatibleError) {
	ranges := mat.Sepolicy.SepolicyVersions
	if len(ranges) == 0 {
		return
	}
	if anySupportedBy(ranges, m.SepolicyVersion) {
		return
	}
	incompat.add("sepolicy version %s does not satisfy %s", m.SepolicyVersion, joinRanges(ranges))
}

func (m *HalManifest) checkKernel(mat *CompatibilityMatrix, incompat *IncompatibleError) {
	if m.Kernel == nil || m.Kernel.Version.IsZero() || len(mat.Kernels) == 0 {
		return
	}
	for _, k := range mat.Kernels {
		if m.Kernel.Version.Satisfies(k.Version) {
			return
		}
	}
	incompat.add("kernel %s does not match any kernel requirement of the matrix", m.Kernel.Version)
}

func (m *HalManifest) checkVendorNDK(mat *CompatibilityMatrix, incompat *IncompatibleError) {
	if mat.VendorNDKVersion == "" {
		return
	}
	for _, v := range m.VendorNDKVersions {
		if v == mat.VendorNDKVersion {
			return
		}
	}
	incompat.add("vendor NDK %s is required, provided [%s]", mat.VendorNDKVersion, strings.Join(m.VendorNDKVersions, ", "))
}

func (m *HalManifest) checkSystemSDK(mat *CompatibilityMatrix, incompat *IncompatibleError) {
	provided := make(map[string]struct{}, len(m.SystemSDK))
	for _, v := range m.SystemSDK {
		provided[v] = struct{}{}
	}
	for _, v := range mat.SystemSDK {
		if _, ok := provided[v]; !ok {
			incompat.add("system SDK %s is required but not provided", v)
		}
	}
}

// CheckCompatibility checks the device manifest against mat and, when flags
// ask for it, runtime facts gathered from the runtime info factory.
// Runtime categories fail outright when facts cannot be fetched.
func (o *Object) CheckCompatibility(mat *CompatibilityMatrix, flags CheckFlags) (bool, error) {
	manifest, err := o.DeviceHalManifest()
	if err != nil {
		return false, err
	}
	ok, err := manifest.CheckCompatibility(mat, flags)
	if !ok {
		return false, err
	}

	if !flags.Has(CheckRuntimeInfo) && !flags.Has(CheckAVB) {
		return true, nil
	}

	fetch := FetchFlags(0)
	if flags.Has(CheckRuntimeInfo) {
		fetch |= FetchConfigGz | FetchPolicyVersion
	}
	if flags.Has(CheckAVB) {
		fetch |= FetchAVB
	}
	facts, err := o.RuntimeInfo().Fetch(fetch)
	if err != nil {
		return false, fmt.Errorf("fetch runtime info: %w", err)
	}

	incompat := &IncompatibleError{}
	if flags.Has(CheckRuntimeInfo) {
		checkRuntimeKernel(facts, mat, incompat)
	}
	if flags.Has(CheckAVB) && !mat.AVBVersion.IsZero() && facts.BootAVBVersion.Compare(mat.AVBVersion) < 0 {
		incompat.add("AVB version %s is lower than required %s", facts.BootAVBVersion, mat.AVBVersion)
	}
	if err := incompat.orNil(); err != nil {
		return false, err
	}
	return true, nil
}

func checkRuntimeKernel(facts *RuntimeFacts, mat *CompatibilityMatrix, incompat *IncompatibleError) {
	if mat.Sepolicy.KernelSepolicyVersion > facts.KernelSepolicyVersion {
		incompat.add("kernel sepolicy version %d is lower than required %d",
			facts.KernelSepolicyVersion, mat.Sepolicy.KernelSepolicyVersion)
	}
	if len(mat.Kernels) == 0 {
		return
	}

	var branch []MatrixKernel
	for _, k := range mat.Kernels {
		if facts.KernelVersion.SameBranch(k.Version) {
			branch = append(branch, k)
		}
	}
	if len(branch) == 0 {
		incompat.add("kernel %s does not match any kernel requirement of the matrix", facts.KernelVersion)
		return
	}

	for _, k := range branch {
		if !facts.KernelVersion.Satisfies(k.Version) {
			incompat.add("kernel %s is older than required %s", facts.KernelVersion, k.Version)
			continue
		}
		if !configsSatisfied(facts.KernelConfig, k.Conditions) {
			continue
		}
		for _, c := range k.Configs {
			actual, present := facts.KernelConfig.Get(c.Key)
			if !c.SatisfiedBy(actual, present) {
				incompat.add("kernel config %s is required, found %q", c, actual)
			}
		}
	}
}

func configsSatisfied(kc *KernelConfig, reqs []KernelConfigRequirement) bool {
	for _, c := range reqs {
		actual, present := kc.Get(c.Key)
		if !c.SatisfiedBy(actual, present) {
			return false
		}
	}
	return true
}

func joinRanges(ranges []VersionRange) string {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		parts = append(parts, r.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func joinVersions(hals []*ManifestHal) string {
	var parts []string
	for _, h := range hals {
		for _, v := range h.AllVersions() {
			parts = append(parts, v.String())
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
