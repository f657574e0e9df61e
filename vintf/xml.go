package vintf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnexpectedRoot is returned when a document has the wrong root element.
var ErrUnexpectedRoot = errors.New("unexpected root element")

type xmlMatrix struct {
	XMLName   xml.Name        `xml:"compatibility-matrix"`
	Type      string          `xml:"type,attr"`
	Level     string          `xml:"level,attr"`
	Hals      []xmlMatrixHal  `xml:"hal"`
	Kernels   []xmlKernel     `xml:"kernel"`
	Sepolicy  []xmlSepolicy   `xml:"sepolicy"`
	AVB       *xmlAVB         `xml:"avb"`
	VendorNDK *xmlVersionList `xml:"vendor-ndk"`
	SystemSDK *xmlVersionList `xml:"system-sdk"`
}

type xmlMatrixHal struct {
	Format     string               `xml:"format,attr"`
	Optional   string               `xml:"optional,attr"`
	Name       string               `xml:"name"`
	Versions   []string             `xml:"version"`
	Interfaces []xmlMatrixInterface `xml:"interface"`
}

type xmlMatrixInterface struct {
	Name           string   `xml:"name"`
	Instances      []string `xml:"instance"`
	RegexInstances []string `xml:"regex-instance"`
}

type xmlKernel struct {
	Version    string            `xml:"version,attr"`
	Level      string            `xml:"level,attr"`
	Conditions *xmlConditions    `xml:"conditions"`
	Configs    []xmlKernelConfig `xml:"config"`
}

type xmlConditions struct {
	Configs []xmlKernelConfig `xml:"config"`
}

type xmlKernelConfig struct {
	Key   string         `xml:"key"`
	Value xmlConfigValue `xml:"value"`
}

type xmlConfigValue struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type xmlSepolicy struct {
	KernelSepolicyVersion string   `xml:"kernel-sepolicy-version"`
	SepolicyVersions      []string `xml:"sepolicy-version"`
	// Version is the manifest form: <sepolicy><version>27.0</version></sepolicy>.
	Version string `xml:"version"`
}

type xmlAVB struct {
	VbmetaVersion string `xml:"vbmeta-version"`
}

type xmlVersionList struct {
	Versions []string `xml:"version"`
}

type xmlManifest struct {
	XMLName   xml.Name         `xml:"manifest"`
	Type      string           `xml:"type,attr"`
	Level     string           `xml:"target-level,attr"`
	Hals      []xmlManifestHal `xml:"hal"`
	Sepolicy  *xmlSepolicy     `xml:"sepolicy"`
	Kernel    *xmlManifestKern `xml:"kernel"`
	VendorNDK []xmlVersionList `xml:"vendor-ndk"`
	SystemSDK *xmlVersionList  `xml:"system-sdk"`
}

type xmlManifestHal struct {
	Format     string               `xml:"format,attr"`
	Override   string               `xml:"override,attr"`
	Name       string               `xml:"name"`
	Transport  xmlTransport         `xml:"transport"`
	Versions   []string             `xml:"version"`
	Interfaces []xmlMatrixInterface `xml:"interface"`
	FQNames    []string             `xml:"fqname"`
}

type xmlTransport struct {
	Arch  string `xml:"arch,attr"`
	Value string `xml:",chardata"`
}

type xmlManifestKern struct {
	Version string `xml:"version,attr"`
	Level   string `xml:"target-level,attr"`
}

// ParseMatrix parses a <compatibility-matrix> document.
func ParseMatrix(text string) (*CompatibilityMatrix, error) {
	var doc xmlMatrix
	if err := decodeStrict(text, "compatibility-matrix", &doc); err != nil {
		return nil, err
	}

	typ, err := parseSchemaType(doc.Type)
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(doc.Level)
	if err != nil {
		return nil, err
	}
	m := &CompatibilityMatrix{Type: typ, Level: level}

	for _, xh := range doc.Hals {
		h, err := convertMatrixHal(xh)
		if err != nil {
			return nil, err
		}
		m.Hals = append(m.Hals, h)
	}

	for _, xk := range doc.Kernels {
		k, err := convertKernel(xk)
		if err != nil {
			return nil, err
		}
		m.Kernels = append(m.Kernels, k)
	}

	for _, xs := range doc.Sepolicy {
		if s := strings.TrimSpace(xs.KernelSepolicyVersion); s != "" {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid kernel-sepolicy-version %q: %w", s, err)
			}
			m.Sepolicy.KernelSepolicyVersion = n
		}
		for _, s := range xs.SepolicyVersions {
			r, err := ParseVersionRange(s)
			if err != nil {
				return nil, fmt.Errorf("sepolicy-version: %w", err)
			}
			m.Sepolicy.SepolicyVersions = append(m.Sepolicy.SepolicyVersions, r)
		}
	}

	if doc.AVB != nil && strings.TrimSpace(doc.AVB.VbmetaVersion) != "" {
		v, err := ParseVersion(doc.AVB.VbmetaVersion)
		if err != nil {
			return nil, fmt.Errorf("vbmeta-version: %w", err)
		}
		m.AVBVersion = v
	}

	if doc.VendorNDK != nil && len(doc.VendorNDK.Versions) > 0 {
		m.VendorNDKVersion = strings.TrimSpace(doc.VendorNDK.Versions[0])
	}
	if doc.SystemSDK != nil {
		for _, v := range doc.SystemSDK.Versions {
			m.SystemSDK = append(m.SystemSDK, strings.TrimSpace(v))
		}
	}

	return m, nil
}

func convertMatrixHal(xh xmlMatrixHal) (MatrixHal, error) {
	format, err := parseHalFormat(xh.Format)
	if err != nil {
		return MatrixHal{}, err
	}
	h := MatrixHal{
		Format:   format,
		Name:     strings.TrimSpace(xh.Name),
		Optional: strings.TrimSpace(xh.Optional) == "true",
	}
	if h.Name == "" {
		return MatrixHal{}, errors.New("matrix hal without name")
	}

	for _, s := range xh.Versions {
		var r VersionRange
		if format == FormatAIDL {
			r, err = ParseAIDLVersionRange(s)
		} else {
			r, err = ParseVersionRange(s)
		}
		if err != nil {
			return MatrixHal{}, fmt.Errorf("hal %s: %w", h.Name, err)
		}
		h.Versions = append(h.Versions, r)
	}
	if format == FormatAIDL && len(h.Versions) == 0 {
		h.Versions = []VersionRange{{Major: FakeAIDLMajor, MinMinor: 1, MaxMinor: 1}}
	}

	for _, xi := range xh.Interfaces {
		mi := MatrixInterface{Name: strings.TrimSpace(xi.Name)}
		for _, inst := range xi.Instances {
			mi.Instances = append(mi.Instances, strings.TrimSpace(inst))
		}
		for _, pattern := range xi.RegexInstances {
			re, err := regexp.Compile("^(?:" + strings.TrimSpace(pattern) + ")$")
			if err != nil {
				return MatrixHal{}, fmt.Errorf("hal %s: regex-instance %q: %w", h.Name, pattern, err)
			}
			mi.RegexInstances = append(mi.RegexInstances, re)
		}
		h.Interfaces = append(h.Interfaces, mi)
	}
	return h, nil
}

func convertKernel(xk xmlKernel) (MatrixKernel, error) {
	v, err := ParseKernelVersion(xk.Version)
	if err != nil {
		return MatrixKernel{}, err
	}
	level, err := parseLevel(xk.Level)
	if err != nil {
		return MatrixKernel{}, err
	}
	k := MatrixKernel{Version: v, Level: level}
	if xk.Conditions != nil {
		k.Conditions, err = convertConfigs(xk.Conditions.Configs)
		if err != nil {
			return MatrixKernel{}, err
		}
	}
	k.Configs, err = convertConfigs(xk.Configs)
	if err != nil {
		return MatrixKernel{}, err
	}
	return k, nil
}

func convertConfigs(in []xmlKernelConfig) ([]KernelConfigRequirement, error) {
	out := make([]KernelConfigRequirement, 0, len(in))
	for _, xc := range in {
		typ, err := parseKernelConfigType(xc.Value.Type)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", xc.Key, err)
		}
		out = append(out, KernelConfigRequirement{
			Key:   strings.TrimSpace(xc.Key),
			Type:  typ,
			Value: strings.TrimSpace(xc.Value.Value),
		})
	}
	return out, nil
}

// ParseManifest parses a <manifest> document.
func ParseManifest(text string) (*HalManifest, error) {
	var doc xmlManifest
	if err := decodeStrict(text, "manifest", &doc); err != nil {
		return nil, err
	}

	typ, err := parseSchemaType(doc.Type)
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(doc.Level)
	if err != nil {
		return nil, err
	}
	m := &HalManifest{Type: typ, Level: level}

	for _, xh := range doc.Hals {
		h, err := convertManifestHal(xh)
		if err != nil {
			return nil, err
		}
		m.Hals = append(m.Hals, h)
	}

	if doc.Sepolicy != nil && strings.TrimSpace(doc.Sepolicy.Version) != "" {
		v, err := ParseVersion(doc.Sepolicy.Version)
		if err != nil {
			return nil, fmt.Errorf("sepolicy version: %w", err)
		}
		m.SepolicyVersion = v
	}

	if doc.Kernel != nil {
		k := &ManifestKernel{Level: LevelUnspecified}
		if strings.TrimSpace(doc.Kernel.Version) != "" {
			k.Version, err = ParseKernelVersion(doc.Kernel.Version)
			if err != nil {
				return nil, err
			}
		}
		k.Level, err = parseLevel(doc.Kernel.Level)
		if err != nil {
			return nil, err
		}
		m.Kernel = k
	}

	for _, vl := range doc.VendorNDK {
		for _, v := range vl.Versions {
			m.VendorNDKVersions = append(m.VendorNDKVersions, strings.TrimSpace(v))
		}
	}
	if doc.SystemSDK != nil {
		for _, v := range doc.SystemSDK.Versions {
			m.SystemSDK = append(m.SystemSDK, strings.TrimSpace(v))
		}
	}

	return m, nil
}

func convertManifestHal(xh xmlManifestHal) (ManifestHal, error) {
	format, err := parseHalFormat(xh.Format)
	if err != nil {
		return ManifestHal{}, err
	}
	transport, err := parseTransport(xh.Transport.Value)
	if err != nil {
		return ManifestHal{}, err
	}
	h := ManifestHal{
		Format:    format,
		Name:      strings.TrimSpace(xh.Name),
		Transport: transport,
		Arch:      strings.TrimSpace(xh.Transport.Arch),
		Override:  strings.TrimSpace(xh.Override) == "true",
	}
	if h.Name == "" {
		return ManifestHal{}, errors.New("manifest hal without name")
	}

	for _, s := range xh.Versions {
		var v Version
		if format == FormatAIDL {
			v, err = ParseAIDLVersion(s)
		} else {
			v, err = ParseVersion(s)
		}
		if err != nil {
			return ManifestHal{}, fmt.Errorf("hal %s: %w", h.Name, err)
		}
		h.Versions = append(h.Versions, v)
	}
	if format == FormatAIDL && len(h.Versions) == 0 {
		h.Versions = []Version{{Major: FakeAIDLMajor, Minor: 1}}
	}

	for _, xi := range xh.Interfaces {
		iface := HalInterface{Name: strings.TrimSpace(xi.Name)}
		for _, inst := range xi.Instances {
			iface.Instances = append(iface.Instances, strings.TrimSpace(inst))
		}
		h.Interfaces = append(h.Interfaces, iface)
	}

	for _, s := range xh.FQNames {
		fq, err := parseFQName(format, s, h.Versions)
		if err != nil {
			return ManifestHal{}, fmt.Errorf("hal %s: %w", h.Name, err)
		}
		h.FQNames = append(h.FQNames, fq)
	}
	return h, nil
}

// parseFQName parses "@1.0::IFoo/default" or, for AIDL, "IFoo/default".
// AIDL fqnames carry no version and inherit the HAL's first version.
func parseFQName(format HalFormat, s string, halVersions []Version) (FQInstance, error) {
	s = strings.TrimSpace(s)
	rest := s
	var fq FQInstance

	if format == FormatAIDL {
		if len(halVersions) > 0 {
			fq.Version = halVersions[0]
		}
	} else {
		_, after, ok := strings.Cut(s, "@")
		if !ok {
			return FQInstance{}, fmt.Errorf("invalid fqname %q: missing version", s)
		}
		version, tail, ok := strings.Cut(after, "::")
		if !ok {
			return FQInstance{}, fmt.Errorf("invalid fqname %q: missing interface", s)
		}
		v, err := ParseVersion(version)
		if err != nil {
			return FQInstance{}, fmt.Errorf("invalid fqname %q: %w", s, err)
		}
		fq.Version = v
		rest = tail
	}

	iface, inst, ok := strings.Cut(rest, "/")
	if !ok || iface == "" || inst == "" {
		return FQInstance{}, fmt.Errorf("invalid fqname %q: want INTERFACE/INSTANCE", s)
	}
	fq.Interface = iface
	fq.Instance = inst
	return fq, nil
}

// decodeStrict unmarshals text into v and checks the root element name, so
// that a well-formed document of another kind is reported as an error
// rather than silently decoded into an empty value.
func decodeStrict(text, root string, v any) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("empty document")
	}
	d := xml.NewDecoder(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))

	var start xml.StartElement
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return errors.New("no root element")
		}
		if err != nil {
			return err
		}
		if se, ok := tok.(xml.StartElement); ok {
			start = se
			break
		}
		if err := checkProlog(tok); err != nil {
			return err
		}
	}
	if start.Name.Local != root {
		return fmt.Errorf("%w: want <%s>, got <%s>", ErrUnexpectedRoot, root, start.Name.Local)
	}
	if err := d.DecodeElement(v, &start); err != nil {
		return err
	}

	// Only comments, processing instructions and whitespace may follow.
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			return fmt.Errorf("content after </%s>", root)
		}
		if err := checkProlog(tok); err != nil {
			return err
		}
	}
}

// checkProlog rejects tokens that may not appear outside the root element.
func checkProlog(tok xml.Token) error {
	switch t := tok.(type) {
	case xml.CharData:
		if strings.TrimSpace(string(t)) != "" {
			return fmt.Errorf("text outside root element: %q", string(t))
		}
	case xml.EndElement:
		return fmt.Errorf("unexpected </%s>", t.Name.Local)
	}
	return nil
}
