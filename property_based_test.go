package vintfcheck_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/leodido/vintfcheck"
	"github.com/leodido/vintfcheck/vintf"
	"github.com/rs/zerolog"
)

// TestMalformedMatrixAlwaysParseFails verifies non-XML matrix text never
// reaches manifest resolution.
// Property: CheckCompatibilityMatrix(garbage, root, v, h) == -1
func TestMalformedMatrixAlwaysParseFails(t *testing.T) {
	root := t.TempDir()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("non-XML matrix text yields -1", prop.ForAll(
		func(text, vendor, hardware string) bool {
			return vintfcheck.CheckCompatibilityMatrix(text, root, vendor, hardware) == vintfcheck.CodeParseFailed
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("unterminated XML yields -1", prop.ForAll(
		func(name string) bool {
			return vintfcheck.CheckCompatibilityMatrix("<"+name, root, "", "") == vintfcheck.CodeParseFailed
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

// TestTrailingContentAlwaysParseFails verifies a matrix that would be
// compatible is rejected once anything but whitespace follows its root.
// Property: CheckCompatibilityMatrix(valid+trailer, root, "", "") == -1
func TestTrailingContentAlwaysParseFails(t *testing.T) {
	root := writeCompatibleSnapshot(t)
	matrix := `<compatibility-matrix version="1.0" type="framework">
    <hal format="hidl" optional="false">
        <name>vendor.example.x</name>
        <version>1.0</version>
        <interface><name>IX</name><instance>default</instance></interface>
    </hal>
</compatibility-matrix>`
	if got := vintfcheck.CheckCompatibilityMatrix(matrix, root, "", ""); got != vintfcheck.CodeCompatible {
		t.Fatalf("baseline = %d, want %d", got, vintfcheck.CodeCompatible)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("trailing markup yields -1", prop.ForAll(
		func(name, shape string) bool {
			trailer := fmt.Sprintf(shape, name)
			return vintfcheck.CheckCompatibilityMatrix(matrix+trailer, root, "", "") == vintfcheck.CodeParseFailed
		},
		gen.Identifier(),
		gen.OneConstOf("<%s", "</%s>", "<%s/>", "\n%s", "<<<%s"),
	))

	properties.TestingRun(t)
}

// TestEmptyRootAlwaysResolutionFails verifies a valid matrix against a root
// without manifests.
// Property: CheckCompatibilityMatrix(valid, empty, v, h) == -2
func TestEmptyRootAlwaysResolutionFails(t *testing.T) {
	root := t.TempDir()
	matrix := `<compatibility-matrix version="1.0" type="framework"/>`

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("no manifest yields -2 for any SKU", prop.ForAll(
		func(vendor, hardware string) bool {
			return vintfcheck.CheckCompatibilityMatrix(matrix, root, vendor, hardware) == vintfcheck.CodeResolutionFailed
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestSkuOverridesVerbatim verifies the SKU property fetcher contract.
// Property: GetProperty(sku key, d) == override and GetProperty(other, d) == d
func TestSkuOverridesVerbatim(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("SKU keys return the override", prop.ForAll(
		func(vendor, hardware, def string) bool {
			p := vintfcheck.NewSkuPropertyFetcher(vendor, hardware, zerolog.Nop())
			return p.GetProperty(vintf.PropVendorSku, def) == vendor &&
				p.GetProperty(vintf.PropHardwareSku, def) == hardware
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("other keys return the default", prop.ForAll(
		func(key, def string) bool {
			if key == vintf.PropVendorSku || key == vintf.PropHardwareSku {
				return true
			}
			p := vintfcheck.NewSkuPropertyFetcher("v", "h", zerolog.Nop())
			return p.GetProperty(key, def) == def
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestEvaluationIdempotent verifies repeated evaluations agree.
// Property: CheckCompatibilityMatrix(x) == CheckCompatibilityMatrix(x)
func TestEvaluationIdempotent(t *testing.T) {
	root := writeCompatibleSnapshot(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("same inputs give same code", prop.ForAll(
		func(minor uint8, vendor string) bool {
			matrix := fmt.Sprintf(`<compatibility-matrix version="1.0" type="framework">
    <hal format="hidl" optional="false">
        <name>vendor.example.x</name>
        <version>1.%d</version>
        <interface><name>IX</name><instance>default</instance></interface>
    </hal>
</compatibility-matrix>`, minor%6)
			first := vintfcheck.CheckCompatibilityMatrix(matrix, root, vendor, "")
			second := vintfcheck.CheckCompatibilityMatrix(matrix, root, vendor, "")
			want := vintfcheck.CodeIncompatible
			if minor%6 <= 3 {
				want = vintfcheck.CodeCompatible
			}
			return first == second && first == want
		},
		gen.UInt8(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// writeCompatibleSnapshot lays out a vendor manifest providing
// vendor.example.x@1.3::IX/default.
func writeCompatibleSnapshot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "vendor", "etc", "vintf")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `<manifest version="1.0" type="device">
    <hal format="hidl"><name>vendor.example.x</name><transport>hwbinder</transport><fqname>@1.3::IX/default</fqname></hal>
</manifest>`
	if err := os.WriteFile(filepath.Join(dir, "manifest.xml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}
