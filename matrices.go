package vintfcheck

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leodido/vintfcheck/vintf"
)

const matrixCloseTag = "</compatibility-matrix>"

// ErrNoMatrices is the result error of a sweep over zero matrices.
var ErrNoMatrices = errors.New("no compatibility matrices to check")

// InjectSepolicy adds a sepolicy block requiring v to matrixText, right
// before its last closing compatibility-matrix tag. Text without that tag
// is returned unchanged and will fail to parse.
func InjectSepolicy(matrixText string, v vintf.Version) string {
	i := strings.LastIndex(matrixText, matrixCloseTag)
	if i < 0 {
		return matrixText
	}
	block := fmt.Sprintf(
		"<sepolicy><kernel-sepolicy-version>0</kernel-sepolicy-version><sepolicy-version>%d.%d</sepolicy-version></sepolicy>",
		v.Major, v.Minor)
	return matrixText[:i] + block + matrixText[i:]
}

// CheckMatrices evaluates every matrix against the same snapshot, in
// order. Each evaluation is independent: the manifest is resolved again
// for every matrix.
func CheckMatrices(matrices []string, rootPath, vendorSku, hardwareSku string, opts ...Option) []Result {
	results := make([]Result, 0, len(matrices))
	for _, m := range matrices {
		results = append(results, Evaluate(m, rootPath, vendorSku, hardwareSku, opts...))
	}
	return results
}

// Decide folds sweep results into a single answer. It returns the index
// of the first result that is not incompatible, together with that
// result. When every result is incompatible it returns -1 and the last
// result.
func Decide(results []Result) (int, Result) {
	if len(results) == 0 {
		return -1, Result{Status: StatusIncompatible, Err: ErrNoMatrices}
	}
	for i, r := range results {
		if r.Status != StatusIncompatible {
			return i, r
		}
	}
	return -1, results[len(results)-1]
}

// Verdict is the answer of a whole sweep once the device level is known.
type Verdict int

const (
	VerdictIncompatible Verdict = iota
	VerdictCompatible
	// VerdictUnknown means the sweep cannot answer: a matrix failed to
	// parse, or the device targets a level newer than any matrix checked.
	VerdictUnknown
)

var verdictNames = map[Verdict]string{
	VerdictIncompatible: "incompatible",
	VerdictCompatible:   "compatible",
	VerdictUnknown:      "unknown",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Verdict(%d)", v)
}

// DecideForLevel is [Decide] aware of levels. deviceLevel is the target
// level of the device manifest, maxLevel the newest matrix level of the
// sweep. A resolution failure, or no compatible matrix at all, is unknown
// rather than incompatible when the device is newer than every matrix.
// Either level unspecified disables that rule.
func DecideForLevel(results []Result, deviceLevel, maxLevel vintf.Level) (int, Verdict) {
	newer := deviceLevel != vintf.LevelUnspecified && maxLevel != vintf.LevelUnspecified && deviceLevel > maxLevel
	unmatched := VerdictIncompatible
	if newer {
		unmatched = VerdictUnknown
	}

	for i, r := range results {
		switch r.Status {
		case StatusIncompatible:
			continue
		case StatusCompatible:
			return i, VerdictCompatible
		case StatusResolutionFailed:
			return i, unmatched
		default:
			return i, VerdictUnknown
		}
	}
	return -1, unmatched
}

// MaxMatrixLevel returns the highest level declared by the matrices that
// parse, or [vintf.LevelUnspecified] when none declares one.
func MaxMatrixLevel(matrices []string) vintf.Level {
	highest := vintf.LevelUnspecified
	for _, text := range matrices {
		m, err := vintf.ParseMatrix(text)
		if err != nil {
			continue
		}
		if m.Level > highest {
			highest = m.Level
		}
	}
	return highest
}
