package vintfcheck

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/leodido/vintfcheck/vintf"
	"github.com/spf13/afero"
)

// Vendor SELinux locations inspected by [DetectSepolicyVersion].
const (
	VendorSelinuxDir         = "/vendor/etc/selinux/"
	VendorSepolicyVersionTxt = VendorSelinuxDir + "plat_sepolicy_vers.txt"
)

// ErrNoSepolicyVersion is returned when no vendor sepolicy version can be
// determined.
var ErrNoSepolicyVersion = errors.New("no vendor sepolicy version found")

var cilInitVersion = regexp.MustCompile(`\Winit_(\d+)_(\d+)\W`)

// DetectSepolicyVersion finds the platform sepolicy version the vendor
// partition was built against. fsys must already be rooted at the device
// snapshot.
//
// The first line of plat_sepolicy_vers.txt wins when that file exists.
// Otherwise the highest init_<major>_<minor> token across the vendor .cil
// files is used.
func DetectSepolicyVersion(fsys afero.Fs) (vintf.Version, error) {
	vfs := vintf.NewFileSystem(fsys)

	data, err := vfs.ReadFile(VendorSepolicyVersionTxt)
	switch {
	case err == nil:
		line, _, _ := strings.Cut(string(data), "\n")
		if v, ok := ParseSepolicyVersion(line); ok {
			return v, nil
		}
		return vintf.Version{}, ErrNoSepolicyVersion
	case !errors.Is(err, fs.ErrNotExist):
		return vintf.Version{}, err
	}

	names, err := vfs.ReadDir(VendorSelinuxDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vintf.Version{}, ErrNoSepolicyVersion
		}
		return vintf.Version{}, err
	}

	var best vintf.Version
	for _, name := range names {
		if path.Ext(name) != ".cil" {
			continue
		}
		data, err := vfs.ReadFile(VendorSelinuxDir + name)
		if err != nil {
			// Unreadable policy files are skipped.
			continue
		}
		if v := highestCilVersion(data); v.Compare(best) > 0 {
			best = v
		}
	}
	if best.IsZero() {
		return vintf.Version{}, ErrNoSepolicyVersion
	}
	return best, nil
}

func highestCilVersion(data []byte) vintf.Version {
	var best vintf.Version
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		for _, m := range cilInitVersion.FindAllStringSubmatch(sc.Text(), -1) {
			major, err1 := strconv.ParseUint(m[1], 10, 64)
			minor, err2 := strconv.ParseUint(m[2], 10, 64)
			if err1 != nil || err2 != nil {
				continue
			}
			if v := (vintf.Version{Major: major, Minor: minor}); v.Compare(best) > 0 {
				best = v
			}
		}
	}
	return best
}

// ParseSepolicyVersion parses a lenient "major[.minor]" version string.
// Surrounding whitespace is ignored, a non-numeric minor reads as 0, and
// an all-zero version counts as absent.
func ParseSepolicyVersion(s string) (vintf.Version, bool) {
	parts := strings.Split(s, ".")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	allZero := true
	for _, p := range parts {
		if p != "0" {
			allZero = false
			break
		}
	}
	if allZero || len(parts) > 2 || !isDigits(parts[0]) {
		return vintf.Version{}, false
	}
	major, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return vintf.Version{}, false
	}
	if len(parts) == 1 || !isDigits(parts[1]) {
		return vintf.Version{Major: major}, true
	}
	minor, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return vintf.Version{Major: major}, true
	}
	return vintf.Version{Major: major, Minor: minor}, true
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
