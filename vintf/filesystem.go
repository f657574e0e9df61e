package vintf

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// FileSystem gives the environment read access to manifest and matrix files.
// Paths are absolute device paths such as /vendor/etc/vintf/manifest.xml.
// Missing files must produce errors matching fs.ErrNotExist.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	// ReadDir returns the names of the regular files in dir, sorted.
	ReadDir(dir string) ([]string, error)
}

// AferoFileSystem adapts an afero.Fs to [FileSystem].
type AferoFileSystem struct {
	fs afero.Fs
}

// NewFileSystem wraps an arbitrary afero filesystem.
func NewFileSystem(fsys afero.Fs) *AferoFileSystem {
	return &AferoFileSystem{fs: fsys}
}

// NewFileSystemUnderPath resolves every path relative to root instead of the
// process root. Paths cannot escape root. A relative root is taken from the
// working directory at construction.
func NewFileSystemUnderPath(root string) *AferoFileSystem {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return NewFileSystem(afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), root)))
}

func (f *AferoFileSystem) ReadFile(name string) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, path.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (f *AferoFileSystem) ReadDir(dir string) ([]string, error) {
	infos, err := afero.ReadDir(f.fs, path.Clean(dir))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Mode().IsRegular() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

var _ FileSystem = (*AferoFileSystem)(nil)

// isNotExist reports whether err means the file is simply absent.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
