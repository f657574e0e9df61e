package vintfcheck

import (
	"path/filepath"

	"github.com/leodido/vintfcheck/vintf"
	"github.com/spf13/afero"
)

// rootedFileSystem resolves device paths under root. An empty root means
// the filesystem root. A nil base means the OS filesystem, where a relative
// root is resolved against the working directory.
func rootedFileSystem(root string, base afero.Fs) vintf.FileSystem {
	if root == "" {
		root = "/"
	}
	if base == nil {
		return vintf.NewFileSystemUnderPath(root)
	}
	if filepath.Clean(root) == "." {
		return vintf.NewFileSystem(afero.NewReadOnlyFs(base))
	}
	return vintf.NewFileSystem(afero.NewReadOnlyFs(afero.NewBasePathFs(base, root)))
}
