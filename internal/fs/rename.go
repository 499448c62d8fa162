package fs

import (
	"context"

	"github.com/spf13/afero"
)

// renameWithRetry finalizes a placed dump atomically where the backend
// supports it.
func renameWithRetry(ctx context.Context, fsys afero.Fs, oldPath, newPath string) error {
	return retry(ctx, "rename", func() error {
		return fsys.Rename(oldPath, newPath)
	})
}
