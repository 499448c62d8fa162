package fs

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/afero"
)

// PartSuffix marks a copy that is still in flight or was abandoned.
const PartSuffix = ".part"

var errSourceChanged = errors.New("source changed during copy")

// copyWithRetry copies a local file into the backend through a temporary
// name and renames it into place. The copy is abandoned if the source
// changes while it is being read.
func copyWithRetry(ctx context.Context, dst afero.Fs, src, dstPath string) error {
	orig, err := statLocal(src)
	if err != nil {
		return err
	}

	tmp := dstPath + PartSuffix
	err = retry(ctx, "copy", func() error {
		now, err := statLocal(src)
		if err != nil {
			return err
		}
		if sourceChanged(orig, now) {
			return errSourceChanged
		}
		return copyOnce(dst, src, tmp)
	})
	if err != nil {
		_ = dst.Remove(tmp)
		return err
	}

	if err := renameWithRetry(ctx, dst, tmp, dstPath); err != nil {
		_ = dst.Remove(tmp)
		return err
	}
	return nil
}

func statLocal(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Path:  path,
		Size:  st.Size(),
		MTime: st.ModTime(),
		Inode: inodeOf(st),
	}, nil
}

func sourceChanged(orig, now FileInfo) bool {
	if now.Inode != 0 && orig.Inode != 0 && now.Inode != orig.Inode {
		return true
	}
	if now.MTime.After(orig.MTime) {
		return true
	}
	return now.Size != orig.Size
}

func copyOnce(dst afero.Fs, src, dstPath string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := dst.Create(dstPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
