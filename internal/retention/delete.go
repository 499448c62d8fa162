package retention

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/raoulx24/dumpkeeper/internal/dump"
	"github.com/raoulx24/dumpkeeper/internal/fs"
)

// deleteAll removes artifacts with at most limit deletions in flight. A
// failure never stops the others. Results follow the input order.
func deleteAll(ctx context.Context, artifacts []*dump.Artifact, limit int) (deleted []string, failed []PathError) {
	errs := make([]error, len(artifacts))

	var g errgroup.Group
	g.SetLimit(max(limit, 1))
	for i, a := range artifacts {
		g.Go(func() error {
			errs[i] = a.Delete(ctx)
			return nil
		})
	}
	_ = g.Wait()

	for i, a := range artifacts {
		if errs[i] != nil {
			failed = append(failed, PathError{Path: a.Path(), Err: fmt.Errorf("%w: %w", ErrDeleteFailed, errs[i])})
			continue
		}
		deleted = append(deleted, a.Path())
	}
	return deleted, failed
}

// pruneEmptyDirs removes directories below root that hold no files and no
// subdirectories, deepest first so a parent emptied by the removal of its
// children goes too. Root itself is kept.
func pruneEmptyDirs(ctx context.Context, fsys fs.FS, root string) (removed []string, failed []PathError) {
	dirs, err := fsys.ListDirs(ctx, root)
	if err != nil {
		return nil, []PathError{{Path: root, Err: err}}
	}

	slices.SortStableFunc(dirs, func(a, b string) int {
		if d := depth(b) - depth(a); d != 0 {
			return d
		}
		return strings.Compare(b, a)
	})

	for _, d := range dirs {
		empty, err := fsys.IsEmptyDir(ctx, d)
		if err != nil {
			failed = append(failed, PathError{Path: d, Err: err})
			continue
		}
		if !empty {
			continue
		}
		if err := fsys.RemoveDir(ctx, d); err != nil {
			failed = append(failed, PathError{Path: d, Err: err})
			continue
		}
		removed = append(removed, d)
	}
	return removed, failed
}

func depth(p string) int {
	return strings.Count(path.Clean(p), "/")
}
