// SPDX-License-Identifier: MPL-2.0

package fsutil

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// ListFiles returns every non-directory path below the given roots.
//
// Roots and directory entries are listed concurrently, but results are
// flattened in root order and then in directory-entry order, so the output
// is stable for an unchanged tree. A root (or nested directory) that cannot
// be read contributes no paths and no error. The only error returned is the
// context's, when it is cancelled mid-walk.
//
// Symbolic links are reported as files and never descended into.
func ListFiles(ctx context.Context, roots ...string) ([]string, error) {
	perRoot := make([][]string, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			files, err := listDir(gctx, root)
			if err != nil {
				return err
			}
			perRoot[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return flatten(perRoot), nil
}

// listDir lists a single directory. Read failures are absorbed.
func listDir(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil //nolint:nilerr // unreadable directories are empty by policy
	}

	perEntry := make([][]string, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !entry.IsDir() {
			perEntry[i] = []string{path}
			continue
		}
		g.Go(func() error {
			files, err := listDir(gctx, path)
			if err != nil {
				return err
			}
			perEntry[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return flatten(perEntry), nil
}

func flatten(groups [][]string) []string {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]string, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
