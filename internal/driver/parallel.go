package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"ramc/internal/diag"
	"ramc/internal/source"
)

// FileResult is the validation outcome of one file.
type FileResult struct {
	Path string
	FS   *source.FileSet
	ID   source.FileID
	Bag  *diag.Bag
}

// listRAMFiles returns every *.ram file under dir, sorted for a
// deterministic result order.
func listRAMFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".ram") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ValidatePaths validates several files in parallel. Each worker gets its
// own FileSet and Session, so no state is shared between programs. jobs=0
// uses one worker per CPU.
func ValidatePaths(ctx context.Context, paths []string, jobs int) ([]FileResult, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	results := make([]FileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fileSet := source.NewFileSet()
			id, err := fileSet.Load(path)
			if err != nil {
				return err
			}
			session := NewSession(fileSet)
			results[i] = FileResult{
				Path: path,
				FS:   fileSet,
				ID:   id,
				Bag:  session.Validate(id),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ValidateDir validates every *.ram file under a directory in parallel.
func ValidateDir(ctx context.Context, dir string, jobs int) ([]FileResult, error) {
	files, err := listRAMFiles(dir)
	if err != nil {
		return nil, err
	}
	return ValidatePaths(ctx, files, jobs)
}
