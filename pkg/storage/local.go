package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Compile-time interface check.
var _ Reader = (*localReader)(nil)

type localReader struct{}

// NewLocalReader creates a Reader backed by the local filesystem.
func NewLocalReader() Reader {
	return &localReader{}
}

func (r *localReader) Name() string {
	return "local"
}

// List walks root and returns every regular file below it, including
// symlinks to regular files. Subdirectories
// that cannot be read are skipped.
func (r *localReader) List(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return nil, nil
	}

	var files []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if path == root {
				return walkErr
			}

			if d != nil && d.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		switch {
		case d.Type().IsRegular():
			files = append(files, path)
		case d.Type()&fs.ModeSymlink != 0:
			// Symlinked files are listed; symlinked directories are not walked.
			if target, err := os.Stat(path); err == nil && target.Mode().IsRegular() {
				files = append(files, path)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return files, nil
}

// Read reads a file from the local filesystem.
// Returns (nil, nil) when the file does not exist.
func (r *localReader) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // paths come from List
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	return data, nil
}
