// Package storage reads survey images from an asset store and archives
// exported results.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

var ErrNotFound = errors.New("object not found")

// Images is a read-only source of trial images, addressed by file name.
type Images interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Dir serves images from a local directory.
type Dir struct {
	fsys fs.FS
}

func NewDir(path string) *Dir {
	return &Dir{fsys: os.DirFS(path)}
}

func NewFS(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys}
}

func (d *Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	f, err := d.fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
