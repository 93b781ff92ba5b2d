package refstore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir is a Store rooted at a local directory.
type Dir struct {
	root string
}

var _ Store = (*Dir)(nil)

// NewDir returns a Store rooted at dir. Unlike a writable cache, the
// directory is not created here: a missing root simply means every
// reference is missing.
func NewDir(dir string) (*Dir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute root directory.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) resolve(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}

func (d *Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(d.resolve(name))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create creates parent directories as needed.
func (d *Dir) Create(_ context.Context, name string) (io.WriteCloser, error) {
	full := d.resolve(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	return os.Create(full)
}

func (d *Dir) Exists(_ context.Context, name string) (bool, error) {
	info, err := os.Stat(d.resolve(name))
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
