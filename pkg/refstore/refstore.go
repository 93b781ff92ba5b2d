// Package refstore locates hotword reference files.
//
// A reference file holds the precomputed embeddings of one hotword. Profiles
// are read through a [Store] so the same detector configuration works with
// references on local disk ([Dir]) or in an S3-compatible bucket ([Bucket]).
//
// Names are forward-slash separated and relative to the store root, e.g.
// "mofel/model/mofel_ref.json".
package refstore

import (
	"context"
	"io"
	"path"
	"strings"
)

// Store reads and writes reference files.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Open opens the named reference for reading. If it does not exist the
	// returned error wraps fs.ErrNotExist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Create opens the named reference for writing, replacing any existing
	// content. The caller must Close the writer to commit it.
	Create(ctx context.Context, name string) (io.WriteCloser, error)

	// Exists reports whether the named reference exists.
	Exists(ctx context.Context, name string) (bool, error)
}

// Ext returns the lower-cased extension of a reference name, without the
// leading dot. It selects the decoder for the file.
func Ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}
