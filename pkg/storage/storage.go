package storage

import (
	"context"
	"io"
)

// FileStorage stores uploaded certificate files and returns a URL clients can
// fetch them from.
type FileStorage interface {
	// Upload stores r under folder with a name derived from fileName and
	// returns the public URL.
	Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error)
	// Delete removes a previously uploaded file by its URL.
	Delete(ctx context.Context, fileURL string) error
}
