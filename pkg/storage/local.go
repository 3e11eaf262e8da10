package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type localStorage struct {
	root      string
	urlPrefix string
}

// NewLocalStorage stores files under root and serves them below urlPrefix
// (for example "/uploads").
func NewLocalStorage(root, urlPrefix string) (FileStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localStorage{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *localStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	dir := filepath.Join(s.root, filepath.Clean("/"+folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path.Join(s.urlPrefix, strings.Trim(filepath.ToSlash(filepath.Clean("/"+folder)), "/"), name), nil
}

func (s *localStorage) Delete(ctx context.Context, fileURL string) error {
	rel := strings.TrimPrefix(fileURL, s.urlPrefix)
	if rel == fileURL {
		return fmt.Errorf("file %s is not managed by this storage", fileURL)
	}
	target := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+rel)))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
