package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"anoa.com/gemcert/pkg/apperror"
	"github.com/gabriel-vasile/mimetype"
)

// UploadPolicy restricts what an uploaded certificate file may be.
type UploadPolicy struct {
	MaxBytes int64
	// AllowedTypes maps a lower-case extension to the MIME type its content
	// must sniff as.
	AllowedTypes map[string]string
	// TempDir is where uploads are spooled before storage. Empty means os.TempDir.
	TempDir string
}

// DefaultUploadPolicy accepts PDF, JPEG and PNG files up to maxBytes.
func DefaultUploadPolicy(maxBytes int64) UploadPolicy {
	return UploadPolicy{
		MaxBytes: maxBytes,
		AllowedTypes: map[string]string{
			".pdf":  "application/pdf",
			".jpg":  "image/jpeg",
			".jpeg": "image/jpeg",
			".png":  "image/png",
		},
	}
}

// SpooledFile is an accepted upload copied to a temporary file.
type SpooledFile struct {
	Name        string
	ContentType string
	Size        int64
	path        string
}

func (f *SpooledFile) Open() (*os.File, error) {
	return os.Open(f.path)
}

// Remove deletes the temporary copy. It is safe to call more than once.
func (f *SpooledFile) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func rejected(format string, args ...any) error {
	return apperror.New(http.StatusBadRequest, fmt.Sprintf(format, args...), apperror.ErrFileRejected)
}

// Spool checks the extension and size of fh, copies it to a temporary file
// and sniffs its content. The caller must Remove the returned file.
func (p UploadPolicy) Spool(fh *multipart.FileHeader) (*SpooledFile, error) {
	if fh == nil {
		return nil, rejected("file is required")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	want, ok := p.AllowedTypes[ext]
	if !ok {
		return nil, rejected("file type %q is not allowed", ext)
	}
	if p.MaxBytes > 0 && fh.Size > p.MaxBytes {
		return nil, rejected("file exceeds %d bytes", p.MaxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(p.TempDir, "certificate-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	spooled := &SpooledFile{Name: filepath.Base(fh.Filename), path: tmp.Name()}

	var reader io.Reader = src
	if p.MaxBytes > 0 {
		reader = io.LimitReader(src, p.MaxBytes+1)
	}
	n, copyErr := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = spooled.Remove()
		return nil, fmt.Errorf("spool upload: %w", firstErr(copyErr, closeErr))
	}
	if p.MaxBytes > 0 && n > p.MaxBytes {
		_ = spooled.Remove()
		return nil, rejected("file exceeds %d bytes", p.MaxBytes)
	}
	spooled.Size = n

	mtype, err := mimetype.DetectFile(spooled.path)
	if err != nil {
		_ = spooled.Remove()
		return nil, fmt.Errorf("detect file type: %w", err)
	}
	if !mtype.Is(want) {
		_ = spooled.Remove()
		return nil, rejected("file content %s does not match %s", mtype.String(), ext)
	}
	spooled.ContentType = want

	return spooled, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
