package util

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

var (
	ErrNotMultipart = errors.New("request is not multipart/form-data")
	ErrBodyTooLarge = errors.New("request body too large")
)

// ParsedMultipart wraps a parsed form. Cleanup must be called once the
// request is done with it.
type ParsedMultipart struct {
	form *multipart.Form
}

// ParseMultipart caps the body at maxBody bytes and parses it, spilling file
// parts above maxMemory to disk.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxMemory, maxBody int64) (*ParsedMultipart, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, ErrNotMultipart
	}

	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}

	return &ParsedMultipart{form: r.MultipartForm}, nil
}

// FileByKey returns the first file sent under key, or nil.
func (pm *ParsedMultipart) FileByKey(key string) *multipart.FileHeader {
	if pm == nil || pm.form == nil {
		return nil
	}

	if fhs := pm.form.File[key]; len(fhs) > 0 {
		return fhs[0]
	}

	return nil
}

// Cleanup removes any temporary files the form spilled to disk.
func (pm *ParsedMultipart) Cleanup() {
	if pm == nil || pm.form == nil {
		return
	}

	_ = pm.form.RemoveAll()
}

// StageFile copies an uploaded part into a fresh file under dir and returns
// its path. The caller owns the file and must remove it.
func StageFile(fh *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded part: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(filepath.Base(fh.Filename)))
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write scratch file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close scratch file: %w", err)
	}

	return dst.Name(), nil
}
