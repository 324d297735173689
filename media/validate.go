package media

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedMediaType is returned for files outside the accepted MIME types.
var ErrUnsupportedMediaType = errors.New("unsupported file type")

// ErrPayloadTooLarge is returned for files above the size limit.
var ErrPayloadTooLarge = errors.New("file too large")

// Validator decides whether a candidate file may be accepted. It never
// touches the network.
type Validator struct {
	MaxSize int64
}

// NewValidator returns a validator with the given ceiling, falling back to
// MaxFileSize for non-positive values.
func NewValidator(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}

	return &Validator{MaxSize: maxSize}
}

// Validate checks the declared MIME type and size of a file destined for the
// given kind, returning the normalized MIME type on success.
func (v *Validator) Validate(contentType string, size int64, kind Kind) (string, error) {
	mediaType := normalizeType(contentType)

	got, ok := allowedTypes[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}

	if kind != "" && got != kind {
		return "", fmt.Errorf("%w: %q is not a %s", ErrUnsupportedMediaType, mediaType, kind)
	}

	if size > v.MaxSize {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, size, v.MaxSize)
	}

	return mediaType, nil
}

// DetectContentType returns the declared type of a multipart file, sniffing
// the content and then the extension when the client sent nothing useful.
func DetectContentType(fh *multipart.FileHeader) string {
	declared := normalizeType(fh.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	if f, err := fh.Open(); err == nil {
		defer f.Close()

		if mt, err := mimetype.DetectReader(io.LimitReader(f, 3072)); err == nil && mt.String() != "application/octet-stream" {
			return normalizeType(mt.String())
		}
	}

	if byExt := mime.TypeByExtension(filepath.Ext(fh.Filename)); byExt != "" {
		return normalizeType(byExt)
	}

	return declared
}

func normalizeType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}

	return mediaType
}
