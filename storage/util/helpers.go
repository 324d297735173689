package util

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ObjectName is the sanitized name an uploaded file is stored under.
type ObjectName struct {
	Slug string
	Ext  string
}

// NewObjectName derives a unique, URL-safe name from the client's file name.
// The extension falls back to one registered for the content type.
func NewObjectName(filename, contentType string) ObjectName {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" && contentType != "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}

	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	suffix := uuid.New().String()[:8]
	if base == "" {
		return ObjectName{Slug: uuid.New().String(), Ext: ext}
	}

	return ObjectName{Slug: fmt.Sprintf("%s-%s", base, suffix), Ext: ext}
}

// NormalizeBaseURL ensures the base URL ends with a slash.
func NormalizeBaseURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimRight(trimmed, "/")
	return trimmed + "/"
}

// DeriveTableName constructs a table name from the configured prefix, if any.
func DeriveTableName(prefix string, table string) string {
	if prefix == "" {
		return table
	}

	return fmt.Sprintf("%s_%s", prefix, table)
}
