package util

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// PathPattern turns an object name into a storage key. Supported placeholders:
//   - {kind}     - media kind ("image" or "video")
//   - {year}     - 4-digit year
//   - {month}    - 2-digit month
//   - {day}      - 2-digit day
//   - {slug}     - slugified base name
//   - {ext}      - extension with leading dot
//   - {filename} - slug and extension
//
// "{kind}/{year}/{month}/{filename}" yields "image/2026/01/beach-3f2a9c1d.jpg".
type PathPattern struct {
	pattern string
}

func NewPathPattern(pattern string) *PathPattern {
	return &PathPattern{pattern: pattern}
}

// Generate expands the pattern for the given object. Keys always use forward
// slashes; callers convert to OS paths when needed.
func (p *PathPattern) Generate(kind string, name ObjectName, timestamp time.Time) (string, error) {
	if name.Slug == "" {
		return "", fmt.Errorf("slug cannot be empty")
	}

	result := p.pattern

	if !timestamp.IsZero() {
		result = strings.ReplaceAll(result, "{year}", fmt.Sprintf("%04d", timestamp.Year()))
		result = strings.ReplaceAll(result, "{month}", fmt.Sprintf("%02d", timestamp.Month()))
		result = strings.ReplaceAll(result, "{day}", fmt.Sprintf("%02d", timestamp.Day()))
	}

	ext := name.Ext
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	result = strings.ReplaceAll(result, "{kind}", kind)
	result = strings.ReplaceAll(result, "{slug}", name.Slug)
	result = strings.ReplaceAll(result, "{filename}", name.Slug+ext)
	result = strings.ReplaceAll(result, "{ext}", ext)

	result = path.Clean(result)
	if result == "." || strings.HasPrefix(result, "../") || result == ".." {
		return "", fmt.Errorf("pattern %q produced an invalid key", p.pattern)
	}

	return strings.TrimPrefix(result, "/"), nil
}

// DefaultMediaPattern groups objects by kind and upload month.
func DefaultMediaPattern() *PathPattern {
	return NewPathPattern("{kind}/{year}/{month}/{filename}")
}
