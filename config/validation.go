package config

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func ValidateAbsPath(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s != "" && path.IsAbs(s)
}

func ValidateIdentifier(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}

	return identifierPattern.MatchString(s)
}

// ValidatePathPattern accepts empty patterns and relative patterns that stay
// inside the media root once placeholders are expanded.
func ValidatePathPattern(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}

	if strings.ContainsRune(s, 0) {
		return false
	}

	if strings.HasPrefix(s, "/") || filepath.VolumeName(s) != "" || regexp.MustCompile(`^[A-Za-z]:`).MatchString(s) {
		return false
	}

	for _, part := range strings.Split(filepath.ToSlash(s), "/") {
		if part == ".." {
			return false
		}
	}

	return true
}
