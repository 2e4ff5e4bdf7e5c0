package core

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// FileExt returns the lowered extension of name, without the leading dot.
func FileExt(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// AllowedFile reports whether name carries one of the allowed extensions.
func AllowedFile(name string, allowed ...string) bool {
	ext := FileExt(name)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// SecureFilename reduces an uploaded file name to a safe ascii base name, keeping its extension.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := FileExt(name)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = slug.Make(base)
	if base == "" {
		base = "file"
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// ParseAmount parses a price entered in a form. Empty values are rejected.
func ParseAmount(s string) (float64, bool) {
	s = CleanString(s)
	if s == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, false
	}
	return amount, true
}
