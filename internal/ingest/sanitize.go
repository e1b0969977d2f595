package ingest

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/albumkeep/albumkeep/internal/wire"
)

// SanitizeAlbum reduces a declared album name to a safe path segment.
// Characters outside [A-Za-z0-9_ -] become underscores; an empty
// result falls back to the default album.
func SanitizeAlbum(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), " _")
	if cleaned == "" {
		return wire.DefaultAlbum
	}
	return cleaned
}

// SanitizeFilename reduces a declared filename to a safe character
// set: whitespace runs collapse to a single underscore and anything
// outside [A-Za-z0-9._-] is dropped. Only the base name survives.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	inSpace := false
	for _, r := range base {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteRune('_')
			}
			inSpace = true
			continue
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
		inSpace = false
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}
