// Package sanitize derives safe output filenames from video titles.
package sanitize

import (
	"path/filepath"
	"strings"
)

const (
	// MaxBaseLength bounds the filename base, leaving room for extensions.
	MaxBaseLength = 120
	// DefaultExt is used when no extension is provided.
	DefaultExt = "mp4"
	// DefaultName replaces empty titles.
	DefaultName = "video"
)

// ToSafeFilename builds a cross-platform filename from a title and an
// extension (without dot). Path separators, reserved punctuation and control
// characters become underscores; overlong bases are truncated on a rune
// boundary.
func ToSafeFilename(title, ext string) string {
	name := strings.Map(safeRune, strings.TrimSpace(title))
	name = strings.Trim(name, " .")
	if name == "" {
		name = DefaultName
	}
	if len(name) > MaxBaseLength {
		runes := []rune(name)
		for len(string(runes)) > MaxBaseLength {
			runes = runes[:len(runes)-1]
		}
		name = strings.TrimRight(string(runes), " .")
	}

	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = DefaultExt
	}
	return filepath.Clean(name + "." + ext)
}

func safeRune(r rune) rune {
	switch r {
	case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
		return '_'
	}
	if r < 0x20 {
		return '_'
	}
	return r
}
