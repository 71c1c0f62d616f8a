// Package mimeext maps media MIME types to output file extensions.
package mimeext

import "strings"

// DefaultExt is the extension used when the MIME type is unknown or empty.
const DefaultExt = "mp4"

var extByMime = map[string]string{
	"video/mp4":   "mp4",
	"audio/mp4":   "m4a",
	"video/webm":  "webm",
	"audio/webm":  "webm",
	"video/3gpp":  "3gp",
	"audio/mpeg":  "mp3",
	"video/x-flv": "flv",
}

// ExtFromMime returns the file extension (without dot) for a MIME type,
// ignoring codec parameters. Unknown types fall back to the subtype, then to
// mp4.
func ExtFromMime(mime string) string {
	base := mime
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" {
		return DefaultExt
	}
	if ext, ok := extByMime[base]; ok {
		return ext
	}
	if _, subtype, found := strings.Cut(base, "/"); found && subtype != "" {
		return subtype
	}
	return DefaultExt
}
