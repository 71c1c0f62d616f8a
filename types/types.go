package types

import (
	"strings"
	"time"
)

// Format describes one available rendition of a video. Either URL or
// SignatureCipher is set after parsing, never both; after resolution every
// surviving Format carries a usable URL.
type Format struct {
	Itag            int
	URL             string
	SignatureCipher string
	MimeType        string
	Quality         string
	Bitrate         int
	Width           int
	Height          int
	Size            int64
	HasVideo        bool
	HasAudio        bool
}

// StreamingManifest is the parsed streaming state of one watch page. It lives
// for the duration of a single extraction request and is never persisted.
type StreamingManifest struct {
	VideoID     string
	Title       string
	Author      string
	Duration    int
	Formats     []Format
	ExpiresIn   time.Duration
	PlayerJSURL string
	// CommentsToken is the initial comments continuation scraped from the
	// page, when present.
	CommentsToken string
}

// PlayerFunctionSet holds the self-contained transform sources extracted from
// one player-script version. Created on first cache miss for a version and
// read-only thereafter.
type PlayerFunctionSet struct {
	Version          string    `json:"version"`
	DecipherSource   string    `json:"decipherSource"`
	DecipherEntry    string    `json:"decipherEntry"`
	NTransformSource string    `json:"nTransformSource,omitempty"`
	NTransformEntry  string    `json:"nTransformEntry,omitempty"`
	ExtractedAt      time.Time `json:"extractedAt"`
}

// CapsFromMime derives capability flags from a MIME type with its codecs
// parameter. A video/* type with two codecs is a combined stream; with one
// codec it is video-only. Any audio/* type is audio-only.
func CapsFromMime(mime string) (hasVideo, hasAudio bool) {
	m := strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.HasPrefix(m, "audio/"):
		return false, true
	case strings.HasPrefix(m, "video/"):
		hasVideo = true
	default:
		return false, false
	}
	if i := strings.Index(m, "codecs="); i >= 0 {
		codecs := strings.Trim(m[i+len("codecs="):], `"' `)
		if strings.Contains(codecs, ",") {
			hasAudio = true
		}
	}
	return hasVideo, hasAudio
}
