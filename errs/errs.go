package errs

import (
	"errors"
)

var (
	// ErrVideoUnavailable indicates that the requested video cannot be accessed.
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrPrivate indicates that the video is private.
	ErrPrivate = errors.New("video is private")
	// ErrLoginRequired indicates the page is login-walled (age gate or member content).
	ErrLoginRequired = errors.New("login required")
	// ErrGeoBlocked indicates the video is not available in the current region.
	ErrGeoBlocked = errors.New("geo blocked")
	// ErrRateLimited indicates throttling or rate limiting by the remote service.
	ErrRateLimited = errors.New("rate limited")

	// ErrPatternNotFound indicates a required player-script pattern (decipher
	// function or its helper) could not be located. Retrying against the same
	// script text will not help; the pattern list needs an update.
	ErrPatternNotFound = errors.New("player script pattern not found")
	// ErrManifestNotFound indicates no recognizable embedded player response
	// was found on the page. The usual causes are access restrictions, not
	// obfuscation drift.
	ErrManifestNotFound = errors.New("streaming manifest not found")
	// ErrNoPlayableFormats indicates every declared format failed resolution.
	ErrNoPlayableFormats = errors.New("no playable formats")
	// ErrUpstream indicates a non-2xx response from the internal API. The
	// caller may retry with the same continuation token.
	ErrUpstream = errors.New("upstream request failed")
)
