package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "ErrVideoUnavailable", err: ErrVideoUnavailable, expected: "video unavailable"},
		{name: "ErrPrivate", err: ErrPrivate, expected: "video is private"},
		{name: "ErrLoginRequired", err: ErrLoginRequired, expected: "login required"},
		{name: "ErrGeoBlocked", err: ErrGeoBlocked, expected: "geo blocked"},
		{name: "ErrRateLimited", err: ErrRateLimited, expected: "rate limited"},
		{name: "ErrPatternNotFound", err: ErrPatternNotFound, expected: "player script pattern not found"},
		{name: "ErrManifestNotFound", err: ErrManifestNotFound, expected: "streaming manifest not found"},
		{name: "ErrNoPlayableFormats", err: ErrNoPlayableFormats, expected: "no playable formats"},
		{name: "ErrUpstream", err: ErrUpstream, expected: "upstream request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected error message '%s', got '%s'", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	wrapped := fmt.Errorf("resolve formats: %w", ErrNoPlayableFormats)
	if !errors.Is(wrapped, ErrNoPlayableFormats) {
		t.Error("wrapped error should match ErrNoPlayableFormats")
	}
	if errors.Is(wrapped, ErrManifestNotFound) {
		t.Error("wrapped error should not match ErrManifestNotFound")
	}
}

func TestErrorUniqueness(t *testing.T) {
	errorList := []error{
		ErrVideoUnavailable,
		ErrPrivate,
		ErrLoginRequired,
		ErrGeoBlocked,
		ErrRateLimited,
		ErrPatternNotFound,
		ErrManifestNotFound,
		ErrNoPlayableFormats,
		ErrUpstream,
	}

	for i, err1 := range errorList {
		for j, err2 := range errorList {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Error %d and %d should not be equal", i, j)
			}
		}
	}
}
