package formats

import (
	"regexp"
	"strconv"

	"github.com/ytget/ytstream/types"
)

var heightRe = regexp.MustCompile(`([0-9]{3,4})p`)

// parseHeight extracts the pixel height from a quality label like "720p" or
// "1080p60". Returns 0 when the label carries no height.
func parseHeight(label string) int {
	m := heightRe.FindStringSubmatch(label)
	if len(m) >= 2 {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v
		}
	}
	return 0
}

// heightOf returns the format's height, preferring the explicit field over
// the quality label.
func heightOf(f types.Format) int {
	if f.Height > 0 {
		return f.Height
	}
	return parseHeight(f.Quality)
}

func isCombined(f types.Format) bool {
	return f.HasVideo && f.HasAudio
}

func isVideoOnly(f types.Format) bool {
	return f.HasVideo && !f.HasAudio
}

func isAudioOnly(f types.Format) bool {
	return f.HasAudio && !f.HasVideo
}

// betterByHeightThenBitrate compares two formats using height as the primary
// criterion and bitrate as the tiebreaker.
func betterByHeightThenBitrate(candidate, current types.Format) bool {
	ch, cu := heightOf(candidate), heightOf(current)
	if ch != cu {
		return ch > cu
	}
	return candidate.Bitrate > current.Bitrate
}
