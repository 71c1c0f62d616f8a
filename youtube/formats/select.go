package formats

import (
	"fmt"

	"github.com/ytget/ytstream/types"
)

// SelectionKind enumerates the supported quality selection modes.
type SelectionKind int

const (
	// Best picks the highest-quality stream available.
	Best SelectionKind = iota
	// ExactHeight picks a stream at exactly the requested pixel height.
	ExactHeight
	// AudioOnly picks the best audio-only stream by bitrate.
	AudioOnly
)

// Selection describes what the caller wants out of a format list.
type Selection struct {
	Kind   SelectionKind
	Height int
}

// BestSelection requests the highest-quality stream.
func BestSelection() Selection { return Selection{Kind: Best} }

// HeightSelection requests a stream at exactly height pixels.
func HeightSelection(height int) Selection {
	return Selection{Kind: ExactHeight, Height: height}
}

// AudioOnlySelection requests the best audio-only stream.
func AudioOnlySelection() Selection { return Selection{Kind: AudioOnly} }

// Choice is the outcome of a selection. Video is nil for audio-only requests;
// Audio is set alongside Video only when the two streams must be muxed.
type Choice struct {
	Video    *types.Format
	Audio    *types.Format
	NeedsMux bool
}

// Select picks streams from formats according to sel. A combined
// (video+audio) stream is preferred; when the requested height is only
// available as a video-only stream, it is paired with the best audio-only
// stream and the choice is flagged NeedsMux. A combined stream at the same
// height as the best video-only stream wins, so equal heights never mux.
func Select(formats []types.Format, sel Selection) (*Choice, error) {
	if len(formats) == 0 {
		return nil, fmt.Errorf("select format: empty format list")
	}

	switch sel.Kind {
	case AudioOnly:
		audio := bestAudio(formats)
		if audio == nil {
			return nil, fmt.Errorf("select format: no audio-only stream")
		}
		return &Choice{Audio: audio}, nil

	case ExactHeight:
		if sel.Height <= 0 {
			return nil, fmt.Errorf("select format: height must be positive")
		}
		if combined := bestCombinedAt(formats, sel.Height); combined != nil {
			return &Choice{Video: combined}, nil
		}
		video := bestVideoOnlyAt(formats, sel.Height)
		if video == nil {
			return nil, fmt.Errorf("select format: no stream at %dp", sel.Height)
		}
		audio := bestAudio(formats)
		if audio == nil {
			return nil, fmt.Errorf("select format: no audio stream to pair with %dp video", sel.Height)
		}
		return &Choice{Video: video, Audio: audio, NeedsMux: true}, nil

	case Best:
		combined := bestCombined(formats)
		video := bestVideoOnly(formats)
		if combined != nil {
			if video == nil || heightOf(*video) <= heightOf(*combined) {
				return &Choice{Video: combined}, nil
			}
		}
		if video != nil {
			audio := bestAudio(formats)
			if audio == nil {
				if combined != nil {
					return &Choice{Video: combined}, nil
				}
				return nil, fmt.Errorf("select format: no audio stream to pair with video-only stream")
			}
			return &Choice{Video: video, Audio: audio, NeedsMux: true}, nil
		}
		return nil, fmt.Errorf("select format: no video stream")

	default:
		return nil, fmt.Errorf("select format: unknown selection kind %d", sel.Kind)
	}
}

func bestCombined(formats []types.Format) *types.Format {
	return bestMatch(formats, isCombined)
}

func bestCombinedAt(formats []types.Format, height int) *types.Format {
	return bestMatch(formats, func(f types.Format) bool {
		return isCombined(f) && heightOf(f) == height
	})
}

func bestVideoOnly(formats []types.Format) *types.Format {
	return bestMatch(formats, isVideoOnly)
}

func bestVideoOnlyAt(formats []types.Format, height int) *types.Format {
	return bestMatch(formats, func(f types.Format) bool {
		return isVideoOnly(f) && heightOf(f) == height
	})
}

func bestAudio(formats []types.Format) *types.Format {
	var best *types.Format
	for i := range formats {
		if !isAudioOnly(formats[i]) {
			continue
		}
		if best == nil || formats[i].Bitrate > best.Bitrate {
			best = &formats[i]
		}
	}
	return best
}

func bestMatch(formats []types.Format, match func(types.Format) bool) *types.Format {
	var best *types.Format
	for i := range formats {
		if !match(formats[i]) {
			continue
		}
		if best == nil || betterByHeightThenBitrate(formats[i], *best) {
			best = &formats[i]
		}
	}
	return best
}
