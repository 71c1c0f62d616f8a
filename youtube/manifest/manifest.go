// Package manifest extracts the embedded streaming state from watch-page
// markup. The payload is a JSON object assigned to a well-known global; the
// assignment style has changed across platform revisions, so an ordered list
// of anchors is tried and the object itself is bounded with the balanced
// scanner rather than a regex.
package manifest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ytget/ytstream/errs"
	"github.com/ytget/ytstream/internal/textscan"
	"github.com/ytget/ytstream/types"
)

const ytBase = "https://www.youtube.com"

var playerResponseAnchors = []*regexp.Regexp{
	regexp.MustCompile(`var\s+ytInitialPlayerResponse\s*=\s*`),
	regexp.MustCompile(`window\["ytInitialPlayerResponse"\]\s*=\s*`),
	regexp.MustCompile(`window\.ytInitialPlayerResponse\s*=\s*`),
	regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*`),
}

var initialDataAnchors = []*regexp.Regexp{
	regexp.MustCompile(`var\s+ytInitialData\s*=\s*`),
	regexp.MustCompile(`window\["ytInitialData"\]\s*=\s*`),
}

var jsURLRe = regexp.MustCompile(`"(?:jsUrl|PLAYER_JS_URL)":"([^"]+)"`)
var playerPathRe = regexp.MustCompile(`(/s/player/[A-Za-z0-9_-]+/[A-Za-z0-9._/-]*base\.js)`)

type rawFormat struct {
	Itag            int    `json:"itag"`
	URL             string `json:"url"`
	SignatureCipher string `json:"signatureCipher"`
	Cipher          string `json:"cipher"` // pre-2020 field name for the same value
	MimeType        string `json:"mimeType"`
	Bitrate         int    `json:"bitrate"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	ContentLength   string `json:"contentLength"`
	QualityLabel    string `json:"qualityLabel"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	StreamingData struct {
		ExpiresInSeconds string      `json:"expiresInSeconds"`
		Formats          []rawFormat `json:"formats"`
		AdaptiveFormats  []rawFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
	VideoDetails struct {
		VideoID       string `json:"videoId"`
		Title         string `json:"title"`
		Author        string `json:"author"`
		LengthSeconds string `json:"lengthSeconds"`
	} `json:"videoDetails"`
}

// Parse locates the embedded player response in page markup and builds a
// StreamingManifest. When no anchor yields parseable JSON the manifest is
// absent: the common causes are a private or deleted video or a login wall,
// so the distinct errs sentinels let callers message that correctly.
func Parse(pageHTML string) (*types.StreamingManifest, error) {
	pr, ok := extractPlayerResponse(pageHTML)
	if !ok {
		return nil, errs.ErrManifestNotFound
	}
	if err := mapPlayability(pr); err != nil {
		return nil, err
	}

	m := &types.StreamingManifest{
		VideoID:       pr.VideoDetails.VideoID,
		Title:         pr.VideoDetails.Title,
		Author:        pr.VideoDetails.Author,
		PlayerJSURL:   findPlayerJSURL(pageHTML),
		CommentsToken: findCommentsToken(pageHTML),
	}
	if v, err := strconv.Atoi(pr.VideoDetails.LengthSeconds); err == nil {
		m.Duration = v
	}
	if v, err := strconv.Atoi(pr.StreamingData.ExpiresInSeconds); err == nil {
		m.ExpiresIn = time.Duration(v) * time.Second
	}

	all := append(pr.StreamingData.Formats, pr.StreamingData.AdaptiveFormats...)
	for _, rf := range all {
		f := types.Format{
			Itag:     rf.Itag,
			URL:      rf.URL,
			MimeType: rf.MimeType,
			Quality:  rf.QualityLabel,
			Bitrate:  rf.Bitrate,
			Width:    rf.Width,
			Height:   rf.Height,
		}
		if f.URL == "" {
			if rf.SignatureCipher != "" {
				f.SignatureCipher = rf.SignatureCipher
			} else {
				f.SignatureCipher = rf.Cipher
			}
		}
		if v, err := strconv.ParseInt(rf.ContentLength, 10, 64); err == nil {
			f.Size = v
		}
		f.HasVideo, f.HasAudio = types.CapsFromMime(rf.MimeType)
		m.Formats = append(m.Formats, f)
	}
	return m, nil
}

func extractPlayerResponse(pageHTML string) (*playerResponse, bool) {
	for _, anchor := range playerResponseAnchors {
		for _, loc := range anchor.FindAllStringIndex(pageHTML, -1) {
			open := strings.IndexByte(pageHTML[loc[1]:], '{')
			if open < 0 {
				continue
			}
			blob, err := textscan.Balanced(pageHTML, loc[1]+open)
			if err != nil {
				continue
			}
			var pr playerResponse
			if err := json.Unmarshal([]byte(blob), &pr); err != nil {
				continue
			}
			if pr.VideoDetails.VideoID == "" && len(pr.StreamingData.Formats)+len(pr.StreamingData.AdaptiveFormats) == 0 &&
				pr.PlayabilityStatus.Status == "" {
				continue
			}
			return &pr, true
		}
	}
	return nil, false
}

func mapPlayability(pr *playerResponse) error {
	status := strings.ToUpper(pr.PlayabilityStatus.Status)
	reason := strings.ToLower(pr.PlayabilityStatus.Reason)
	switch status {
	case "", "OK", "LIVE_STREAM_OFFLINE":
		return nil
	case "LOGIN_REQUIRED":
		return errs.ErrLoginRequired
	case "UNPLAYABLE":
		if strings.Contains(reason, "private") {
			return errs.ErrPrivate
		}
		return errs.ErrVideoUnavailable
	case "ERROR":
		if strings.Contains(reason, "geograph") || strings.Contains(reason, "available in your country") {
			return errs.ErrGeoBlocked
		}
		if strings.Contains(reason, "rate limit") || strings.Contains(reason, "quota") {
			return errs.ErrRateLimited
		}
		return errs.ErrVideoUnavailable
	default:
		return fmt.Errorf("%w: playability %s", errs.ErrVideoUnavailable, status)
	}
}

func findPlayerJSURL(pageHTML string) string {
	if m := jsURLRe.FindStringSubmatch(pageHTML); len(m) == 2 {
		return resolveJSURL(strings.ReplaceAll(m[1], `\/`, `/`))
	}
	if m := playerPathRe.FindStringSubmatch(pageHTML); len(m) == 2 {
		return resolveJSURL(m[1])
	}
	return ""
}

func resolveJSURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return ytBase + u
}

// findCommentsToken digs the initial comments continuation out of the page's
// ytInitialData blob. Empty when the page carries none (comments disabled,
// or a non-watch page).
func findCommentsToken(pageHTML string) string {
	for _, anchor := range initialDataAnchors {
		loc := anchor.FindStringIndex(pageHTML)
		if loc == nil {
			continue
		}
		open := strings.IndexByte(pageHTML[loc[1]:], '{')
		if open < 0 {
			continue
		}
		blob, err := textscan.Balanced(pageHTML, loc[1]+open)
		if err != nil {
			continue
		}
		var root any
		if err := json.Unmarshal([]byte(blob), &root); err != nil {
			continue
		}
		if tok := findSectionToken(root, "comment-item-section"); tok != "" {
			return tok
		}
	}
	return ""
}

// findSectionToken walks a generic JSON tree looking for an itemSectionRenderer
// with the given sectionIdentifier and returns its continuation token.
func findSectionToken(node any, section string) string {
	switch v := node.(type) {
	case map[string]any:
		if r, ok := v["itemSectionRenderer"].(map[string]any); ok {
			if id, _ := r["sectionIdentifier"].(string); id == section {
				if tok := firstContinuationToken(r); tok != "" {
					return tok
				}
			}
		}
		for _, val := range v {
			if tok := findSectionToken(val, section); tok != "" {
				return tok
			}
		}
	case []any:
		for _, val := range v {
			if tok := findSectionToken(val, section); tok != "" {
				return tok
			}
		}
	}
	return ""
}

func firstContinuationToken(node any) string {
	switch v := node.(type) {
	case map[string]any:
		if cc, ok := v["continuationCommand"].(map[string]any); ok {
			if tok, ok := cc["token"].(string); ok && tok != "" {
				return tok
			}
		}
		for _, val := range v {
			if tok := firstContinuationToken(val); tok != "" {
				return tok
			}
		}
	case []any:
		for _, val := range v {
			if tok := firstContinuationToken(val); tok != "" {
				return tok
			}
		}
	}
	return ""
}
