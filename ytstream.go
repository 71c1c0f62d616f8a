// Package ytstream extracts playable stream URLs and page metadata from
// YouTube watch pages: manifest parsing, player-script function extraction,
// sandboxed signature deciphering, quality selection, and comment/playlist
// pagination.
package ytstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ytget/ytstream/client"
	"github.com/ytget/ytstream/playercache"
	"github.com/ytget/ytstream/types"
	"github.com/ytget/ytstream/youtube/formats"
	"github.com/ytget/ytstream/youtube/innertube"
	"github.com/ytget/ytstream/youtube/manifest"
)

const defaultBaseURL = "https://www.youtube.com"

// VideoInfo contains video metadata and the resolved format list.
type VideoInfo struct {
	ID            string
	Title         string
	Author        string
	Duration      int
	Formats       []types.Format
	ExpiresIn     time.Duration
	CommentsToken string
}

// Extractor provides the high-level extraction API. Configure it with the
// chainable With* setters, then call Extract or the lower-level operations.
type Extractor struct {
	httpClient *http.Client
	cache      playercache.Cache
	cacheTTL   time.Duration
	baseURL    string
	timeout    time.Duration
	userAgent  string
	proxyURL   string
	retries    int
}

// New creates an Extractor with default options: retrying HTTP client,
// in-memory player function cache.
func New() *Extractor {
	return &Extractor{baseURL: defaultBaseURL}
}

// WithHTTPClient sets a custom HTTP client for all network calls.
func (e *Extractor) WithHTTPClient(c *http.Client) *Extractor {
	e.httpClient = c
	return e
}

// WithCache sets the player function cache implementation.
func (e *Extractor) WithCache(c playercache.Cache) *Extractor {
	e.cache = c
	return e
}

// WithCacheTTL sets the TTL used when the default cache is built.
func (e *Extractor) WithCacheTTL(ttl time.Duration) *Extractor {
	e.cacheTTL = ttl
	return e
}

// WithBaseURL overrides the site origin.
func (e *Extractor) WithBaseURL(base string) *Extractor {
	if strings.TrimSpace(base) != "" {
		e.baseURL = strings.TrimRight(base, "/")
	}
	return e
}

// WithTimeout bounds each outbound request.
func (e *Extractor) WithTimeout(d time.Duration) *Extractor {
	e.timeout = d
	return e
}

// WithUserAgent overrides the User-Agent header.
func (e *Extractor) WithUserAgent(ua string) *Extractor {
	e.userAgent = ua
	return e
}

// WithProxy routes requests through the given proxy URL.
func (e *Extractor) WithProxy(proxyURL string) *Extractor {
	e.proxyURL = proxyURL
	return e
}

// WithRetries sets the retry count for transient upstream failures.
func (e *Extractor) WithRetries(n int) *Extractor {
	e.retries = n
	return e
}

// Extract fetches the watch page for videoURL, parses its streaming manifest
// and resolves every format into a playable URL.
func (e *Extractor) Extract(ctx context.Context, videoURL string) (*VideoInfo, error) {
	videoID, err := extractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	page, err := e.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Parse(page)
	if err != nil {
		return nil, err
	}

	resolved, err := e.ResolveFormats(ctx, m)
	if err != nil {
		return nil, err
	}

	return &VideoInfo{
		ID:            m.VideoID,
		Title:         m.Title,
		Author:        m.Author,
		Duration:      m.Duration,
		Formats:       resolved,
		ExpiresIn:     m.ExpiresIn,
		CommentsToken: m.CommentsToken,
	}, nil
}

// ParseManifest parses a watch-page payload into a streaming manifest.
func (e *Extractor) ParseManifest(pageHTML string) (*types.StreamingManifest, error) {
	return manifest.Parse(pageHTML)
}

// ResolveFormats turns the manifest's formats into directly playable URLs.
func (e *Extractor) ResolveFormats(ctx context.Context, m *types.StreamingManifest) ([]types.Format, error) {
	return e.resolver().ResolveFormats(ctx, m)
}

// SelectFormat picks streams from a resolved format list.
func (e *Extractor) SelectFormat(fs []types.Format, sel formats.Selection) (*formats.Choice, error) {
	return formats.Select(fs, sel)
}

// CommentsPage fetches one page of comment threads for a continuation token.
// The initial token comes from VideoInfo.CommentsToken.
func (e *Extractor) CommentsPage(ctx context.Context, token string, sort types.CommentSort) (*types.CommentsPage, error) {
	return e.innertube().CommentsPage(ctx, token, sort)
}

// PlaylistPage fetches one page of playlist entries. Pass an empty token for
// the first page and the returned NextToken verbatim thereafter.
func (e *Extractor) PlaylistPage(ctx context.Context, playlistID, token string) (*types.PlaylistPage, error) {
	return e.innertube().PlaylistPage(ctx, playlistID, token)
}

func (e *Extractor) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	c := e.client()
	resp, err := c.Get(ctx, e.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return "", fmt.Errorf("fetch watch page: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read watch page: %w", err)
	}
	return string(body), nil
}

func (e *Extractor) client() *client.Client {
	c := client.NewWith(client.Config{
		Timeout:   e.timeout,
		Retries:   e.retries,
		UserAgent: e.userAgent,
		ProxyURL:  e.proxyURL,
	})
	if e.httpClient != nil {
		c.HTTPClient = e.httpClient
	}
	return c
}

func (e *Extractor) resolver() *formats.Resolver {
	if e.cache == nil {
		e.cache = playercache.NewMemoryCache(e.cacheTTL)
	}
	c := e.client()
	r := formats.NewResolver(c.HTTPClient, e.cache)
	r.UserAgent = c.UserAgent
	return r
}

func (e *Extractor) innertube() *innertube.Client {
	c := e.client()
	return innertube.New(c.HTTPClient).WithBaseURL(e.baseURL).WithUserAgent(c.UserAgent)
}

func extractVideoID(videoURL string) (string, error) {
	u, err := url.Parse(videoURL)
	if err != nil {
		return "", fmt.Errorf("parse video url: %w", err)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtu.be":
		if id := strings.TrimPrefix(u.Path, "/"); id != "" {
			return id, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case strings.HasPrefix(u.Path, "/watch"):
			if id := u.Query().Get("v"); id != "" {
				return id, nil
			}
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/live/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 && parts[1] != "" {
				return parts[1], nil
			}
		}
	default:
		// Bare IDs are accepted as a convenience.
		if u.Scheme == "" && u.Host == "" && !strings.Contains(videoURL, "/") && videoURL != "" {
			return videoURL, nil
		}
	}
	return "", fmt.Errorf("unsupported video url: %s", videoURL)
}
