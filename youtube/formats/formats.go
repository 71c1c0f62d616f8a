// Package formats turns manifest format entries into playable URLs and
// selects streams by quality.
package formats

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ytget/ytstream/errs"
	"github.com/ytget/ytstream/internal/logger"
	"github.com/ytget/ytstream/playercache"
	"github.com/ytget/ytstream/types"
	"github.com/ytget/ytstream/youtube/jsexec"
	"github.com/ytget/ytstream/youtube/playerjs"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"

// Resolver resolves the formats of a streaming manifest into directly
// playable URLs: deciphered signatures attached, n parameter transformed.
type Resolver struct {
	HTTPClient *http.Client
	Cache      playercache.Cache
	UserAgent  string

	log *logger.ComponentLogger
}

// NewResolver creates a resolver. A nil httpClient falls back to
// http.DefaultClient; a nil cache falls back to an in-memory cache.
func NewResolver(httpClient *http.Client, cache playercache.Cache) *Resolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cache == nil {
		cache = playercache.NewMemoryCache(playercache.DefaultTTL)
	}
	return &Resolver{
		HTTPClient: httpClient,
		Cache:      cache,
		log:        logger.WithComponent(logger.ComponentFormats),
	}
}

func (r *Resolver) logger() *logger.ComponentLogger {
	if r.log == nil {
		r.log = logger.WithComponent(logger.ComponentFormats)
	}
	return r.log
}

// ResolveFormats processes every format of the manifest in declaration order.
// Formats whose processing fails are logged and dropped; zero survivors from a
// non-empty manifest is reported as errs.ErrNoPlayableFormats.
func (r *Resolver) ResolveFormats(ctx context.Context, m *types.StreamingManifest) ([]types.Format, error) {
	if m == nil || len(m.Formats) == 0 {
		return nil, nil
	}

	decipher, ntransform, err := r.transforms(ctx, m)
	if err != nil {
		return nil, err
	}

	resolved := make([]types.Format, 0, len(m.Formats))
	for _, f := range m.Formats {
		out, err := resolveFormat(f, decipher, ntransform)
		if err != nil {
			r.logger().Warn("dropping format", map[string]any{"itag": f.Itag, "error": err.Error()})
			continue
		}
		resolved = append(resolved, out)
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("resolve formats for %s: %w", m.VideoID, errs.ErrNoPlayableFormats)
	}
	return resolved, nil
}

// transforms compiles the decipher and n-transform functions for the
// manifest's player version, once per invocation. When no format needs the
// player script, nothing is fetched. A missing or broken n-transform degrades
// to the identity transform; a missing decipher is fatal when any format
// carries a cipher.
func (r *Resolver) transforms(ctx context.Context, m *types.StreamingManifest) (decipher, ntransform jsexec.Transform, err error) {
	needCipher := false
	for _, f := range m.Formats {
		if f.URL == "" && f.SignatureCipher != "" {
			needCipher = true
			break
		}
	}
	if !needCipher && !anyDirectN(m.Formats) {
		return nil, jsexec.Identity(), nil
	}

	set, err := r.playerFunctions(ctx, m.PlayerJSURL)
	if err != nil {
		if needCipher {
			return nil, nil, err
		}
		// Only n parameters need the script; degraded playback beats none.
		r.logger().Warn("player functions unavailable, keeping original n values", map[string]any{"error": err.Error()})
		return nil, jsexec.Identity(), nil
	}

	if needCipher {
		decipher, err = jsexec.Compile(set.DecipherSource, set.DecipherEntry)
		if err != nil {
			return nil, nil, fmt.Errorf("compile decipher (player %s): %w", set.Version, err)
		}
	}

	ntransform = jsexec.Identity()
	if set.NTransformSource != "" {
		nt, err := jsexec.Compile(set.NTransformSource, set.NTransformEntry)
		if err != nil {
			r.logger().Warn("n-transform compile failed, using identity", map[string]any{"player": set.Version, "error": err.Error()})
		} else {
			ntransform = nt
		}
	}
	return decipher, ntransform, nil
}

// playerFunctions returns the extracted function set for the player script,
// consulting the cache first. The cache is not written when the fetch or the
// decipher extraction fails.
func (r *Resolver) playerFunctions(ctx context.Context, playerJSURL string) (types.PlayerFunctionSet, error) {
	version, err := playerjs.Version(playerJSURL)
	if err != nil {
		return types.PlayerFunctionSet{}, err
	}
	if r.Cache == nil {
		r.Cache = playercache.NewMemoryCache(playercache.DefaultTTL)
	}
	if set, ok := r.Cache.Get(version); ok {
		r.logger().Debug("player function cache hit", map[string]any{"player": version})
		return set, nil
	}

	js, err := r.fetchPlayerJS(ctx, playerJSURL)
	if err != nil {
		return types.PlayerFunctionSet{}, err
	}

	decFn, err := playerjs.ExtractDecipher(js)
	if err != nil {
		return types.PlayerFunctionSet{}, err
	}
	set := types.PlayerFunctionSet{
		Version:        version,
		DecipherSource: playerjs.Build(playerjs.DecipherEntry, decFn),
		DecipherEntry:  playerjs.DecipherEntry,
		ExtractedAt:    time.Now(),
	}

	if nFn, err := playerjs.ExtractNTransform(js); err != nil {
		r.logger().Warn("n-transform not found in player script", map[string]any{"player": version, "error": err.Error()})
	} else {
		set.NTransformSource = playerjs.Build(playerjs.NTransformEntry, nFn)
		set.NTransformEntry = playerjs.NTransformEntry
	}

	r.Cache.Put(version, set)
	return set, nil
}

func (r *Resolver) fetchPlayerJS(ctx context.Context, playerJSURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playerJSURL, nil)
	if err != nil {
		return "", fmt.Errorf("build player script request: %w", err)
	}
	ua := r.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	hc := r.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch player script: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch player script: status %d: %w", resp.StatusCode, errs.ErrUpstream)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read player script: %w", err)
	}
	return string(body), nil
}

// resolveFormat produces a playable copy of f. Ciphered formats get the
// deciphered signature attached under the sp parameter; the n query parameter
// is rewritten through ntransform, keeping the original value when the
// transform fails.
func resolveFormat(f types.Format, decipher, ntransform jsexec.Transform) (types.Format, error) {
	switch {
	case f.URL != "":
		u, err := url.Parse(f.URL)
		if err != nil {
			return types.Format{}, fmt.Errorf("parse direct url: %w", err)
		}
		f.URL = rewriteN(u, ntransform)
		return f, nil

	case f.SignatureCipher != "":
		if decipher == nil {
			return types.Format{}, fmt.Errorf("format %d: no decipher function available", f.Itag)
		}
		cipher, err := url.ParseQuery(f.SignatureCipher)
		if err != nil {
			return types.Format{}, fmt.Errorf("parse signatureCipher: %w", err)
		}
		sig := cipher.Get("s")
		baseURL := cipher.Get("url")
		if sig == "" || baseURL == "" {
			return types.Format{}, fmt.Errorf("signatureCipher missing s or url")
		}
		sp := cipher.Get("sp")
		if sp == "" {
			sp = "signature"
		}
		deciphered, err := decipher(sig)
		if err != nil {
			return types.Format{}, fmt.Errorf("decipher signature: %w", err)
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return types.Format{}, fmt.Errorf("parse cipher url: %w", err)
		}
		q := u.Query()
		q.Set(sp, deciphered)
		u.RawQuery = q.Encode()
		f.URL = rewriteN(u, ntransform)
		f.SignatureCipher = ""
		return f, nil

	default:
		return types.Format{}, fmt.Errorf("format %d has neither url nor signatureCipher", f.Itag)
	}
}

// rewriteN passes the n query parameter through the transform. URLs without
// an n parameter are returned untouched; a failing transform keeps the
// original value.
func rewriteN(u *url.URL, ntransform jsexec.Transform) string {
	q := u.Query()
	nval := q.Get("n")
	if nval == "" || ntransform == nil {
		return u.String()
	}
	nout, err := ntransform(nval)
	if err != nil || nout == "" {
		logger.WithComponent(logger.ComponentFormats).Warn("n-transform failed, keeping original value", map[string]any{"error": fmt.Sprint(err)})
		return u.String()
	}
	q.Set("n", nout)
	u.RawQuery = q.Encode()
	return u.String()
}

func anyDirectN(formats []types.Format) bool {
	for _, f := range formats {
		if f.URL == "" {
			continue
		}
		if u, err := url.Parse(f.URL); err == nil && u.Query().Get("n") != "" {
			return true
		}
	}
	return false
}
