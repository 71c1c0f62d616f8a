package ytstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ytget/ytstream/playercache"
	"github.com/ytget/ytstream/types"
	"github.com/ytget/ytstream/youtube/formats"
)

const testPlayerJS = `var Bp={wM:function(a){a.reverse()}};
var hD=function(a){a=a.split("");Bp.wM(a,3);return a.join("")};
var pW=function(a){var b=a.split("");b.reverse();return b.join("")};
xa&&(c=xa.get("n"))&&(c=pW(c),xa.set("n",c));`

const testPlayerPath = "/s/player/abc123/player_ias.vflset/en_US/base.js"

func watchPage(playerJSURL string) string {
	cipher := "s=abcd&sp=sig&url=" + url.QueryEscape("https://example.com/video")
	return fmt.Sprintf(`<!DOCTYPE html><html><head><script>
var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"videoDetails":{"videoId":"dQw4w9WgXcQ","title":"Test Video","author":"Test Channel","lengthSeconds":"212"},"streamingData":{"expiresInSeconds":"21540","formats":[{"itag":22,"signatureCipher":%q,"mimeType":"video/mp4; codecs=\"avc1.64001F, mp4a.40.2\"","qualityLabel":"720p","bitrate":1000000,"width":1280,"height":720}]}};
var ytInitialData = {"contents":{"itemSectionRenderer":{"sectionIdentifier":"comment-item-section","continuations":[{"continuationCommand":{"token":"COMMENTS_TOKEN"}}]}}};
</script><script>"jsUrl":%q</script></head><body></body></html>`, cipher, playerJSURL)
}

func extractorServer(t *testing.T) (*Extractor, *httptest.Server) {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/watch"):
			fmt.Fprint(w, watchPage(srv.URL+testPlayerPath))
		case r.URL.Path == testPlayerPath:
			fmt.Fprint(w, testPlayerJS)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	e := New().
		WithHTTPClient(srv.Client()).
		WithBaseURL(srv.URL).
		WithCache(playercache.NewMemoryCache(time.Hour))
	return e, srv
}

func TestExtract(t *testing.T) {
	e, _ := extractorServer(t)

	info, err := e.Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if info.ID != "dQw4w9WgXcQ" || info.Title != "Test Video" || info.Author != "Test Channel" {
		t.Errorf("metadata = %+v", info)
	}
	if info.Duration != 212 {
		t.Errorf("Duration = %d, want 212", info.Duration)
	}
	if info.ExpiresIn != 21540*time.Second {
		t.Errorf("ExpiresIn = %v", info.ExpiresIn)
	}
	if info.CommentsToken != "COMMENTS_TOKEN" {
		t.Errorf("CommentsToken = %q", info.CommentsToken)
	}

	if len(info.Formats) != 1 {
		t.Fatalf("expected 1 format, got %d", len(info.Formats))
	}
	f := info.Formats[0]
	if want := "https://example.com/video?sig=dcba"; f.URL != want {
		t.Errorf("resolved URL = %q, want %q", f.URL, want)
	}
	if !f.HasVideo || !f.HasAudio {
		t.Errorf("caps = video %v audio %v, want combined", f.HasVideo, f.HasAudio)
	}
}

func TestExtractUserAgentPropagates(t *testing.T) {
	const ua = "custom-agent/1.0"
	agents := map[string]string{}
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents[r.URL.Path] = r.Header.Get("User-Agent")
		switch {
		case strings.HasPrefix(r.URL.Path, "/watch"):
			fmt.Fprint(w, watchPage(srv.URL+testPlayerPath))
		case r.URL.Path == testPlayerPath:
			fmt.Fprint(w, testPlayerJS)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	e := New().
		WithHTTPClient(srv.Client()).
		WithBaseURL(srv.URL).
		WithCache(playercache.NewMemoryCache(time.Hour)).
		WithUserAgent(ua)

	if _, err := e.Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ"); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// Every outbound request honors the configured agent, the player-script
	// fetch included.
	for _, path := range []string{"/watch", testPlayerPath} {
		if got := agents[path]; got != ua {
			t.Errorf("UA for %s = %q, want %q", path, got, ua)
		}
	}
}

func TestExtractBadURL(t *testing.T) {
	e := New()
	if _, err := e.Extract(context.Background(), "https://example.com/not-youtube"); err == nil {
		t.Fatal("expected error for non-video URL")
	}
}

func TestSelectFormatFacade(t *testing.T) {
	e := New()
	fs := []types.Format{
		{Itag: 22, Height: 720, Bitrate: 1000, HasVideo: true, HasAudio: true, URL: "https://example.com/v"},
		{Itag: 140, Bitrate: 128, HasAudio: true, URL: "https://example.com/a"},
	}
	choice, err := e.SelectFormat(fs, formats.BestSelection())
	if err != nil {
		t.Fatalf("SelectFormat: %v", err)
	}
	if choice.Video == nil || choice.Video.Itag != 22 || choice.NeedsMux {
		t.Errorf("choice = %+v", choice)
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"shorts", "https://www.youtube.com/shorts/abc123XYZ_-", "abc123XYZ_-", false},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"missing v", "https://www.youtube.com/watch", "", true},
		{"other site", "https://example.com/watch?v=x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractVideoID(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractVideoID: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
