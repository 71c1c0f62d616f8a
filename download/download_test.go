package download

import (
	"bytes"
	"context"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func testPayload(t *testing.T, size int) []byte {
	t.Helper()
	payload := make([]byte, size)
	if _, err := rand.Read(payload); err != nil {
		t.Fatalf("generate payload: %v", err)
	}
	return payload
}

func rangedServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "media.mp4", time.Unix(0, 0), bytes.NewReader(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownload(t *testing.T) {
	payload := testPayload(t, 100*1024)
	srv := rangedServer(t, payload)
	outPath := filepath.Join(t.TempDir(), "out.mp4")

	var progress []Progress
	d := New(srv.Client()).
		WithChunkSize(16 * 1024).
		WithProgress(func(p Progress) { progress = append(progress, p) })

	if err := d.Download(context.Background(), srv.URL, outPath); err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("output differs from payload: got %d bytes, want %d", len(got), len(payload))
	}
	if _, err := os.Stat(outPath + tmpSuffix); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	if len(progress) == 0 {
		t.Fatal("no progress reported")
	}
	last := progress[len(progress)-1]
	if last.DownloadedSize != int64(len(payload)) || last.Percent != 100 {
		t.Errorf("final progress = %+v", last)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i].DownloadedSize < progress[i-1].DownloadedSize {
			t.Fatal("progress went backwards")
		}
	}
}

func TestDownloadResume(t *testing.T) {
	payload := testPayload(t, 64*1024)
	half := len(payload) / 2

	var firstRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if firstRange == "" {
			firstRange = r.Header.Get("Range")
		}
		http.ServeContent(w, r, "media.mp4", time.Unix(0, 0), bytes.NewReader(payload))
	}))
	defer srv.Close()

	outPath := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(outPath+tmpSuffix, payload[:half], 0o644); err != nil {
		t.Fatalf("seed partial file: %v", err)
	}

	d := New(srv.Client()).WithChunkSize(16 * 1024)
	if err := d.Download(context.Background(), srv.URL, outPath); err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("resumed output differs from payload")
	}
}

func TestDownloadResumeRejectsIgnoredRange(t *testing.T) {
	payload := testPayload(t, 32*1024)
	half := len(payload) / 2

	// Announces a total size but ignores Range, always serving the full body.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer srv.Close()

	outPath := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(outPath+tmpSuffix, payload[:half], 0o644); err != nil {
		t.Fatalf("seed partial file: %v", err)
	}

	err := New(srv.Client()).Download(context.Background(), srv.URL, outPath)
	if err == nil {
		t.Fatal("expected error when the server ignores the resume range")
	}
	if _, statErr := os.Stat(outPath); !os.IsNotExist(statErr) {
		t.Error("output file created from a corrupt resume")
	}
	got, readErr := os.ReadFile(outPath + tmpSuffix)
	if readErr != nil {
		t.Fatalf("read partial file: %v", readErr)
	}
	if !bytes.Equal(got, payload[:half]) {
		t.Error("partial file modified despite rejected response")
	}
}

func TestDownloadUnknownSize(t *testing.T) {
	payload := testPayload(t, 8*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No range support, length hidden behind chunked encoding.
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		w.Write(payload[:4096])
		flusher.Flush()
		w.Write(payload[4096:])
	}))
	defer srv.Close()

	outPath := filepath.Join(t.TempDir(), "out.mp4")
	if err := New(srv.Client()).Download(context.Background(), srv.URL, outPath); err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("output differs from payload")
	}
}

func TestDownloadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	outPath := filepath.Join(t.TempDir(), "out.mp4")
	if err := New(srv.Client()).Download(context.Background(), srv.URL, outPath); err == nil {
		t.Fatal("expected error for failing server")
	}
}
