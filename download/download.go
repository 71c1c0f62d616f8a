// Package download fetches resolved media URLs with chunked ranged requests,
// resume from partial files, optional rate limiting and progress reporting.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ytget/ytstream/internal/logger"
)

const (
	defaultChunkSize = int64(1 << 20) // 1MB
	defaultRetries   = 3
	tmpSuffix        = ".tmp"
	initialBackoff   = 200 * time.Millisecond
	maxBackoff       = 3 * time.Second
	copyBufferSize   = 32 * 1024

	userAgentValue = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
)

// Progress holds information about download progress.
type Progress struct {
	TotalSize      int64
	DownloadedSize int64
	Percent        float64
}

// Downloader fetches media files in ranged chunks with retry/backoff.
type Downloader struct {
	Client       *http.Client
	ProgressFunc func(Progress)

	chunkSize    int64
	maxRetries   int
	rateLimitBps int64
	log          *logger.ComponentLogger
}

// New creates a downloader with sane defaults. A nil client falls back to
// http.DefaultClient.
func New(client *http.Client) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		Client:     client,
		chunkSize:  defaultChunkSize,
		maxRetries: defaultRetries,
		log:        logger.WithComponent(logger.ComponentDownload),
	}
}

// WithChunkSize overrides the per-request range size.
func (d *Downloader) WithChunkSize(n int64) *Downloader {
	if n > 0 {
		d.chunkSize = n
	}
	return d
}

// WithRateLimit caps throughput in bytes per second. 0 disables limiting.
func (d *Downloader) WithRateLimit(bps int64) *Downloader {
	d.rateLimitBps = bps
	return d
}

// WithProgress registers a progress callback.
func (d *Downloader) WithProgress(fn func(Progress)) *Downloader {
	d.ProgressFunc = fn
	return d
}

// Download fetches urlStr into outputPath. A partial <outputPath>.tmp from an
// earlier run is resumed; the finished file is moved into place atomically.
func (d *Downloader) Download(ctx context.Context, urlStr, outputPath string) error {
	tmpPath := outputPath + tmpSuffix

	var out *os.File
	var err error
	if _, statErr := os.Stat(tmpPath); statErr == nil {
		out, err = os.OpenFile(tmpPath, os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open partial file: %w", err)
		}
		d.log.Debug("resuming partial download", map[string]any{"path": tmpPath})
	} else {
		out, err = os.Create(tmpPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
	}
	defer out.Close()

	info, err := out.Stat()
	if err != nil {
		return fmt.Errorf("stat output file: %w", err)
	}
	downloaded := info.Size()

	totalSize, err := d.probeSize(ctx, urlStr)
	if err != nil {
		d.log.Warn("total size unknown, streaming without ranges", map[string]any{"error": err.Error()})
		totalSize = 0
	}

	if totalSize == 0 {
		if err := d.streamAll(ctx, urlStr, out, &downloaded); err != nil {
			return err
		}
	} else {
		for downloaded < totalSize {
			end := downloaded + d.chunkSize - 1
			if end >= totalSize {
				end = totalSize - 1
			}
			if err := d.fetchChunk(ctx, urlStr, out, downloaded, end, totalSize, &downloaded); err != nil {
				return err
			}
		}
	}

	if downloaded == 0 {
		os.Remove(tmpPath)
		return fmt.Errorf("empty download: 0 bytes written")
	}
	return os.Rename(tmpPath, outputPath)
}

// probeSize issues a one-byte ranged request and reads the total from
// Content-Range, falling back to Content-Length on servers ignoring ranges.
func (d *Downloader) probeSize(ctx context.Context, urlStr string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return 0, err
	}
	d.setHeaders(req)
	req.Header.Set("Range", "bytes=0-0")

	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if cr := resp.Header.Get("Content-Range"); cr != "" {
		if i := strings.LastIndex(cr, "/"); i >= 0 {
			if v, err := strconv.ParseInt(cr[i+1:], 10, 64); err == nil {
				return v, nil
			}
		}
	}
	if resp.StatusCode == http.StatusOK {
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			if v, err := strconv.ParseInt(cl, 10, 64); err == nil {
				return v, nil
			}
		}
	}
	return 0, fmt.Errorf("cannot determine total size")
}

func (d *Downloader) fetchChunk(ctx context.Context, urlStr string, out *os.File, start, end, totalSize int64, downloaded *int64) error {
	var resp *http.Response
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return err
		}
		d.setHeaders(req)
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

		resp, lastErr = d.Client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusPartialContent ||
				(start == 0 && resp.StatusCode >= 200 && resp.StatusCode < 300) {
				break
			}
			if start > 0 && resp.StatusCode == http.StatusOK {
				// A full-body response appended mid-file corrupts the download.
				resp.Body.Close()
				return fmt.Errorf("download chunk %d-%d: server ignored range request", start, end)
			}
			lastErr = fmt.Errorf("HTTP status %d", resp.StatusCode)
			resp.Body.Close()
			resp = nil
		}
		d.log.Debug("chunk request failed", map[string]any{"attempt": attempt + 1, "error": lastErr.Error()})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	if resp == nil {
		return fmt.Errorf("download chunk %d-%d: %w", start, end, lastErr)
	}
	defer resp.Body.Close()
	return d.copyBody(resp.Body, out, totalSize, downloaded)
}

func (d *Downloader) streamAll(ctx context.Context, urlStr string, out *os.File, downloaded *int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}
	d.setHeaders(req)
	if *downloaded > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", *downloaded))
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("download: HTTP status %d", resp.StatusCode)
	}
	if *downloaded > 0 && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("download: server ignored range request (status %d)", resp.StatusCode)
	}
	return d.copyBody(resp.Body, out, 0, downloaded)
}

func (d *Downloader) copyBody(body io.Reader, out *os.File, totalSize int64, downloaded *int64) error {
	buf := make([]byte, copyBufferSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write chunk: %w", werr)
			}
			*downloaded += int64(n)
			if d.ProgressFunc != nil {
				p := Progress{TotalSize: totalSize, DownloadedSize: *downloaded}
				if totalSize > 0 {
					p.Percent = float64(*downloaded) / float64(totalSize) * 100
				}
				d.ProgressFunc(p)
			}
			d.sleepForRate(int64(n))
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("read response body: %w", rerr)
		}
	}
}

// sleepForRate enforces a simple rate limit based on bytes written in this step.
func (d *Downloader) sleepForRate(written int64) {
	if d.rateLimitBps <= 0 || written <= 0 {
		return
	}
	dur := time.Duration(int64(time.Second) * written / d.rateLimitBps)
	if dur > 0 {
		time.Sleep(dur)
	}
}

func (d *Downloader) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgentValue)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "identity")
}
