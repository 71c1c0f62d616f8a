package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ytget/ytstream"
	"github.com/ytget/ytstream/client"
	"github.com/ytget/ytstream/download"
	"github.com/ytget/ytstream/internal/mimeext"
	"github.com/ytget/ytstream/internal/sanitize"
	"github.com/ytget/ytstream/playercache"
	"github.com/ytget/ytstream/types"
	"github.com/ytget/ytstream/youtube/formats"
)

func main() {
	var (
		flagList       bool
		flagHeight     int
		flagAudioOnly  bool
		flagOutput     string
		flagNoProgress bool
		flagCacheDir   string
		flagCacheTTL   time.Duration
		flagTimeout    time.Duration
		flagRetries    int
		flagUA         string
		flagProxy      string
		flagRateLimit  string
		flagPlaylist   bool
		flagComments   bool
		flagNewest     bool
		flagPages      int
	)

	flag.BoolVar(&flagList, "list", false, "List resolved formats without downloading")
	flag.IntVar(&flagHeight, "height", 0, "Select a stream at exactly this height (e.g., 720)")
	flag.BoolVar(&flagAudioOnly, "audio-only", false, "Select the best audio-only stream")
	flag.StringVar(&flagOutput, "output", "", "Output path (file or directory). Empty derives from title + MIME")
	flag.BoolVar(&flagNoProgress, "no-progress", false, "Disable progress output")
	flag.StringVar(&flagCacheDir, "cache-dir", "", "Directory for the player function cache (empty keeps it in memory)")
	flag.DurationVar(&flagCacheTTL, "cache-ttl", playercache.DefaultTTL, "Player function cache TTL")
	flag.DurationVar(&flagTimeout, "http-timeout", 30*time.Second, "HTTP timeout (e.g., 30s, 1m)")
	flag.IntVar(&flagRetries, "retries", 3, "HTTP retries for transient errors")
	flag.StringVar(&flagUA, "ua", "", "Override User-Agent header")
	flag.StringVar(&flagProxy, "proxy", "", "Proxy URL (http/https/socks)")
	flag.StringVar(&flagRateLimit, "rate-limit", "", "Download rate limit (e.g., 2MiB/s, 500KiB/s)")
	flag.BoolVar(&flagPlaylist, "playlist", false, "Treat input as playlist URL or ID and list its entries")
	flag.BoolVar(&flagComments, "comments", false, "Print comments for the video")
	flag.BoolVar(&flagNewest, "newest", false, "Order comments newest first")
	flag.IntVar(&flagPages, "pages", 1, "Pages to fetch for playlist or comments listings")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <video_or_playlist_url>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := strings.TrimSpace(args[0])
	ctx := context.Background()

	e := ytstream.New().
		WithTimeout(flagTimeout).
		WithRetries(flagRetries).
		WithUserAgent(flagUA).
		WithProxy(flagProxy).
		WithCacheTTL(flagCacheTTL)
	if flagCacheDir != "" {
		fc, err := playercache.NewFileCache(flagCacheDir, flagCacheTTL)
		if err != nil {
			fatalf("Failed to open cache dir: %v", err)
		}
		e.WithCache(fc)
	}

	switch {
	case flagPlaylist:
		runPlaylist(ctx, e, input, flagPages)
	case flagComments:
		runComments(ctx, e, input, flagNewest, flagPages)
	default:
		runVideo(ctx, e, input, videoOptions{
			list:      flagList,
			height:    flagHeight,
			audioOnly: flagAudioOnly,
			output:    flagOutput,
			progress:  !flagNoProgress,
			rateLimit: parseRate(flagRateLimit),
			timeout:   flagTimeout,
			retries:   flagRetries,
			ua:        flagUA,
			proxy:     flagProxy,
		})
	}
}

type videoOptions struct {
	list      bool
	height    int
	audioOnly bool
	output    string
	progress  bool
	rateLimit int64
	timeout   time.Duration
	retries   int
	ua        string
	proxy     string
}

func runVideo(ctx context.Context, e *ytstream.Extractor, input string, opts videoOptions) {
	info, err := e.Extract(ctx, input)
	if err != nil {
		fatalf("Extraction failed: %v", err)
	}

	if opts.list {
		fmt.Printf("%s  %s (%ds)\n", info.ID, info.Title, info.Duration)
		fmt.Printf("%-6s %-12s %-28s %-10s %s\n", "itag", "quality", "mime", "bitrate", "size")
		for _, f := range info.Formats {
			mime := f.MimeType
			if i := strings.Index(mime, ";"); i >= 0 {
				mime = mime[:i]
			}
			fmt.Printf("%-6d %-12s %-28s %-10d %d\n", f.Itag, f.Quality, mime, f.Bitrate, f.Size)
		}
		return
	}

	sel := formats.BestSelection()
	if opts.audioOnly {
		sel = formats.AudioOnlySelection()
	} else if opts.height > 0 {
		sel = formats.HeightSelection(opts.height)
	}
	choice, err := e.SelectFormat(info.Formats, sel)
	if err != nil {
		fatalf("Format selection failed: %v", err)
	}

	httpClient := client.NewWith(client.Config{
		Timeout:   opts.timeout,
		Retries:   opts.retries,
		UserAgent: opts.ua,
		ProxyURL:  opts.proxy,
	}).HTTPClient
	dl := download.New(httpClient).WithRateLimit(opts.rateLimit)
	if opts.progress {
		dl.WithProgress(func(p download.Progress) {
			if p.TotalSize > 0 {
				fmt.Printf("Downloaded %.1f%%\r", p.Percent)
			}
		})
	}

	if choice.Audio != nil && choice.Video == nil {
		path := outputPath(opts.output, info.Title, choice.Audio.MimeType, "")
		if err := dl.Download(ctx, choice.Audio.URL, path); err != nil {
			fatalf("Download failed: %v", err)
		}
		fmt.Printf("\nSaved: %s\n", path)
		return
	}

	videoPath := outputPath(opts.output, info.Title, choice.Video.MimeType, "")
	if err := dl.Download(ctx, choice.Video.URL, videoPath); err != nil {
		fatalf("Download failed: %v", err)
	}
	fmt.Printf("\nSaved: %s\n", videoPath)

	if choice.NeedsMux && choice.Audio != nil {
		audioPath := outputPath(opts.output, info.Title, choice.Audio.MimeType, ".audio")
		if err := dl.Download(ctx, choice.Audio.URL, audioPath); err != nil {
			fatalf("Audio download failed: %v", err)
		}
		fmt.Printf("Saved: %s\n", audioPath)
		fmt.Println("Video and audio are separate streams; mux them with your tool of choice.")
	}
}

func runPlaylist(ctx context.Context, e *ytstream.Extractor, input string, pages int) {
	playlistID, err := parsePlaylistID(input)
	if err != nil {
		fatalf("Invalid playlist input: %v", err)
	}
	token := ""
	for page := 0; pages <= 0 || page < pages; page++ {
		p, err := e.PlaylistPage(ctx, playlistID, token)
		if err != nil {
			fatalf("Failed to fetch playlist page: %v", err)
		}
		for _, item := range p.Items {
			fmt.Printf("%4d  %s  %s\n", item.Index, item.VideoID, item.Title)
		}
		if p.NextToken == "" {
			return
		}
		token = p.NextToken
	}
}

func runComments(ctx context.Context, e *ytstream.Extractor, input string, newest bool, pages int) {
	info, err := e.Extract(ctx, input)
	if err != nil {
		fatalf("Extraction failed: %v", err)
	}
	if info.CommentsToken == "" {
		fatalf("No comments available for this video")
	}

	sort := types.SortTop
	if newest {
		sort = types.SortNewest
	}
	token := info.CommentsToken
	for page := 0; pages <= 0 || page < pages; page++ {
		p, err := e.CommentsPage(ctx, token, sort)
		if err != nil {
			fatalf("Failed to fetch comments page: %v", err)
		}
		for _, c := range p.Items {
			fmt.Printf("%s (%d likes, %s):\n  %s\n", c.Author, c.LikeCount, c.PublishedTime, c.Text)
		}
		if p.NextToken == "" {
			return
		}
		token = p.NextToken
	}
}

// outputPath derives the destination file. A directory output keeps the
// derived name inside it; suffix separates paired audio files.
func outputPath(output, title, mimeType, suffix string) string {
	ext := mimeext.ExtFromMime(mimeType)
	name := sanitize.ToSafeFilename(title+suffix, ext)
	if output == "" {
		return name
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, name)
	}
	if suffix != "" {
		return output + suffix
	}
	return output
}

// parseRate parses strings like "2MiB/s", "500KiB/s" into bytes per second.
func parseRate(s string) int64 {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "/S"))
	mul := int64(1)
	for _, suf := range []string{"KIB", "MIB", "GIB", "KB", "MB", "GB"} {
		if strings.HasSuffix(s, suf) {
			switch suf {
			case "KIB":
				mul = 1 << 10
			case "MIB":
				mul = 1 << 20
			case "GIB":
				mul = 1 << 30
			case "KB":
				mul = 1000
			case "MB":
				mul = 1000 * 1000
			case "GB":
				mul = 1000 * 1000 * 1000
			}
			s = strings.TrimSpace(strings.TrimSuffix(s, suf))
			break
		}
	}
	var val float64
	if _, err := fmt.Sscanf(s, "%f", &val); err != nil || val <= 0 {
		return 0
	}
	return int64(val * float64(mul))
}

func parsePlaylistID(input string) (string, error) {
	if input != "" && (strings.HasPrefix(input, "PL") || strings.HasPrefix(input, "UU") || strings.HasPrefix(input, "OLAK5uy_")) {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", err
	}
	if id := u.Query().Get("list"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("playlist id not found")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
