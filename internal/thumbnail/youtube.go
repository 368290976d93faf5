package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/ayush/vidvault/internal/storage"
)

const (
	fetchTimeout = 10 * time.Second
	jpegQuality  = 85
	tsLayout     = "20060102150405"

	// FallbackTitle is used when the oEmbed lookup fails.
	FallbackTitle = "YouTube Video"

	// Candidates at or under this size are placeholder stubs YouTube serves
	// with a 200 for videos that never had the variant.
	minThumbnailBytes = 1000
)

// ErrUnrecognizedURL means the input matched none of the known URL shapes.
var ErrUnrecognizedURL = errors.New("unrecognized YouTube URL")

// thumbnailVariants is the fixed candidate list, best resolution first.
var thumbnailVariants = []string{
	"maxresdefault",
	"sddefault",
	"hqdefault",
	"mqdefault",
	"default",
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/watch\?.*v=([A-Za-z0-9_-]{11})`),
}

// ExtractVideoID pulls the 11-character video identifier out of a watch,
// youtu.be or embed URL.
func ExtractVideoID(rawURL string) (string, bool) {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Result is the outcome of thumbnail acquisition. An empty Thumbnail with a
// non-empty Title is "success without thumbnail": the video is still worth
// recording.
type Result struct {
	Thumbnail string // stored filename, empty when no candidate was usable
	Title     string
}

// Fetcher acquires thumbnails, from YouTube or from uploaded files, and
// persists them to the thumbnail store.
type Fetcher struct {
	http   *http.Client
	thumbs storage.Store

	oembedBase string
	imageBase  string
	ffprobe    string
	ffmpeg     string
	now        func() time.Time
}

func NewFetcher(thumbs storage.Store) *Fetcher {
	return &Fetcher{
		http:       &http.Client{Timeout: fetchTimeout},
		thumbs:     thumbs,
		oembedBase: "https://www.youtube.com/oembed",
		imageBase:  "https://img.youtube.com",
		ffprobe:    "ffprobe",
		ffmpeg:     "ffmpeg",
		now:        time.Now,
	}
}

// FromYouTube acquires a thumbnail and title for a user-supplied URL.
// The only hard failure is an unrecognized URL; upstream trouble degrades to
// a fallback title and/or an empty thumbnail.
func (f *Fetcher) FromYouTube(ctx context.Context, rawURL string) (Result, error) {
	id, ok := ExtractVideoID(rawURL)
	if !ok {
		return Result{}, ErrUnrecognizedURL
	}

	title := f.fetchTitle(ctx, id)

	for _, variant := range thumbnailVariants {
		name, err := f.tryCandidate(ctx, id, variant)
		if err != nil {
			continue
		}
		return Result{Thumbnail: name, Title: title}, nil
	}
	return Result{Title: title}, nil
}

// fetchTitle asks the oEmbed endpoint for the video's display title.
// Any failure falls back to a generic title.
func (f *Fetcher) fetchTitle(ctx context.Context, videoID string) string {
	watchURL := "https://www.youtube.com/watch?v=" + videoID
	oembedURL := fmt.Sprintf("%s?url=%s&format=json", f.oembedBase, url.QueryEscape(watchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedURL, nil)
	if err != nil {
		return FallbackTitle
	}
	resp, err := f.http.Do(req)
	if err != nil {
		log.Printf("oembed lookup for %s: %v", videoID, err)
		return FallbackTitle
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("oembed lookup for %s: status %d", videoID, resp.StatusCode)
		return FallbackTitle
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Title == "" {
		return FallbackTitle
	}
	return payload.Title
}

// tryCandidate downloads one thumbnail variant and, if acceptable,
// re-encodes it as JPEG and persists it.
func (f *Fetcher) tryCandidate(ctx context.Context, videoID, variant string) (string, error) {
	candidateURL := fmt.Sprintf("%s/vi/%s/%s.jpg", f.imageBase, videoID, variant)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidateURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: status %d", variant, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if len(body) <= minThumbnailBytes {
		return "", fmt.Errorf("%s: %d bytes, placeholder", variant, len(body))
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: decode: %w", variant, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", err
	}

	name := fmt.Sprintf("yt_%s_%s.jpg", videoID, f.now().Format(tsLayout))
	if err := f.thumbs.Save(ctx, name, &buf, int64(buf.Len()), "image/jpeg"); err != nil {
		return "", err
	}
	return name, nil
}
