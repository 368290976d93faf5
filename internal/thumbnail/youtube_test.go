package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/vidvault/internal/storage"
)

const testID = "dQw4w9WgXcQ"

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", testID, true},
		{"https://youtu.be/dQw4w9WgXcQ", testID, true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", testID, true},
		{"https://www.youtube.com/watch?feature=shared&v=dQw4w9WgXcQ", testID, true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", testID, true},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", false},
		{"https://youtu.be/short", "", false},
		{"not a url at all", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractVideoID(tt.url)
		assert.Equal(t, tt.ok, ok, "url %q", tt.url)
		assert.Equal(t, tt.want, got, "url %q", tt.url)
	}
}

// testJPEG builds a noisy JPEG comfortably above the placeholder threshold.
func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 3), uint8(y * 5), uint8(x ^ y), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	require.Greater(t, buf.Len(), minThumbnailBytes)
	return buf.Bytes()
}

// upstream fakes the oEmbed endpoint and the thumbnail host in one server.
type upstream struct {
	mu       sync.Mutex
	requests []string
	handler  http.HandlerFunc
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.requests = append(u.requests, r.URL.Path)
	u.mu.Unlock()
	u.handler(w, r)
}

func (u *upstream) paths() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.requests...)
}

func newTestFetcher(t *testing.T, srv *httptest.Server) (*Fetcher, string) {
	t.Helper()
	dir := t.TempDir()
	thumbs, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	f := NewFetcher(thumbs)
	f.oembedBase = srv.URL + "/oembed"
	f.imageBase = srv.URL
	f.now = func() time.Time {
		return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	}
	return f, dir
}

func TestFromYouTube_CandidateOrder(t *testing.T) {
	good := testJPEG(t)
	up := &upstream{handler: func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oembed":
			w.Write([]byte(`{"title":"Test Video"}`))
		case "/vi/" + testID + "/maxresdefault.jpg":
			http.NotFound(w, r)
		case "/vi/" + testID + "/sddefault.jpg":
			w.Write([]byte("stub")) // 200 but under the size threshold
		case "/vi/" + testID + "/hqdefault.jpg":
			w.Write(good)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}}
	srv := httptest.NewServer(up)
	defer srv.Close()

	f, dir := newTestFetcher(t, srv)
	res, err := f.FromYouTube(context.Background(), "https://youtu.be/"+testID)
	require.NoError(t, err)

	assert.Equal(t, "Test Video", res.Title)
	assert.Equal(t, "yt_"+testID+"_20260826120000.jpg", res.Thumbnail)

	// max-res first, then descending quality, stopping at first acceptance.
	assert.Equal(t, []string{
		"/oembed",
		"/vi/" + testID + "/maxresdefault.jpg",
		"/vi/" + testID + "/sddefault.jpg",
		"/vi/" + testID + "/hqdefault.jpg",
	}, up.paths())

	// the persisted file is a decodable JPEG
	data, err := os.ReadFile(filepath.Join(dir, res.Thumbnail))
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestFromYouTube_AllCandidatesFail(t *testing.T) {
	up := &upstream{handler: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oembed" {
			w.Write([]byte(`{"title":"Test Video"}`))
			return
		}
		http.NotFound(w, r)
	}}
	srv := httptest.NewServer(up)
	defer srv.Close()

	f, _ := newTestFetcher(t, srv)
	res, err := f.FromYouTube(context.Background(), "https://youtu.be/"+testID)
	require.NoError(t, err)

	assert.Empty(t, res.Thumbnail)
	assert.Equal(t, "Test Video", res.Title)
	assert.Len(t, up.paths(), 1+len(thumbnailVariants))
}

func TestFromYouTube_TitleFallback(t *testing.T) {
	good := testJPEG(t)
	up := &upstream{handler: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oembed" {
			http.Error(w, "upstream sad", http.StatusInternalServerError)
			return
		}
		w.Write(good)
	}}
	srv := httptest.NewServer(up)
	defer srv.Close()

	f, _ := newTestFetcher(t, srv)
	res, err := f.FromYouTube(context.Background(), "https://www.youtube.com/watch?v="+testID)
	require.NoError(t, err)

	assert.Equal(t, FallbackTitle, res.Title)
	assert.NotEmpty(t, res.Thumbnail)
}

func TestFromYouTube_UnrecognizedURL(t *testing.T) {
	up := &upstream{handler: func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}}
	srv := httptest.NewServer(up)
	defer srv.Close()

	f, _ := newTestFetcher(t, srv)
	res, err := f.FromYouTube(context.Background(), "https://vimeo.com/12345")
	assert.ErrorIs(t, err, ErrUnrecognizedURL)
	assert.Empty(t, res.Thumbnail)
	assert.Empty(t, res.Title)
	assert.Empty(t, up.paths())
}

func TestFromYouTube_UndersizedPayloadRejected(t *testing.T) {
	small := testJPEG(t)[:minThumbnailBytes] // valid-ish bytes, one too few
	up := &upstream{handler: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oembed" {
			w.Write([]byte(`{"title":"Test Video"}`))
			return
		}
		w.Write(small)
	}}
	srv := httptest.NewServer(up)
	defer srv.Close()

	f, _ := newTestFetcher(t, srv)
	res, err := f.FromYouTube(context.Background(), "https://youtu.be/"+testID)
	require.NoError(t, err)
	assert.Empty(t, res.Thumbnail, "stub-sized payloads must not be accepted")
}
