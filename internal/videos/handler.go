package videos

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/vidvault/internal/models"
	"github.com/ayush/vidvault/internal/storage"
	"github.com/ayush/vidvault/internal/store"
	"github.com/ayush/vidvault/internal/thumbnail"
)

const (
	flashCookie = "flash"
	tsLayout    = "20060102150405"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Library defines the interface for category and video persistence.
type Library interface {
	CreateCategory(ctx context.Context, userID, name string) (*models.Category, error)
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
	GetCategory(ctx context.Context, userID string, id int64) (*models.Category, error)

	CreateVideo(ctx context.Context, v *models.Video) (*models.Video, error)
	GetVideo(ctx context.Context, userID string, id int64) (*models.Video, error)
	ListVideos(ctx context.Context, userID string) ([]models.Video, error)
	ListVideosByCategory(ctx context.Context, userID string, categoryID int64) ([]models.Video, error)
	DeleteVideo(ctx context.Context, userID string, id int64) error
}

// Thumbnailer acquires thumbnails for both add paths.
type Thumbnailer interface {
	FromYouTube(ctx context.Context, rawURL string) (thumbnail.Result, error)
	FromVideoFile(ctx context.Context, path string) (string, error)
}

// Handler holds the category/video HTTP handlers.
type Handler struct {
	library Library
	uploads storage.Store
	thumbs  storage.Store
	fetcher Thumbnailer

	maxUploadBytes int64
	now            func() time.Time
}

func NewHandler(library Library, uploads, thumbs storage.Store, fetcher Thumbnailer, maxUploadBytes int64) *Handler {
	return &Handler{
		library:        library,
		uploads:        uploads,
		thumbs:         thumbs,
		fetcher:        fetcher,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// Index lists the user's videos grouped by category, alphabetical by
// category name, newest first within each.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	cats, err := h.library.ListCategories(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	groups := make([]models.CategoryVideos, 0, len(cats))
	for _, c := range cats {
		vids, err := h.library.ListVideosByCategory(r.Context(), userID, c.ID)
		if err != nil {
			http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
			return
		}
		if vids == nil {
			vids = []models.Video{}
		}
		groups = append(groups, models.CategoryVideos{ID: c.ID, Name: c.Name, Videos: vids})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": groups,
		"flash":      takeFlash(w, r),
	})
}

// Calendar lists the user's videos newest first, partitioned by upload day.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	vids, err := h.library.ListVideos(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	days := []models.DayVideos{}
	for _, v := range vids {
		key := v.UploadDate.Format("2006-01-02")
		if n := len(days); n > 0 && days[n-1].Date == key {
			days[n-1].Videos = append(days[n-1].Videos, v)
			continue
		}
		days = append(days, models.DayVideos{Date: key, Videos: []models.Video{v}})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

// GetCategories returns the user's categories as a plain JSON array.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	cats, err := h.library.ListCategories(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	type entry struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]entry, 0, len(cats))
	for _, c := range cats {
		out = append(out, entry{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// AddCategory creates a category for the user. Blank or duplicate names are
// skipped with a flash message; the caller is always redirected back.
func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	name := strings.TrimSpace(r.FormValue("category_name"))
	if name == "" {
		setFlash(w, "category name is required")
		h.redirectBack(w, r)
		return
	}

	if _, err := h.library.CreateCategory(r.Context(), userID, name); err != nil {
		log.Printf("add category %q: %v", name, err)
		setFlash(w, "category already exists")
	}
	h.redirectBack(w, r)
}

// AddYouTube bookmarks a YouTube link: acquires thumbnail + title and
// records the video. An unrecognized URL records nothing.
func (h *Handler) AddYouTube(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	youtubeURL := strings.TrimSpace(r.FormValue("youtube_url"))
	categoryID, idErr := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	if youtubeURL == "" || idErr != nil {
		setFlash(w, "a YouTube URL and category are required")
		h.redirectBack(w, r)
		return
	}

	if _, err := h.library.GetCategory(r.Context(), userID, categoryID); err != nil {
		setFlash(w, "unknown category")
		h.redirectBack(w, r)
		return
	}

	res, err := h.fetcher.FromYouTube(r.Context(), youtubeURL)
	if err != nil {
		if !errors.Is(err, thumbnail.ErrUnrecognizedURL) {
			log.Printf("youtube thumbnail for %s: %v", youtubeURL, err)
		}
		setFlash(w, "unrecognized YouTube URL")
		h.redirectBack(w, r)
		return
	}

	title := res.Title
	if title == "" {
		title = thumbnail.FallbackTitle
	}

	_, err = h.library.CreateVideo(r.Context(), &models.Video{
		Title:         title,
		ThumbnailPath: res.Thumbnail,
		YouTubeURL:    youtubeURL,
		IsYouTube:     true,
		CategoryID:    categoryID,
		UserID:        userID,
	})
	if err != nil {
		log.Printf("save youtube video: %v", err)
		setFlash(w, "could not save video")
	}
	h.redirectBack(w, r)
}

// Upload stores a video file from a multipart form, grabs a best-effort
// thumbnail frame, and records the video.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("video_file")
	if err != nil {
		setFlash(w, "no video file in request")
		h.redirectBack(w, r)
		return
	}
	defer file.Close()

	categoryID, idErr := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	if idErr != nil {
		setFlash(w, "a category is required")
		h.redirectBack(w, r)
		return
	}
	if !allowedFile(header.Filename) {
		setFlash(w, "file type not allowed")
		h.redirectBack(w, r)
		return
	}
	if _, err := h.library.GetCategory(r.Context(), userID, categoryID); err != nil {
		setFlash(w, "unknown category")
		h.redirectBack(w, r)
		return
	}

	name := h.now().Format(tsLayout) + "_" + sanitizeFilename(header.Filename)

	// Spool to a temp file: the frame grab needs a local path, and the
	// blob store wants the final size up front.
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(name))
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())
	size, err := io.Copy(tmp, file)
	if err != nil {
		tmp.Close()
		setFlash(w, "upload failed")
		h.redirectBack(w, r)
		return
	}
	tmp.Close()

	thumbName, err := h.fetcher.FromVideoFile(r.Context(), tmp.Name())
	if err != nil {
		log.Printf("frame grab for %s: %v", name, err)
	}

	src, err := os.Open(tmp.Name())
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	defer src.Close()
	ct := mime.TypeByExtension(filepath.Ext(name))
	if err := h.uploads.Save(r.Context(), name, src, size, ct); err != nil {
		log.Printf("store upload %s: %v", name, err)
		http.Error(w, `{"error":"could not store upload"}`, http.StatusInternalServerError)
		return
	}

	title := strings.TrimSpace(r.FormValue("video_title"))
	if title == "" {
		title = name
	}

	_, err = h.library.CreateVideo(r.Context(), &models.Video{
		Title:         title,
		ThumbnailPath: thumbName,
		VideoPath:     name,
		IsYouTube:     false,
		CategoryID:    categoryID,
		UserID:        userID,
	})
	if err != nil {
		log.Printf("save uploaded video: %v", err)
		setFlash(w, "could not save video")
	}
	h.redirectBack(w, r)
}

// Delete removes a video row and best-effort removes its stored files.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	v, err := h.library.GetVideo(r.Context(), userID, id)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	if v.ThumbnailPath != "" {
		if err := h.thumbs.Remove(r.Context(), v.ThumbnailPath); err != nil {
			log.Printf("remove thumbnail %s: %v", v.ThumbnailPath, err)
		}
	}
	if !v.IsYouTube && v.VideoPath != "" {
		if err := h.uploads.Remove(r.Context(), v.VideoPath); err != nil {
			log.Printf("remove upload %s: %v", v.VideoPath, err)
		}
	}

	if err := h.library.DeleteVideo(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"delete failed"}`, http.StatusInternalServerError)
		return
	}
	h.redirectBack(w, r)
}

// ServeUpload streams a stored video file.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, h.uploads)
}

// ServeThumbnail streams a stored thumbnail.
func (h *Handler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, h.thumbs)
}

func (h *Handler) serveBlob(w http.ResponseWriter, r *http.Request, blobs storage.Store) {
	name := chi.URLParam(r, "filename")
	rc, ct, err := blobs.Open(r.Context(), name)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", ct)
	io.Copy(w, rc)
}

func (h *Handler) redirectBack(w http.ResponseWriter, r *http.Request) {
	target := r.Referer()
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// setFlash queues a one-shot message for the next index load.
func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60,
	})
}

// takeFlash reads and clears the pending flash message, if any.
func takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	msg, _ := url.QueryUnescape(c.Value)
	return msg
}
