package models

import "time"

// User represents a row in the PostgreSQL users table.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // never serialize
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Category groups a user's videos.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Video is one bookmarked entry: either an uploaded file or a YouTube link.
// Exactly one of VideoPath / YouTubeURL is populated, governed by IsYouTube.
type Video struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	ThumbnailPath string    `json:"thumbnail_path"` // empty when acquisition failed
	VideoPath     string    `json:"video_path,omitempty"`
	YouTubeURL    string    `json:"youtube_url,omitempty"`
	IsYouTube     bool      `json:"is_youtube"`
	CategoryID    int64     `json:"category_id"`
	UserID        string    `json:"user_id"`
	UploadDate    time.Time `json:"upload_date"`
}

// CategoryVideos is one group in the index listing.
type CategoryVideos struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Videos []Video `json:"videos"`
}

// DayVideos is one group in the calendar listing, keyed by upload day.
type DayVideos struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Videos []Video `json:"videos"`
}

// UserSummary is one row of the admin dashboard.
type UserSummary struct {
	User
	Categories int64 `json:"categories"`
	Videos     int64 `json:"videos"`
}
