package config

import (
	"os"
	"strconv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port        string
	PostgresDSN string

	RedisAddr     string
	RedisPassword string

	UploadDir    string
	ThumbnailDir string

	// When MinioEndpoint is set, blobs go to MinIO buckets instead of the
	// local directories above.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUploadBkt string
	MinioThumbBkt  string
	MinioUseSSL    bool

	AdminUsername string
	MaxUploadMB   int64
}

func Load() *Config {
	return &Config{
		Port:        getenv("PORT", "8080"),
		PostgresDSN: getenv("POSTGRES_DSN", ""),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		UploadDir:    getenv("UPLOAD_FOLDER", "uploads"),
		ThumbnailDir: getenv("THUMBNAIL_FOLDER", "thumbnails"),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioUploadBkt: getenv("MINIO_UPLOAD_BUCKET", "vidvault-uploads"),
		MinioThumbBkt:  getenv("MINIO_THUMBNAIL_BUCKET", "vidvault-thumbnails"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		AdminUsername: getenv("ADMIN_USERNAME", "admin"),
		MaxUploadMB:   getenvInt64("MAX_UPLOAD_MB", 500),
	}
}

// MaxUploadBytes is the request-body cap for video uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
