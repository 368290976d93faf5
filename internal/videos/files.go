package videos

import (
	"path/filepath"
	"regexp"
	"strings"
)

// allowedExtensions is the upload allow-list.
var allowedExtensions = map[string]bool{
	"mp4":  true,
	"avi":  true,
	"mov":  true,
	"mkv":  true,
	"webm": true,
	"flv":  true,
}

// allowedFile reports whether the filename carries an allowed extension.
func allowedFile(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return allowedExtensions[strings.ToLower(filename[i+1:])]
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename strips path components and anything outside a small safe
// character set, so user filenames can't escape the upload directory.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "video"
	}
	return name
}
