package storage

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GenerateFilename generates a UUID-based filename keeping the original
// file's extension, lowercased
func GenerateFilename(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return uuid.New().String() + ext
}

// contentTypeForFilename infers a Content-Type from the filename extension,
// falling back to application/octet-stream
func contentTypeForFilename(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
