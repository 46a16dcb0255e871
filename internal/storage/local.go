package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// localStorage implements Storage using the local filesystem
type localStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a new localStorage instance. Stored files are
// served back under baseURL + "/uploads/".
func NewLocalStorage(basePath, baseURL string) *localStorage {
	return &localStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}
}

// Store writes the file to basePath under a generated filename
func (s *localStorage) Store(ctx context.Context, reader io.Reader, originalFilename string) (*StoredImage, error) {
	filename := GenerateFilename(originalFilename)
	path := filepath.Join(s.basePath, filename)

	// Ensure the directory exists
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		// Cleanup: don't leave a partial file behind
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &StoredImage{
		URL:      fmt.Sprintf("%s/uploads/%s", s.baseURL, filename),
		Filename: filename,
	}, nil
}

// Delete removes a stored file
func (s *localStorage) Delete(ctx context.Context, filename string) error {
	path := filepath.Join(s.basePath, filepath.Base(filename))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %w", err)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
