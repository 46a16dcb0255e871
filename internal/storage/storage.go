// Package storage stores uploaded campground images behind a media-host
// interface with local-filesystem and S3-compatible implementations
package storage

import (
	"context"
	"io"
)

// StoredImage identifies a stored media object
type StoredImage struct {
	URL      string
	Filename string
}

// Storage is the media host abstraction: store a file, get back a URL and a
// filename; destroy by filename
type Storage interface {
	// Store persists the file content under a generated filename derived
	// from the original filename's extension and returns its public URL
	Store(ctx context.Context, reader io.Reader, originalFilename string) (*StoredImage, error)

	// Delete removes a stored file by the filename returned from Store
	Delete(ctx context.Context, filename string) error
}
