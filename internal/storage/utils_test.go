package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateFilename(t *testing.T) {
	tests := []struct {
		name        string
		original    string
		expectedExt string
	}{
		{
			name:        "keeps extension",
			original:    "camp.jpg",
			expectedExt: ".jpg",
		},
		{
			name:        "lowercases extension",
			original:    "CAMP.JPEG",
			expectedExt: ".jpeg",
		},
		{
			name:        "no extension",
			original:    "camp",
			expectedExt: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := GenerateFilename(tt.original)

			assert.True(t, strings.HasSuffix(filename, tt.expectedExt))
			_, err := uuid.Parse(strings.TrimSuffix(filename, tt.expectedExt))
			assert.NoError(t, err)
		})
	}
}

func TestGenerateFilename_Unique(t *testing.T) {
	assert.NotEqual(t, GenerateFilename("a.jpg"), GenerateFilename("a.jpg"))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentTypeForFilename("a.jpg"))
	assert.Equal(t, "image/png", contentTypeForFilename("a.png"))
	assert.Equal(t, "application/octet-stream", contentTypeForFilename("a"))
}
