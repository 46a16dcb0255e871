package models

import (
	"strings"
	"time"
)

// Image represents one stored campground image
type Image struct {
	ID       int    `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Position int    `json:"position"`
}

// Thumbnail returns a width-200 variant URL for media hosts that support
// an /upload path transformation, falling back to the original URL
func (i Image) Thumbnail() string {
	if strings.Contains(i.URL, "/upload/") {
		return strings.Replace(i.URL, "/upload/", "/upload/w_200/", 1)
	}
	return i.URL
}

// Campground represents a listed campground
type Campground struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	AuthorID    int       `json:"authorId"`
	CreatedAt   time.Time `json:"createdAt"`

	// Populated relations, filled by the repository on demand
	Author  *User    `json:"author,omitempty"`
	Images  []Image  `json:"images,omitempty"`
	Reviews []Review `json:"reviews,omitempty"`
}
