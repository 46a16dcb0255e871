package models

import "time"

// Rating bounds for a review
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a user review on a campground
type Review struct {
	ID           int       `json:"id"`
	CampgroundID int       `json:"campgroundId"`
	AuthorID     int       `json:"authorId"`
	Body         string    `json:"body"`
	Rating       int       `json:"rating"`
	CreatedAt    time.Time `json:"createdAt"`

	// Populated relation, filled by the repository on demand
	Author *User `json:"author,omitempty"`
}
