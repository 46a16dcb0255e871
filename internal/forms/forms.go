// Package forms declares the typed input shapes behind the HTML forms and
// their validation rules. Validate methods collect every violation instead
// of stopping at the first, so the 400 page can list them all.
package forms

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/yamacamp/backend/internal/models"
)

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// passwordRules validates password: at least 8 chars, uppercase, lowercase, number
var passwordRules = []struct {
	re      *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`.{8,}`), "password must be at least 8 characters"},
	{regexp.MustCompile(`[a-z]`), "password must contain a lowercase letter"},
	{regexp.MustCompile(`[A-Z]`), "password must contain an uppercase letter"},
	{regexp.MustCompile(`[0-9]`), "password must contain a number"},
}

// CampgroundForm is the campground create/update input shape
type CampgroundForm struct {
	Title       string
	Price       string
	Description string
	Location    string
	Latitude    string
	Longitude   string
	// DeleteImages lists stored filenames checked for removal on the edit form
	DeleteImages []string

	price     float64
	latitude  float64
	longitude float64
}

// ParseCampgroundForm extracts a campground form from decoded form values
func ParseCampgroundForm(values url.Values) *CampgroundForm {
	return &CampgroundForm{
		Title:        strings.TrimSpace(values.Get("campground[title]")),
		Price:        strings.TrimSpace(values.Get("campground[price]")),
		Description:  strings.TrimSpace(values.Get("campground[description]")),
		Location:     strings.TrimSpace(values.Get("campground[location]")),
		Latitude:     strings.TrimSpace(values.Get("campground[latitude]")),
		Longitude:    strings.TrimSpace(values.Get("campground[longitude]")),
		DeleteImages: values["deleteImages[]"],
	}
}

// Validate checks every rule and returns the full list of violations
func (f *CampgroundForm) Validate() []string {
	var violations []string

	if f.Title == "" {
		violations = append(violations, "title is required")
	}

	if f.Price == "" {
		violations = append(violations, "price is required")
	} else {
		price, err := strconv.ParseFloat(f.Price, 64)
		if err != nil {
			violations = append(violations, "price must be a number")
		} else if price < 0 {
			violations = append(violations, "price must be 0 or greater")
		} else {
			f.price = price
		}
	}

	if f.Location == "" {
		violations = append(violations, "location is required")
	}

	if f.Description == "" {
		violations = append(violations, "description is required")
	}

	// Coordinates are optional; the map data is best-effort
	if f.Latitude != "" {
		lat, err := strconv.ParseFloat(f.Latitude, 64)
		if err != nil || lat < -90 || lat > 90 {
			violations = append(violations, "latitude must be between -90 and 90")
		} else {
			f.latitude = lat
		}
	}
	if f.Longitude != "" {
		lng, err := strconv.ParseFloat(f.Longitude, 64)
		if err != nil || lng < -180 || lng > 180 {
			violations = append(violations, "longitude must be between -180 and 180")
		} else {
			f.longitude = lng
		}
	}

	return violations
}

// Campground builds the model from a validated form
func (f *CampgroundForm) Campground() *models.Campground {
	return &models.Campground{
		Title:       f.Title,
		Price:       f.price,
		Description: f.Description,
		Location:    f.Location,
		Latitude:    f.latitude,
		Longitude:   f.longitude,
	}
}

// ReviewForm is the review create input shape
type ReviewForm struct {
	Rating string
	Body   string

	rating int
}

// ParseReviewForm extracts a review form from decoded form values
func ParseReviewForm(values url.Values) *ReviewForm {
	return &ReviewForm{
		Rating: strings.TrimSpace(values.Get("review[rating]")),
		Body:   strings.TrimSpace(values.Get("review[body]")),
	}
}

// Validate checks every rule and returns the full list of violations
func (f *ReviewForm) Validate() []string {
	var violations []string

	if f.Rating == "" {
		violations = append(violations, "rating is required")
	} else {
		rating, err := strconv.Atoi(f.Rating)
		if err != nil || rating < models.MinRating || rating > models.MaxRating {
			violations = append(violations, fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating))
		} else {
			f.rating = rating
		}
	}

	if f.Body == "" {
		violations = append(violations, "review text is required")
	}

	return violations
}

// Review builds the model from a validated form
func (f *ReviewForm) Review() *models.Review {
	return &models.Review{
		Body:   f.Body,
		Rating: f.rating,
	}
}

// RegisterForm is the user registration input shape
type RegisterForm struct {
	Email    string
	Username string
	Password string
}

// ParseRegisterForm extracts a registration form from decoded form values
func ParseRegisterForm(values url.Values) *RegisterForm {
	return &RegisterForm{
		Email:    strings.ToLower(strings.TrimSpace(values.Get("email"))),
		Username: strings.TrimSpace(values.Get("username")),
		Password: values.Get("password"),
	}
}

// Validate checks every rule and returns the full list of violations
func (f *RegisterForm) Validate() []string {
	var violations []string

	if f.Email == "" {
		violations = append(violations, "email is required")
	} else if !emailRegex.MatchString(f.Email) {
		violations = append(violations, "invalid email format")
	}

	if f.Username == "" {
		violations = append(violations, "username is required")
	} else if len(f.Username) < 3 || len(f.Username) > 30 {
		violations = append(violations, "username must be between 3 and 30 characters")
	}

	if f.Password == "" {
		violations = append(violations, "password is required")
	} else {
		for _, rule := range passwordRules {
			if !rule.re.MatchString(f.Password) {
				violations = append(violations, rule.message)
			}
		}
	}

	return violations
}

// LoginForm is the login input shape
type LoginForm struct {
	Login    string
	Password string
}

// ParseLoginForm extracts a login form from decoded form values
func ParseLoginForm(values url.Values) *LoginForm {
	return &LoginForm{
		Login:    strings.TrimSpace(values.Get("login")),
		Password: values.Get("password"),
	}
}

// Validate checks every rule and returns the full list of violations
func (f *LoginForm) Validate() []string {
	var violations []string

	if f.Login == "" {
		violations = append(violations, "login is required")
	}
	if f.Password == "" {
		violations = append(violations, "password is required")
	}

	return violations
}
