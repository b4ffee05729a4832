package api

import (
	"encoding/json"
	"time"
)

// Role represents a MovieHub user role
type Role string

const (
	// RoleUser represents a regular user
	RoleUser Role = "USER"
	// RoleAdmin represents an administrator
	RoleAdmin Role = "ADMIN"
)

// IsAdmin checks if the role grants administrative access
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// User represents a MovieHub user identity as returned by the profile endpoint
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"userName"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
}

// Movie represents a movie in the MovieHub catalog. The payload is
// server-owned; no invariants are enforced client-side.
type Movie struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Rating      float64   `json:"rating"`
	Duration    int       `json:"duration"` // minutes
	ReleaseDate time.Time `json:"releaseDate"`
	Genres      []string  `json:"genre"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// MoviePage is one page of a cursor-paginated listing. NextCursor is an
// opaque server token; the cursor is the sole source of ordering and
// non-repetition truth.
type MoviePage struct {
	Movies     []Movie `json:"movies"`
	HasNext    bool    `json:"hasNextPage"`
	NextCursor string  `json:"nextCursor"`
}

// MovieInput carries the fields for creating a movie. Poster is either a
// local file path (uploaded as multipart) or a remote URL, not both.
type MovieInput struct {
	Title       string
	Description string
	Rating      float64
	Duration    int
	ReleaseDate string // YYYY-MM-DD
	Genres      []string
	PosterPath  string
	PosterURL   string
}

// MovieUpdate carries a partial update; nil fields are left untouched
// on the server.
type MovieUpdate struct {
	Title       *string
	Description *string
	Rating      *float64
	Duration    *int
	ReleaseDate *string
	Genres      []string
	PosterPath  string
}

// envelope is the response wrapper used by every MovieHub endpoint:
// {"data": ..., "message": "..."}.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// tokenResponse is the data payload of login and refresh responses
type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// moviesResponse is the data payload of search and sorted listings
type moviesResponse struct {
	Movies []Movie `json:"movies"`
}
