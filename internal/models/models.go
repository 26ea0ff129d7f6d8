package models

import "time"

// User represents an account within the ReelShelf catalog.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity returns the public view of the user used for sessions and ownership checks.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Identity is the authenticated user's resolved record.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IsZero reports whether the identity is unset (anonymous).
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// Movie is a catalog entry owned by a single user.
type Movie struct {
	ID            string    `json:"id"`
	Poster        string    `json:"poster"`
	Title         string    `json:"title"`
	PublishedYear int       `json:"publishedYear"`
	OwnerID       string    `json:"owner"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Pagination describes the position of a page within an owner's catalog.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalMovies int `json:"totalMovies"`
	Limit       int `json:"limit"`
}

// MoviePage groups a page of movies with its pagination metadata.
type MoviePage struct {
	Movies     []Movie    `json:"movies"`
	Pagination Pagination `json:"pagination"`
}
