package models

import (
	"time"
)

// User is the local shadow of an identity-provider account. ID is the
// provider's subject.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	Email     string    `json:"email" gorm:"index"`
	Name      string    `json:"name"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is what the auth layer knows about the caller of a request.
type Identity struct {
	Subject  string
	Email    string
	Name     string
	ImageURL string
}

const placeholderName = "User"

// PlaceholderUser builds the user row created for an authenticated caller
// that has no local record yet.
func (i Identity) PlaceholderUser() *User {
	name := i.Name
	if name == "" {
		name = placeholderName
	}
	return &User{
		ID:       i.Subject,
		Email:    i.Email,
		Name:     name,
		ImageURL: i.ImageURL,
	}
}
