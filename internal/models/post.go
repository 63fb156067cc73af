package models

import (
	"time"

	"github.com/lib/pq"
)

// Post is a blog entry owned by a User.
type Post struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description" gorm:"not null"`
	Content     *string        `json:"content"`
	ImageURL    *string        `json:"imageUrl"`
	Category    *string        `json:"category" gorm:"index"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[];not null;default:'{}'"`
	AuthorID    string         `json:"authorId" gorm:"size:191;not null;index"`
	Author      *User          `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Favorites   []Favorite     `json:"favorites" gorm:"foreignKey:PostID"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"required,min=1,max=1000"`
	Content     *string  `json:"content,omitempty" validate:"omitempty,max=100000"`
	ImageURL    *string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// UpdatePostRequest defines the request body for editing a post. Absent
// fields are left untouched.
type UpdatePostRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,min=1,max=1000"`
	Content     *string  `json:"content,omitempty" validate:"omitempty,max=100000"`
	ImageURL    *string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
}
