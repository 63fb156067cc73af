package models

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Favorite is a user-to-post bookmark. At most one row exists per pair.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"size:191;not null;index;uniqueIndex:idx_user_post_favorite"`
	PostID    uint      `json:"postId" gorm:"not null;index;uniqueIndex:idx_user_post_favorite"`
	Post      *Post     `json:"post,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	FavoriteActionAdd    = "add"
	FavoriteActionRemove = "remove"
)

// ToggleFavoriteRequest defines the request body for adding or removing a favorite
type ToggleFavoriteRequest struct {
	PostID PostRef `json:"postId"`
	Action string  `json:"action"`
}

// PostRef is a post id that accepts both JSON numbers and numeric strings.
type PostRef uint

func (r *PostRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 1 && data[0] == '"' {
		data = bytes.TrimSpace(data[1 : len(data)-1])
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post id %q", data)
	}
	*r = PostRef(v)
	return nil
}
