package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PlaceholderUser stands in for a participant the directory could not
// resolve, so a conversation listing never fails on one missing profile.
func PlaceholderUser(id uuid.UUID) User {
	return User{
		ID:          id,
		Username:    "unknown",
		DisplayName: "Unknown user",
	}
}
