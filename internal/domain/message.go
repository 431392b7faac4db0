package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message ids are ULIDs: timestamp-prefixed and lexicographically
// sortable, so (CreatedAt, ID) gives a total order within a conversation
// and the id doubles as a sync cursor.
type Message struct {
	ID             string    `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
	// Joined fields
	SenderUsername    string `json:"sender_username,omitempty"`
	SenderDisplayName string `json:"sender_display_name,omitempty"`
}
