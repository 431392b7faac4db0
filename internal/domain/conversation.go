package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the unique channel between exactly two users.
// UserAID and UserBID are stored in canonical order (UserAID < UserBID
// lexicographically) so the pair maps to exactly one row.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserAID   uuid.UUID `json:"user_a_id"`
	UserBID   uuid.UUID `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizePair returns the two ids in canonical storage order.
func NormalizePair(u, v uuid.UUID) (uuid.UUID, uuid.UUID) {
	if u.String() > v.String() {
		return v, u
	}
	return u, v
}

// HasParticipant reports whether id is one of the two participants.
func (c *Conversation) HasParticipant(id uuid.UUID) bool {
	return c.UserAID == id || c.UserBID == id
}

// OtherParticipant returns the participant that is not viewer.
func (c *Conversation) OtherParticipant(viewer uuid.UUID) uuid.UUID {
	if c.UserAID == viewer {
		return c.UserBID
	}
	return c.UserAID
}

// ConversationSummary is the per-viewer view of a conversation: who the
// other side is, the latest message if any, and whether anything sent to
// the viewer is still unread. It is derived on every listing, never stored.
type ConversationSummary struct {
	Conversation Conversation `json:"conversation"`
	OtherUser    User         `json:"other_user"`
	LastMessage  *Message     `json:"last_message,omitempty"`
	HasUnread    bool         `json:"has_unread"`
}
