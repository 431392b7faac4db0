package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/makwansoran/gomercant/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// ConversationRepository is the registry mapping an unordered user pair to
// exactly one conversation. Callers pass the pair in canonical order
// (domain.NormalizePair); the storage layer enforces uniqueness on it.
type ConversationRepository interface {
	// GetOrCreate returns the existing conversation for the pair or
	// atomically creates one. Two concurrent calls for the same pair must
	// converge on the same row. A plain lookup never bumps UpdatedAt.
	GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	// ListByUser returns the viewer's conversations newest-activity first,
	// each with its latest message and an unread flag relative to the viewer.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error)
}

type MessageRepository interface {
	// Append durably stores msg and bumps the owning conversation's
	// updated_at to the message's created_at, in one transaction.
	Append(ctx context.Context, msg *domain.Message) error
	// ListSince returns up to limit messages strictly after the cursor
	// message (all from the start when afterID is nil), oldest first.
	ListSince(ctx context.Context, conversationID uuid.UUID, afterID *string, limit int) ([]domain.Message, error)
	// MarkRead flags every unread message in the conversation that was not
	// sent by readerID. Idempotent; returns the number of rows changed.
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
}
