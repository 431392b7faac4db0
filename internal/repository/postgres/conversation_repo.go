package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makwansoran/gomercant/internal/domain"
	"github.com/makwansoran/gomercant/internal/metrics"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

// GetOrCreate inserts a conversation for the canonical pair, relying on the
// UNIQUE (user_a_id, user_b_id) constraint for dedup. When a concurrent
// caller wins the insert, ON CONFLICT DO NOTHING returns no row and we
// re-read the winner's row, so both callers converge on one conversation.
func (r *ConversationRepo) GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	now := time.Now()
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, user_a_id, user_b_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_a_id, user_b_id) DO NOTHING
		RETURNING id, user_a_id, user_b_id, created_at, updated_at`,
		uuid.New(), userA, userB, now,
	).Scan(&conv.ID, &conv.UserAID, &conv.UserBID, &conv.CreatedAt, &conv.UpdatedAt)
	if err == nil {
		metrics.ConversationsCreated.Inc()
		return &conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT id, user_a_id, user_b_id, created_at, updated_at
		FROM conversations
		WHERE user_a_id = $1 AND user_b_id = $2`,
		userA, userB,
	).Scan(&conv.ID, &conv.UserAID, &conv.UserBID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_a_id, user_b_id, created_at, updated_at
		FROM conversations
		WHERE id = $1`, id,
	).Scan(&conv.ID, &conv.UserAID, &conv.UserBID, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListByUser returns summaries ordered by latest activity. The other
// participant is left as an id for the service to resolve through the
// directory; the latest message and unread flag are joined here so the
// listing is one round trip.
func (r *ConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.user_a_id, c.user_b_id, c.created_at, c.updated_at,
			m.id, m.sender_id, m.content, m.read, m.created_at,
			EXISTS (
				SELECT 1 FROM messages u
				WHERE u.conversation_id = c.id AND u.sender_id <> $1 AND NOT u.read
			) AS has_unread
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, read, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) m ON true
		WHERE c.user_a_id = $1 OR c.user_b_id = $1
		ORDER BY c.updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.ConversationSummary
	for rows.Next() {
		var s domain.ConversationSummary
		var (
			msgID      *string
			msgSender  *uuid.UUID
			msgContent *string
			msgRead    *bool
			msgCreated *time.Time
		)
		if err := rows.Scan(
			&s.Conversation.ID, &s.Conversation.UserAID, &s.Conversation.UserBID,
			&s.Conversation.CreatedAt, &s.Conversation.UpdatedAt,
			&msgID, &msgSender, &msgContent, &msgRead, &msgCreated,
			&s.HasUnread,
		); err != nil {
			return nil, err
		}
		if msgID != nil {
			s.LastMessage = &domain.Message{
				ID:             *msgID,
				ConversationID: s.Conversation.ID,
				SenderID:       *msgSender,
				Content:        *msgContent,
				Read:           *msgRead,
				CreatedAt:      *msgCreated,
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
