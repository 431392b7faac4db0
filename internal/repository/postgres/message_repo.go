package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makwansoran/gomercant/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Append stores the message and bumps the conversation's updated_at in one
// transaction, so a failed send leaves no partial state behind.
func (r *MessageRepo) Append(ctx context.Context, msg *domain.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, read, created_at)
		VALUES ($1, $2, $3, $4, false, $5)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`,
		msg.CreatedAt, msg.ConversationID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListSince pages forward with a keyset cursor on (created_at, id). The
// same cursor against an unchanged conversation yields identical results,
// which is what lets the poller re-issue a request after a failed tick.
func (r *MessageRepo) ListSince(ctx context.Context, conversationID uuid.UUID, afterID *string, limit int) ([]domain.Message, error) {
	var query string
	var args []any

	if afterID != nil {
		query = fmt.Sprintf(`
			SELECT m.id, m.conversation_id, m.sender_id, m.content, m.read, m.created_at,
				u.username, u.display_name
			FROM messages m
			JOIN users u ON m.sender_id = u.id
			WHERE m.conversation_id = $1
				AND (m.created_at, m.id) > (SELECT created_at, id FROM messages WHERE id = $2)
			ORDER BY m.created_at, m.id
			LIMIT %d`, limit)
		args = []any{conversationID, *afterID}
	} else {
		query = fmt.Sprintf(`
			SELECT m.id, m.conversation_id, m.sender_id, m.content, m.read, m.created_at,
				u.username, u.display_name
			FROM messages m
			JOIN users u ON m.sender_id = u.id
			WHERE m.conversation_id = $1
			ORDER BY m.created_at, m.id
			LIMIT %d`, limit)
		args = []any{conversationID}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content,
			&msg.Read, &msg.CreatedAt,
			&msg.SenderUsername, &msg.SenderDisplayName,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkRead acknowledges everything sent to readerID that is still unread.
// The predicate is per-row, so a message appended while the update runs is
// only touched if its sender is already known not to be the reader.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET read = true
		WHERE conversation_id = $1 AND sender_id <> $2 AND NOT read`,
		conversationID, readerID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
