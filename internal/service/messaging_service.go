package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/makwansoran/gomercant/internal/directory"
	"github.com/makwansoran/gomercant/internal/domain"
	"github.com/makwansoran/gomercant/internal/metrics"
	"github.com/makwansoran/gomercant/internal/repository"
)

var (
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrEmptyContent         = errors.New("message content is empty")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrNotRecipient         = errors.New("recipient is not the other participant")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUserNotFound         = errors.New("user not found")
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

// MessagingService coordinates the conversation registry, the message
// store and the user directory. It holds no state of its own; every
// operation takes the acting user id explicitly.
type MessagingService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	directory     *directory.Resolver
}

func NewMessagingService(conversations repository.ConversationRepository, messages repository.MessageRepository, dir *directory.Resolver) *MessagingService {
	return &MessagingService{
		conversations: conversations,
		messages:      messages,
		directory:     dir,
	}
}

// OpenConversation returns the one conversation between viewer and other,
// creating it if this is their first contact. Repeated and concurrent
// opens from either side converge on the same conversation.
func (s *MessagingService) OpenConversation(ctx context.Context, viewerID, otherID uuid.UUID) (*domain.Conversation, error) {
	if viewerID == otherID {
		return nil, ErrSelfConversation
	}

	if _, err := s.directory.Resolve(ctx, otherID); err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	userA, userB := domain.NormalizePair(viewerID, otherID)
	conv, err := s.conversations.GetOrCreate(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns the viewer's conversations newest-activity
// first. The other participant is resolved through the directory; a
// failed resolution degrades that one summary to a placeholder instead of
// failing the listing.
func (s *MessagingService) ListConversations(ctx context.Context, viewerID uuid.UUID) ([]domain.ConversationSummary, error) {
	summaries, err := s.conversations.ListByUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range summaries {
		i := i
		g.Go(func() error {
			otherID := summaries[i].Conversation.OtherParticipant(viewerID)
			user, err := s.directory.Resolve(gctx, otherID)
			if err != nil {
				summaries[i].OtherUser = domain.PlaceholderUser(otherID)
				return nil
			}
			summaries[i].OtherUser = *user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if summaries == nil {
		summaries = []domain.ConversationSummary{}
	}
	return summaries, nil
}

// MessageList is the page returned by GetMessages.
type MessageList struct {
	Messages   []domain.Message `json:"messages"`
	MarkedRead int64            `json:"-"`
}

// GetMessages returns up to limit messages strictly after afterID, oldest
// first, and acknowledges everything sent to viewer as a side effect:
// fetching a conversation is how the polling client reports having seen it.
func (s *MessagingService) GetMessages(ctx context.Context, conversationID, viewerID uuid.UUID, afterID *string, limit int) (*MessageList, error) {
	if _, err := s.requireParticipant(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultMessageLimit
	} else if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	messages, err := s.messages.ListSince(ctx, conversationID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	marked, err := s.messages.MarkRead(ctx, conversationID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	if marked > 0 {
		metrics.MessagesMarkedRead.Add(float64(marked))
	}
	metrics.MessagePolls.WithLabelValues(fmt.Sprintf("%t", len(messages) > 0)).Inc()

	if messages == nil {
		messages = []domain.Message{}
	}
	return &MessageList{Messages: messages, MarkedRead: marked}, nil
}

// SendMessage appends content to the conversation and returns the stored
// message with its server-assigned id and timestamp, so the sender's
// client can reconcile an optimistic local echo. The recipient id is
// checked against the conversation to reject spoofed routing.
func (s *MessagingService) SendMessage(ctx context.Context, conversationID, senderID, recipientID uuid.UUID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	conv, err := s.requireParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if conv.OtherParticipant(senderID) != recipientID {
		return nil, ErrNotRecipient
	}

	msg := &domain.Message{
		ID:             ulid.Make().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}
	metrics.MessagesSent.Inc()

	return msg, nil
}

func (s *MessagingService) requireParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}
