package client

import (
	"context"
	"sync"
	"time"
)

// staleThreshold is how many ticks in a row may fail before the view is
// reported stale. One lost poll only delays freshness by an interval and
// is not worth telling the user about.
const staleThreshold = 3

// DefaultListInterval is the poll interval for the conversation-list view.
const DefaultListInterval = 5 * time.Second

// DefaultMessageInterval is the poll interval for an open conversation.
const DefaultMessageInterval = 2 * time.Second

// ConversationPoller re-fetches the viewer's conversation summaries on a
// fixed interval while the list view is open. Every successful tick hands
// the full snapshot to OnUpdate; summaries are small, so reconciliation
// is replacement rather than diffing.
type ConversationPoller struct {
	client   *Client
	interval time.Duration

	// OnUpdate receives the complete summary list after each successful poll.
	OnUpdate func([]ConversationSummary)

	mu       sync.Mutex
	failures int
}

func NewConversationPoller(c *Client, interval time.Duration) *ConversationPoller {
	if interval <= 0 {
		interval = DefaultListInterval
	}
	return &ConversationPoller{client: c, interval: interval}
}

// Run polls until ctx is cancelled. It issues one poll immediately so the
// view is not blank for a full interval. A failed poll is retried on the
// next tick; it never stops the loop.
func (p *ConversationPoller) Run(ctx context.Context) {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Stale reports whether the last several polls failed in a row, meaning
// the view is rendering data older than it should be. It clears on the
// next successful poll.
func (p *ConversationPoller) Stale() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures >= staleThreshold
}

func (p *ConversationPoller) tick(ctx context.Context) {
	summaries, err := p.client.ListConversations(ctx)
	p.mu.Lock()
	if err != nil {
		p.failures++
		p.mu.Unlock()
		return
	}
	p.failures = 0
	p.mu.Unlock()

	if p.OnUpdate != nil {
		p.OnUpdate(summaries)
	}
}

// MessagePoller keeps one open conversation current. The cursor starts at
// the last message the view already has (empty for none) and only ever
// advances, so a message is handed to OnMessages exactly once and known
// messages are never re-fetched.
type MessagePoller struct {
	client         *Client
	conversationID string
	interval       time.Duration

	// OnMessages receives each batch of newly arrived messages, oldest first.
	OnMessages func([]Message)

	mu       sync.Mutex
	cursor   string
	failures int
}

func NewMessagePoller(c *Client, conversationID, lastSeenID string, interval time.Duration) *MessagePoller {
	if interval <= 0 {
		interval = DefaultMessageInterval
	}
	return &MessagePoller{
		client:         c,
		conversationID: conversationID,
		interval:       interval,
		cursor:         lastSeenID,
	}
}

// Run polls until ctx is cancelled, starting with an immediate fetch.
func (p *MessagePoller) Run(ctx context.Context) {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Cursor returns the id of the newest message seen so far.
func (p *MessagePoller) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Stale reports sustained poll failure, cleared by the next success.
func (p *MessagePoller) Stale() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures >= staleThreshold
}

func (p *MessagePoller) tick(ctx context.Context) {
	p.mu.Lock()
	cursor := p.cursor
	p.mu.Unlock()

	messages, err := p.client.ListMessages(ctx, p.conversationID, cursor, 0)

	p.mu.Lock()
	if err != nil {
		p.failures++
		p.mu.Unlock()
		return
	}
	p.failures = 0
	if len(messages) > 0 {
		p.cursor = messages[len(messages)-1].ID
	}
	p.mu.Unlock()

	if len(messages) > 0 && p.OnMessages != nil {
		p.OnMessages(messages)
	}
}
