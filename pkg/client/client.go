// Package client is a Go client for the GoMercant direct-messaging API,
// including the polling loops that keep a conversation view current
// without a persistent connection.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a GoMercant messaging API client.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a client for the API at baseURL, authenticating with
// the given bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// User is a participant's display identity.
type User struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Conversation is the channel between the viewer and one other user.
type Conversation struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"user_a_id"`
	UserBID   string    `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one unit of conversation content.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationSummary is the per-viewer listing entry.
type ConversationSummary struct {
	Conversation Conversation `json:"conversation"`
	OtherUser    User         `json:"other_user"`
	LastMessage  *Message     `json:"last_message,omitempty"`
	HasUnread    bool         `json:"has_unread"`
}

// MessageList is the page returned by ListMessages.
type MessageList struct {
	Messages []Message `json:"messages"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Error.Code,
			Message:    errResp.Error.Message,
		}
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

// ListConversations fetches the viewer's conversation summaries, most
// recently active first.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	var summaries []ConversationSummary
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/dms", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// OpenConversation creates or returns the conversation with otherUserID.
func (c *Client) OpenConversation(ctx context.Context, otherUserID string) (*Conversation, error) {
	body, _ := json.Marshal(map[string]string{"user_id": otherUserID})
	var conv Conversation
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/dms", body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListMessages fetches messages strictly after the cursor (all from the
// beginning when after is empty). Fetching acknowledges everything sent
// to the viewer, server-side.
func (c *Client) ListMessages(ctx context.Context, conversationID, after string, limit int) ([]Message, error) {
	q := url.Values{}
	if after != "" {
		q.Set("after", after)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/dms/" + conversationID + "/messages"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list MessageList
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Messages, nil
}

// SendMessage posts content to the conversation and returns the stored
// message with its server-assigned id and timestamp.
func (c *Client) SendMessage(ctx context.Context, conversationID, recipientID, content string) (*Message, error) {
	body, _ := json.Marshal(map[string]string{
		"recipient_id": recipientID,
		"content":      content,
	})
	var msg Message
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/dms/"+conversationID+"/messages", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
