package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/makwansoran/gomercant/internal/service"
	"github.com/makwansoran/gomercant/internal/transport/http/middleware"
	"github.com/makwansoran/gomercant/pkg/validator"
)

type MessagingHandler struct {
	messaging *service.MessagingService
	log       zerolog.Logger
}

func NewMessagingHandler(messaging *service.MessagingService, log zerolog.Logger) *MessagingHandler {
	return &MessagingHandler{messaging: messaging, log: log}
}

// OpenConversation handles POST /api/v1/dms: create-or-get the one
// conversation between the viewer and the requested user.
func (h *MessagingHandler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetPrincipal(r.Context())

	var input struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "user_id is required")
		return
	}

	conv, err := h.messaging.OpenConversation(r.Context(), viewer.UserID, input.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfConversation):
			writeError(w, http.StatusBadRequest, "SELF_CONVERSATION", "Cannot start a conversation with yourself")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		default:
			h.log.Error().Err(err).Str("username", viewer.Username).Msg("open conversation failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// ListConversations handles GET /api/v1/dms: the viewer's conversation
// summaries, most recently active first.
func (h *MessagingHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetPrincipal(r.Context())

	summaries, err := h.messaging.ListConversations(r.Context(), viewer.UserID)
	if err != nil {
		h.log.Error().Err(err).Str("username", viewer.Username).Msg("list conversations failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// ListMessages handles GET /api/v1/dms/{id}/messages. Messages after the
// `after` cursor are returned oldest first, and everything sent to the
// viewer is marked read as a side effect.
func (h *MessagingHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetPrincipal(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var after *string
	if afterStr := r.URL.Query().Get("after"); afterStr != "" {
		// ULIDs are case-insensitive; the store keeps them upper case.
		afterStr = strings.ToUpper(afterStr)
		if !validator.IsMessageID(afterStr) {
			writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid after cursor")
			return
		}
		after = &afterStr
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	resp, err := h.messaging.GetMessages(r.Context(), convID, viewer.UserID, after, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		default:
			h.log.Error().Err(err).Str("username", viewer.Username).Msg("list messages failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// SendMessage handles POST /api/v1/dms/{id}/messages.
func (h *MessagingHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sender := middleware.GetPrincipal(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var input struct {
		RecipientID uuid.UUID `json:"recipient_id"`
		Content     string    `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.RecipientID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "MISSING_RECIPIENT", "recipient_id is required")
		return
	}
	if errs := validator.ValidateMessageContent(input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.messaging.SendMessage(r.Context(), convID, sender.UserID, input.RecipientID, input.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			writeError(w, http.StatusBadRequest, "EMPTY_CONTENT", "Message content is required")
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		case errors.Is(err, service.ErrNotRecipient):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Recipient is not part of this conversation")
		default:
			h.log.Error().Err(err).Str("username", sender.Username).Msg("send message failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
