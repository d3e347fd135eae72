package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tellerbot/teller/internal/agent"
	"github.com/tellerbot/teller/internal/log"
)

// maxMessageBytes caps chat request bodies.
const maxMessageBytes = 64 << 10

// Runner processes user messages. Consumer-side interface so handlers
// can be tested with a stub instead of a live model.
type Runner interface {
	Process(ctx context.Context, userID, sessionID, message string) (*agent.Reply, error)
}

// chatRequest is the body of POST /api/chat.
// user_id and session_id are optional; missing values are generated and
// returned in the response so the client can continue the conversation.
type chatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// chatResponse is the reply envelope for chat over REST and WebSocket.
type chatResponse struct {
	ResponseText string `json:"response_text"`
	RequestID    string `json:"request_id"`
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	Intent       string `json:"intent,omitempty"`
	Agent        string `json:"agent,omitempty"`
	Blocked      bool   `json:"blocked"`
	BlockReason  string `json:"block_reason,omitempty"`
	MessageCount int    `json:"message_count"`
	Timestamp    string `json:"timestamp"`
}

type chatHandler struct {
	runner Runner
	logger log.Logger
}

// newUserID generates an anonymous user identity.
func newUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// newSessionID generates a conversation identifier.
func newSessionID() string {
	return "session_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func toChatResponse(reply *agent.Reply) chatResponse {
	return chatResponse{
		ResponseText: reply.Text,
		RequestID:    reply.RequestID,
		UserID:       reply.UserID,
		SessionID:    reply.SessionID,
		Intent:       reply.Intent,
		Agent:        reply.Agent,
		Blocked:      reply.Blocked,
		BlockReason:  reply.BlockReason,
		MessageCount: reply.MessageCount,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}

// send handles POST /api/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = newUserID()
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = newSessionID()
	}

	reply, err := h.runner.Process(r.Context(), userID, sessionID, req.Message)
	if err != nil {
		h.logger.Error("processing chat message",
			"error", err,
			"user_id", userID,
			"session_id", sessionID,
			"request_id", requestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "processing_failed", "error processing message", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toChatResponse(reply), h.logger)
}
