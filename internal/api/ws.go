package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/tellerbot/teller/internal/agent"
	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/session"
)

// wsIdleTimeout closes connections with no client message for this long.
const wsIdleTimeout = 10 * time.Minute

// wsInbound is a client frame: {"message": "..."}.
type wsInbound struct {
	Message string `json:"message"`
}

// wsOutbound is a server frame. Type is "welcome", "response", or
// "error"; FullResponse is only present on response frames.
type wsOutbound struct {
	Type         string        `json:"type"`
	Content      string        `json:"content"`
	UserID       string        `json:"user_id,omitempty"`
	SessionID    string        `json:"session_id,omitempty"`
	FullResponse *chatResponse `json:"full_response,omitempty"`
	Timestamp    string        `json:"timestamp,omitempty"`
}

// wsHandler serves real-time chat at /ws/{user_id}/{session_id}.
type wsHandler struct {
	runner         Runner
	sessions       session.Service
	welcomeMessage string
	logger         log.Logger
}

func (h *wsHandler) serve(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	sessionID := r.PathValue("session_id")
	logger := h.logger.With("user_id", userID, "session_id", sessionID)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Error("accepting websocket", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	ctx := r.Context()

	// The connection binds to one session; create it up front so the
	// first message does not race session creation.
	if _, err := h.sessions.Get(ctx, userID, sessionID); err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.Error("loading websocket session", "error", err)
			conn.Close(websocket.StatusInternalError, "session backend unavailable")
			return
		}
		if _, err := h.sessions.Create(ctx, userID, sessionID, agent.InitialState()); err != nil {
			logger.Error("creating websocket session", "error", err)
			conn.Close(websocket.StatusInternalError, "session backend unavailable")
			return
		}
	}

	welcome := wsOutbound{
		Type:      "welcome",
		Content:   h.welcomeMessage,
		UserID:    userID,
		SessionID: sessionID,
	}
	if err := wsjson.Write(ctx, conn, welcome); err != nil {
		logger.Debug("writing welcome frame", "error", err)
		return
	}

	for {
		readCtx, cancel := context.WithTimeout(ctx, wsIdleTimeout)
		var in wsInbound
		err := wsjson.Read(readCtx, conn, &in)
		cancel()
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Info("websocket disconnected")
			} else {
				logger.Debug("websocket read ended", "error", err)
			}
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}

		if in.Message == "" {
			frame := wsOutbound{
				Type:    "error",
				Content: "Invalid message format. Missing 'message' field.",
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				logger.Debug("writing error frame", "error", err)
				return
			}
			continue
		}

		reply, err := h.runner.Process(ctx, userID, sessionID, in.Message)
		if err != nil {
			logger.Error("processing websocket message", "error", err)
			frame := wsOutbound{
				Type:    "error",
				Content: "An error occurred processing your message.",
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				logger.Debug("writing error frame", "error", err)
				return
			}
			continue
		}

		full := toChatResponse(reply)
		frame := wsOutbound{
			Type:         "response",
			Content:      reply.Text,
			FullResponse: &full,
			Timestamp:    full.Timestamp,
		}
		if err := wsjson.Write(ctx, conn, frame); err != nil {
			logger.Debug("writing response frame", "error", err)
			return
		}
	}
}
