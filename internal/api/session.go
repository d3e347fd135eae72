package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tellerbot/teller/internal/agent"
	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/session"
)

// sessionHandler serves the session CRUD endpoints under /api/sessions.
type sessionHandler struct {
	sessions session.Service
	logger   log.Logger
}

// sessionInfo is the wire shape for a single session.
type sessionInfo struct {
	UserID         string         `json:"user_id"`
	SessionID      string         `json:"session_id"`
	State          map[string]any `json:"state"`
	LastUpdateTime time.Time      `json:"last_update_time"`
	MessageCount   int            `json:"message_count"`
}

func toSessionInfo(sess *session.Session) sessionInfo {
	return sessionInfo{
		UserID:         sess.UserID,
		SessionID:      sess.ID,
		State:          sess.State,
		LastUpdateTime: sess.LastUpdate,
		MessageCount:   sess.MessageCount(),
	}
}

// createRequest is the body of POST /api/sessions.
type createRequest struct {
	UserID       string         `json:"user_id"`
	SessionID    string         `json:"session_id,omitempty"`
	InitialState map[string]any `json:"initial_state,omitempty"`
}

// create handles POST /api/sessions.
// Missing session IDs are generated; the initial state is merged over
// the defaults so callers cannot accidentally drop the auth flag.
func (h *sessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if req.UserID == "" {
		req.UserID = newUserID()
	}
	if req.SessionID == "" {
		req.SessionID = newSessionID()
	}

	state := agent.InitialState()
	for k, v := range req.InitialState {
		state[k] = v
	}

	sess, err := h.sessions.Create(r.Context(), req.UserID, req.SessionID, state)
	if err != nil {
		h.logger.Error("creating session", "error", err, "user_id", req.UserID)
		writeError(w, http.StatusInternalServerError, "create_failed", "error creating session", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionInfo(sess), h.logger)
}

// get handles GET /api/sessions/{user_id}/{session_id}.
func (h *sessionHandler) get(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	sessionID := r.PathValue("session_id")

	sess, err := h.sessions.Get(r.Context(), userID, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("getting session", "error", err, "user_id", userID, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "get_failed", "error getting session", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toSessionInfo(sess), h.logger)
}

// updateRequest is the body of PUT /api/sessions/{user_id}/{session_id}.
type updateRequest struct {
	UserID       string         `json:"user_id"`
	SessionID    string         `json:"session_id"`
	StateUpdates map[string]any `json:"state_updates"`
}

// update handles PUT /api/sessions/{user_id}/{session_id}.
// State updates merge into the existing state; this is how a client
// marks a session authenticated.
func (h *sessionHandler) update(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	sessionID := r.PathValue("session_id")

	var req updateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if (req.UserID != "" && req.UserID != userID) || (req.SessionID != "" && req.SessionID != sessionID) {
		writeError(w, http.StatusBadRequest, "id_mismatch",
			"user ID and session ID in URL must match request body", h.logger)
		return
	}

	sess, err := h.sessions.Get(r.Context(), userID, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("getting session for update", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "update_failed", "error updating session", h.logger)
		return
	}

	for k, v := range req.StateUpdates {
		sess.State[k] = v
	}

	if err := h.sessions.Update(r.Context(), sess); err != nil {
		h.logger.Error("updating session", "error", err, "user_id", userID, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "update_failed", "error updating session", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toSessionInfo(sess), h.logger)
}

// list handles GET /api/sessions/{user_id}.
func (h *sessionHandler) list(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	sessions, err := h.sessions.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("listing sessions", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "list_failed", "error listing sessions", h.logger)
		return
	}

	infos := make([]sessionInfo, len(sessions))
	for i, sess := range sessions {
		infos[i] = toSessionInfo(sess)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"sessions": infos,
	}, h.logger)
}

// delete handles DELETE /api/sessions/{user_id}/{session_id}.
// A 404 is returned for sessions that never existed so clients can tell
// a no-op from a successful delete.
func (h *sessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	sessionID := r.PathValue("session_id")

	if _, err := h.sessions.Get(r.Context(), userID, sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("getting session for delete", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "delete_failed", "error deleting session", h.logger)
		return
	}

	if err := h.sessions.Delete(r.Context(), userID, sessionID); err != nil {
		h.logger.Error("deleting session", "error", err, "user_id", userID, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "delete_failed", "error deleting session", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "session " + userID + "/" + sessionID + " deleted",
	}, h.logger)
}
