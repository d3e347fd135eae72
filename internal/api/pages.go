package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/tellerbot/teller/internal/agent"
	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/session"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// pagesHandler serves the chat web UI.
type pagesHandler struct {
	sessions       session.Service
	welcomeMessage string
	logger         log.Logger
}

// indexData feeds the chat page template.
type indexData struct {
	UserID         string
	SessionID      string
	WelcomeMessage string
}

// chat handles GET /ui.
// Visitors may pin an identity with ?user_id=; otherwise a fresh
// anonymous one is generated. The most recent session is reused when
// one exists.
func (h *pagesHandler) chat(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = newUserID()
	}

	sessionID, err := h.resolveSession(r, userID)
	if err != nil {
		h.logger.Error("preparing UI session", "error", err, "user_id", userID)
		// The page still works; the WebSocket handler creates the
		// session on connect.
		sessionID = newSessionID()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{
		UserID:         userID,
		SessionID:      sessionID,
		WelcomeMessage: h.welcomeMessage,
	}
	if err := indexTemplate.Execute(w, data); err != nil {
		h.logger.Debug("rendering chat page", "error", err)
	}
}

func (h *pagesHandler) resolveSession(r *http.Request, userID string) (string, error) {
	existing, err := h.sessions.List(r.Context(), userID)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return existing[0].ID, nil
	}

	state := agent.InitialState()
	state["source"] = "web_ui"
	sess, err := h.sessions.Create(r.Context(), userID, newSessionID(), state)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}
