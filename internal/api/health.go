package api

import (
	"net/http"
	"time"

	"github.com/tellerbot/teller/internal/log"
)

// healthHandler serves liveness probes with basic deployment info.
type healthHandler struct {
	appName        string
	sessionBackend string
	logger         log.Logger
}

func (h *healthHandler) get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"config": map[string]string{
			"app_name":     h.appName,
			"session_type": h.sessionBackend,
		},
	}, h.logger)
}
