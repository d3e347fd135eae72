package api

import (
	"net/http"
	"strconv"

	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/monitoring"
	"github.com/tellerbot/teller/internal/session"
)

// analyticsWindow is the default number of recent requests summarized
// in the analytics section.
const analyticsWindow = 100

// metricsHandler serves the operational snapshot for the dashboard.
type metricsHandler struct {
	collector *monitoring.Collector
	perf      *monitoring.PerformanceTracker
	alerts    *monitoring.AlertManager
	analytics *monitoring.Analytics
	sessions  session.Service
	logger    log.Logger
}

// metricsResponse is the body of GET /api/metrics.
type metricsResponse struct {
	Metrics      monitoring.Metrics                  `json:"metrics"`
	Performance  map[string]monitoring.CategoryStats `json:"performance"`
	ActiveAlerts []monitoring.Alert                  `json:"active_alerts"`
	Analytics    monitoring.AnalyticsReport          `json:"analytics"`
	Sessions     *session.Stats                      `json:"sessions,omitempty"`
	Recent       []monitoring.RequestRecord          `json:"recent_requests,omitempty"`
}

// get handles GET /api/metrics.
// Query parameters: recent=N includes the last N request records.
func (h *metricsHandler) get(w http.ResponseWriter, r *http.Request) {
	snapshot := h.collector.Snapshot()
	h.alerts.Evaluate(snapshot)

	resp := metricsResponse{
		Metrics:      snapshot,
		Performance:  h.perf.Snapshot(),
		ActiveAlerts: h.alerts.Active(),
		Analytics:    h.analytics.Report(analyticsWindow),
	}

	// Only backends that count lifecycle events expose stats.
	if provider, ok := h.sessions.(session.StatsProvider); ok {
		stats := provider.Stats()
		resp.Sessions = &stats
	}

	if raw := r.URL.Query().Get("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_recent", "recent must be a non-negative integer", h.logger)
			return
		}
		resp.Recent = h.collector.Recent(n)
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}
