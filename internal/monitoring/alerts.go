package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tellerbot/teller/internal/log"
)

// Alert severity levels.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Alert types.
const (
	AlertErrorRate   = "error_rate"
	AlertGuardrail   = "guardrail"
	AlertPerformance = "performance"
)

// Alert is one triggered alert condition.
type Alert struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// AlertThresholds configures when the manager raises alerts.
type AlertThresholds struct {
	// MaxErrorRate is the failure fraction that triggers an error-rate
	// alert, e.g. 0.05 for 5%.
	MaxErrorRate float64

	// MaxBlockRate is the guardrail-block fraction that triggers a
	// guardrail alert.
	MaxBlockRate float64

	// MaxAvgLatencyMS triggers a performance alert when the average
	// request latency exceeds it.
	MaxAvgLatencyMS float64

	// MinRequests suppresses rate alerts until this many requests have
	// completed, avoiding noise from tiny samples.
	MinRequests int64
}

// DefaultAlertThresholds mirror typical operational defaults.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MaxErrorRate:    0.05,
		MaxBlockRate:    0.10,
		MaxAvgLatencyMS: 2000,
		MinRequests:     20,
	}
}

// AlertManager evaluates metric snapshots against thresholds.
// An alert stays active while its condition holds and resolves on the
// first evaluation where it clears.
type AlertManager struct {
	thresholds AlertThresholds
	logger     log.Logger

	mu     sync.Mutex
	active map[string]Alert // keyed by alert type
}

// NewAlertManager creates a manager with the given thresholds.
func NewAlertManager(thresholds AlertThresholds, logger log.Logger) *AlertManager {
	return &AlertManager{
		thresholds: thresholds,
		logger:     logger.With("component", "monitoring.alerts"),
		active:     make(map[string]Alert),
	}
}

// Evaluate checks the snapshot and returns newly triggered alerts.
func (a *AlertManager) Evaluate(m Metrics) []Alert {
	completed := m.SuccessfulRequests + m.FailedRequests

	type condition struct {
		typ      string
		severity string
		firing   bool
		message  string
	}

	conds := []condition{
		{
			typ:      AlertErrorRate,
			severity: SeverityError,
			firing: completed >= a.thresholds.MinRequests &&
				float64(m.FailedRequests)/float64(max(completed, 1)) > a.thresholds.MaxErrorRate,
			message: fmt.Sprintf("error rate above %.0f%% over %d requests",
				a.thresholds.MaxErrorRate*100, completed),
		},
		{
			typ:      AlertGuardrail,
			severity: SeverityWarning,
			firing: m.TotalRequests >= a.thresholds.MinRequests &&
				float64(m.GuardrailBlocks)/float64(max(m.TotalRequests, 1)) > a.thresholds.MaxBlockRate,
			message: fmt.Sprintf("guardrail block rate above %.0f%%",
				a.thresholds.MaxBlockRate*100),
		},
		{
			typ:      AlertPerformance,
			severity: SeverityWarning,
			firing: completed >= a.thresholds.MinRequests &&
				m.AverageLatencyMS > a.thresholds.MaxAvgLatencyMS,
			message: fmt.Sprintf("average latency %.0fms above %.0fms threshold",
				m.AverageLatencyMS, a.thresholds.MaxAvgLatencyMS),
		},
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var triggered []Alert
	for _, c := range conds {
		_, isActive := a.active[c.typ]
		switch {
		case c.firing && !isActive:
			alert := Alert{
				ID:          c.typ + "-" + uuid.NewString()[:8],
				Type:        c.typ,
				Severity:    c.severity,
				Message:     c.message,
				TriggeredAt: time.Now().UTC(),
			}
			a.active[c.typ] = alert
			triggered = append(triggered, alert)
			a.logger.Warn("alert triggered",
				"alert_id", alert.ID, "type", alert.Type, "message", alert.Message)
		case !c.firing && isActive:
			a.logger.Info("alert resolved", "type", c.typ)
			delete(a.active, c.typ)
		}
	}
	return triggered
}

// Active returns the currently firing alerts.
func (a *AlertManager) Active() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Alert, 0, len(a.active))
	for _, alert := range a.active {
		out = append(out, alert)
	}
	return out
}
