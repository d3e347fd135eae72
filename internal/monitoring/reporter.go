package monitoring

import (
	"sync"
	"time"

	"github.com/tellerbot/teller/internal/log"
)

// UsageReporter periodically logs a usage summary and runs alert
// evaluation. It owns the only background goroutine in this package.
type UsageReporter struct {
	collector *Collector
	alerts    *AlertManager
	interval  time.Duration
	logger    log.Logger

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewUsageReporter creates a reporter and starts its background loop.
// alerts may be nil to report without alert evaluation.
func NewUsageReporter(collector *Collector, alerts *AlertManager, interval time.Duration, logger log.Logger) *UsageReporter {
	r := &UsageReporter{
		collector: collector,
		alerts:    alerts,
		interval:  interval,
		logger:    logger.With("component", "monitoring.reporter"),
		done:      make(chan struct{}),
	}

	r.wg.Add(1)
	go r.loop()
	return r
}

// Close stops the background loop.
func (r *UsageReporter) Close() error {
	r.once.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	return nil
}

func (r *UsageReporter) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.report()
		}
	}
}

// report emits one usage summary, evaluating alerts first so the log
// line reflects current alert state.
func (r *UsageReporter) report() {
	m := r.collector.Snapshot()

	activeAlerts := 0
	if r.alerts != nil {
		r.alerts.Evaluate(m)
		activeAlerts = len(r.alerts.Active())
	}

	r.logger.Info("usage report",
		"total_requests", m.TotalRequests,
		"success_rate", m.SuccessRate,
		"average_latency_ms", m.AverageLatencyMS,
		"guardrail_blocks", m.GuardrailBlocks,
		"active_requests", m.ActiveRequests,
		"active_alerts", activeAlerts)
}
