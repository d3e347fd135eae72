package monitoring

import (
	"testing"

	"github.com/tellerbot/teller/internal/log"
)

func testThresholds() AlertThresholds {
	return AlertThresholds{
		MaxErrorRate:    0.05,
		MaxBlockRate:    0.10,
		MaxAvgLatencyMS: 2000,
		MinRequests:     10,
	}
}

func TestAlertManager_ErrorRate(t *testing.T) {
	a := NewAlertManager(testThresholds(), log.NewNop())

	healthy := Metrics{TotalRequests: 100, SuccessfulRequests: 99, FailedRequests: 1}
	if alerts := a.Evaluate(healthy); len(alerts) != 0 {
		t.Errorf("Evaluate(healthy) triggered %v", alerts)
	}

	degraded := Metrics{TotalRequests: 100, SuccessfulRequests: 90, FailedRequests: 10}
	alerts := a.Evaluate(degraded)
	if len(alerts) != 1 {
		t.Fatalf("Evaluate(degraded) triggered %d alerts, want 1", len(alerts))
	}
	if alerts[0].Type != AlertErrorRate {
		t.Errorf("alert type = %q, want %q", alerts[0].Type, AlertErrorRate)
	}
	if alerts[0].Severity != SeverityError {
		t.Errorf("severity = %q, want %q", alerts[0].Severity, SeverityError)
	}
}

// While a condition keeps firing no duplicate alert is raised; when it
// clears the alert resolves and can fire again later.
func TestAlertManager_NoDuplicatesAndResolution(t *testing.T) {
	a := NewAlertManager(testThresholds(), log.NewNop())

	degraded := Metrics{TotalRequests: 100, SuccessfulRequests: 80, FailedRequests: 20}
	if got := len(a.Evaluate(degraded)); got != 1 {
		t.Fatalf("first Evaluate triggered %d alerts, want 1", got)
	}
	if got := len(a.Evaluate(degraded)); got != 0 {
		t.Errorf("second Evaluate triggered %d alerts, want 0 (still active)", got)
	}
	if got := len(a.Active()); got != 1 {
		t.Errorf("Active() = %d alerts, want 1", got)
	}

	healthy := Metrics{TotalRequests: 200, SuccessfulRequests: 199, FailedRequests: 1}
	a.Evaluate(healthy)
	if got := len(a.Active()); got != 0 {
		t.Errorf("Active() after recovery = %d alerts, want 0", got)
	}

	if got := len(a.Evaluate(degraded)); got != 1 {
		t.Errorf("re-trigger after resolution = %d alerts, want 1", got)
	}
}

func TestAlertManager_MinRequestsSuppressesNoise(t *testing.T) {
	a := NewAlertManager(testThresholds(), log.NewNop())

	// 1 failure out of 2 is a 50% error rate, but the sample is tiny.
	tiny := Metrics{TotalRequests: 2, SuccessfulRequests: 1, FailedRequests: 1}
	if alerts := a.Evaluate(tiny); len(alerts) != 0 {
		t.Errorf("Evaluate(tiny sample) triggered %v", alerts)
	}
}

func TestAlertManager_GuardrailAndLatency(t *testing.T) {
	a := NewAlertManager(testThresholds(), log.NewNop())

	m := Metrics{
		TotalRequests:      100,
		SuccessfulRequests: 100,
		GuardrailBlocks:    20,
		AverageLatencyMS:   3000,
	}
	alerts := a.Evaluate(m)
	if len(alerts) != 2 {
		t.Fatalf("Evaluate() triggered %d alerts, want 2", len(alerts))
	}

	types := map[string]bool{}
	for _, al := range alerts {
		types[al.Type] = true
	}
	if !types[AlertGuardrail] || !types[AlertPerformance] {
		t.Errorf("alert types = %v, want guardrail and performance", types)
	}
}
