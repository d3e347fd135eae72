package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"teller"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestExecute_UnknownCommand(t *testing.T) {
	withArgs(t, "bogus")

	err := Execute()
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown command")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error = %v, want it to name the command", err)
	}
}

func TestExecute_NoArgsShowsHelp(t *testing.T) {
	withArgs(t)

	if err := Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}

func TestExecute_Version(t *testing.T) {
	withArgs(t, "--version")

	if err := Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}

func TestFetchSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/metrics" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"metrics": {"total_requests": 7, "successful_requests": 6, "failed_requests": 1,
				"success_rate": 0.857, "average_latency_ms": 120.5,
				"top_tools": {"get_balance": 3}, "top_agents": {},
				"guardrail_blocks": 1, "blocks_by_reason": {"blocked_keyword": 1},
				"active_requests": 0},
			"performance": {"llm_call": {"count": 6, "min_ms": 80, "avg_ms": 110, "max_ms": 200, "p95_ms": 190}},
			"active_alerts": [],
			"analytics": {"requests": 7, "unique_users": 2, "requests_per_user": {},
				"intent_distribution": {"balance": 3}, "blocks_by_reason": {},
				"error_rate": 0.14, "average_latency_ms": 120.5}
		}`))
	}))
	defer ts.Close()

	client := &http.Client{}
	snap, err := fetchSnapshot(context.Background(), client, ts.URL)
	if err != nil {
		t.Fatalf("fetchSnapshot() error = %v", err)
	}
	if snap.Metrics.TotalRequests != 7 {
		t.Errorf("TotalRequests = %d, want 7", snap.Metrics.TotalRequests)
	}
	if snap.Performance["llm_call"].Count != 6 {
		t.Errorf("llm_call count = %d, want 6", snap.Performance["llm_call"].Count)
	}
	if snap.Analytics.IntentDistribution["balance"] != 3 {
		t.Errorf("intent balance = %d, want 3", snap.Analytics.IntentDistribution["balance"])
	}
}

func TestFetchSnapshot_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	if _, err := fetchSnapshot(context.Background(), &http.Client{}, ts.URL); err == nil {
		t.Fatal("fetchSnapshot() = nil error, want failure on 500")
	}
}
