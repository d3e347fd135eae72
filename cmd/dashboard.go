package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/tellerbot/teller/internal/monitoring"
	"github.com/tellerbot/teller/internal/session"
)

const (
	dashboardDefaultURL   = "http://127.0.0.1:8000"
	dashboardPollInterval = 5 * time.Second
	dashboardHTTPTimeout  = 10 * time.Second
)

// dashboardSnapshot mirrors the body of GET /api/metrics.
type dashboardSnapshot struct {
	Metrics      monitoring.Metrics                  `json:"metrics"`
	Performance  map[string]monitoring.CategoryStats `json:"performance"`
	ActiveAlerts []monitoring.Alert                  `json:"active_alerts"`
	Analytics    monitoring.AnalyticsReport          `json:"analytics"`
	Sessions     *session.Stats                      `json:"sessions,omitempty"`
}

// runDashboard polls a running server's metrics endpoint and renders a
// terminal dashboard until interrupted.
func runDashboard() error {
	baseURL := dashboardDefaultURL
	if len(os.Args) > 2 {
		baseURL = strings.TrimRight(os.Args[2], "/")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := &http.Client{Timeout: dashboardHTTPTimeout}
	ticker := time.NewTicker(dashboardPollInterval)
	defer ticker.Stop()

	for {
		snap, err := fetchSnapshot(ctx, client, baseURL)
		if err != nil {
			fmt.Printf("fetching metrics from %s: %v (retrying in %s)\n",
				baseURL, err, dashboardPollInterval)
		} else {
			render(snap, baseURL)
		}

		select {
		case <-ctx.Done():
			fmt.Println("dashboard stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func fetchSnapshot(ctx context.Context, client *http.Client, baseURL string) (*dashboardSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/metrics", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metrics endpoint returned %s", resp.Status)
	}

	var snap dashboardSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding metrics: %w", err)
	}
	return &snap, nil
}

// render clears the terminal and prints the current snapshot.
func render(snap *dashboardSnapshot, baseURL string) {
	fmt.Print("\033[2J\033[H")

	fmt.Printf("Banking Assistant Dashboard  %s  %s\n",
		baseURL, time.Now().Format("15:04:05"))
	fmt.Println(strings.Repeat("=", 64))

	m := snap.Metrics
	fmt.Printf("Requests: %d total, %d ok, %d failed (%.1f%% success), %d active\n",
		m.TotalRequests, m.SuccessfulRequests, m.FailedRequests,
		m.SuccessRate*100, m.ActiveRequests)
	fmt.Printf("Average latency: %.1f ms   Guardrail blocks: %d\n",
		m.AverageLatencyMS, m.GuardrailBlocks)

	if len(m.BlocksByReason) > 0 {
		fmt.Printf("Blocks by reason: %s\n", formatCounts64(m.BlocksByReason))
	}
	if len(m.TopTools) > 0 {
		fmt.Printf("Top tools:  %s\n", formatCounts64(m.TopTools))
	}
	if len(m.TopAgents) > 0 {
		fmt.Printf("Top agents: %s\n", formatCounts64(m.TopAgents))
	}

	if len(snap.Analytics.IntentDistribution) > 0 {
		fmt.Println()
		fmt.Printf("Recent intents (%d requests, %d users): %s\n",
			snap.Analytics.Requests, snap.Analytics.UniqueUsers,
			formatCounts(snap.Analytics.IntentDistribution))
	}

	if len(snap.Performance) > 0 {
		fmt.Println()
		fmt.Println("Performance (ms):")
		cats := make([]string, 0, len(snap.Performance))
		for cat := range snap.Performance {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			s := snap.Performance[cat]
			fmt.Printf("  %-16s n=%-6d min=%-8.1f avg=%-8.1f p95=%-8.1f max=%.1f\n",
				cat, s.Count, s.MinMS, s.AvgMS, s.P95MS, s.MaxMS)
		}
	}

	if snap.Sessions != nil {
		s := snap.Sessions
		fmt.Println()
		fmt.Printf("Sessions: %d active (%d created, %d updated, %d expired, %d deleted)\n",
			s.Active, s.Created, s.Updated, s.Expired, s.Deleted)
	}

	fmt.Println()
	if len(snap.ActiveAlerts) == 0 {
		fmt.Println("Alerts: none")
	} else {
		fmt.Printf("Alerts (%d active):\n", len(snap.ActiveAlerts))
		for _, a := range snap.ActiveAlerts {
			fmt.Printf("  [%s] %s: %s\n", strings.ToUpper(a.Severity), a.Type, a.Message)
		}
	}
}

func formatCounts(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for k, v := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, "  ")
}

func formatCounts64(counts map[string]int64) string {
	parts := make([]string, 0, len(counts))
	for k, v := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, "  ")
}
