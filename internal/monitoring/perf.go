package monitoring

import (
	"sort"
	"sync"
	"time"
)

// Operation categories used with PerformanceTracker.Observe.
const (
	CategoryAPIRequest    = "api_request"
	CategoryModelCall     = "llm_call"
	CategoryToolExecution = "tool_execution"
	CategorySessionStore  = "session_store"
)

// maxSamples caps retained samples per category for percentile math.
const maxSamples = 1000

// CategoryStats summarizes observed latencies for one category.
type CategoryStats struct {
	Count int64   `json:"count"`
	MinMS float64 `json:"min_ms"`
	AvgMS float64 `json:"avg_ms"`
	MaxMS float64 `json:"max_ms"`
	P95MS float64 `json:"p95_ms"`
}

// PerformanceTracker records operation durations by category.
type PerformanceTracker struct {
	mu      sync.Mutex
	samples map[string][]float64 // ms, capped ring per category
	count   map[string]int64
	sum     map[string]float64
	min     map[string]float64
	max     map[string]float64
}

// NewPerformanceTracker creates an empty tracker.
func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{
		samples: make(map[string][]float64),
		count:   make(map[string]int64),
		sum:     make(map[string]float64),
		min:     make(map[string]float64),
		max:     make(map[string]float64),
	}
}

// Observe records one operation duration.
func (t *PerformanceTracker) Observe(category string, d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	t.mu.Lock()
	defer t.mu.Unlock()

	s := append(t.samples[category], ms)
	if len(s) > maxSamples {
		s = s[1:]
	}
	t.samples[category] = s

	if t.count[category] == 0 || ms < t.min[category] {
		t.min[category] = ms
	}
	if ms > t.max[category] {
		t.max[category] = ms
	}
	t.count[category]++
	t.sum[category] += ms
}

// Track runs fn and records its duration under category.
func (t *PerformanceTracker) Track(category string, fn func()) {
	start := time.Now()
	fn()
	t.Observe(category, time.Since(start))
}

// Snapshot returns stats for every observed category.
// Min and max cover the full lifetime; p95 covers the retained window.
func (t *PerformanceTracker) Snapshot() map[string]CategoryStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]CategoryStats, len(t.count))
	for cat, n := range t.count {
		out[cat] = CategoryStats{
			Count: n,
			MinMS: t.min[cat],
			AvgMS: t.sum[cat] / float64(n),
			MaxMS: t.max[cat],
			P95MS: percentile(t.samples[cat], 0.95),
		}
	}
	return out
}

// percentile computes the p-th percentile with nearest-rank rounding.
func percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted))*p+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
