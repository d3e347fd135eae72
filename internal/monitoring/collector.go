// Package monitoring collects operational metrics for the assistant.
//
// The Collector tracks per-request lifecycles and aggregates; the
// PerformanceTracker records operation latencies by category; the
// AlertManager evaluates threshold rules against snapshots; the
// UsageReporter periodically logs a summary and runs alert evaluation.
// Analytics derives usage breakdowns from recent request records.
//
// Everything is dependency-injected service objects, no package-level
// singletons, and all types are safe for concurrent use.
package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/tellerbot/teller/internal/log"
)

// maxHistory caps the in-memory ring of completed request records.
const maxHistory = 1000

// RequestRecord captures everything observed during one request.
type RequestRecord struct {
	RequestID       string         `json:"request_id"`
	UserID          string         `json:"user_id"`
	SessionID       string         `json:"session_id"`
	Timestamp       time.Time      `json:"timestamp"`
	LatencyMS       float64        `json:"latency_ms"`
	Intent          string         `json:"intent,omitempty"`
	ModelCalls      int            `json:"model_calls"`
	ToolCalls       map[string]int `json:"tool_calls,omitempty"`
	AgentCalls      map[string]int `json:"agent_calls,omitempty"`
	GuardrailBlocks int            `json:"guardrail_blocks"`
	BlockReason     string         `json:"block_reason,omitempty"`
	Errors          []string       `json:"errors,omitempty"`
	Success         bool           `json:"success"`

	start time.Time
}

// Metrics is an aggregate snapshot across all completed requests.
type Metrics struct {
	TotalRequests      int64              `json:"total_requests"`
	SuccessfulRequests int64              `json:"successful_requests"`
	FailedRequests     int64              `json:"failed_requests"`
	SuccessRate        float64            `json:"success_rate"`
	AverageLatencyMS   float64            `json:"average_latency_ms"`
	TopTools           map[string]int64   `json:"top_tools"`
	TopAgents          map[string]int64   `json:"top_agents"`
	GuardrailBlocks    int64              `json:"guardrail_blocks"`
	BlocksByReason     map[string]int64   `json:"blocks_by_reason"`
	ActiveRequests     int                `json:"active_requests"`
}

// Sink receives completed request records for durable storage.
type Sink interface {
	Record(rec RequestRecord) error
}

// Collector tracks request lifecycles and aggregate counters.
type Collector struct {
	logger log.Logger
	sink   Sink // optional

	mu      sync.Mutex
	active  map[string]*RequestRecord
	history []RequestRecord

	totalRequests   int64
	successful      int64
	failed          int64
	totalLatencyMS  float64
	toolUsage       map[string]int64
	agentUsage      map[string]int64
	guardrailBlocks int64
	blocksByReason  map[string]int64
}

// NewCollector creates a collector. sink may be nil to keep metrics
// in memory only.
func NewCollector(sink Sink, logger log.Logger) *Collector {
	return &Collector{
		logger:         logger.With("component", "monitoring.collector"),
		sink:           sink,
		active:         make(map[string]*RequestRecord),
		toolUsage:      make(map[string]int64),
		agentUsage:     make(map[string]int64),
		blocksByReason: make(map[string]int64),
	}
}

// StartRequest begins tracking a request.
func (c *Collector) StartRequest(requestID, userID, sessionID string) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active[requestID] = &RequestRecord{
		RequestID:  requestID,
		UserID:     userID,
		SessionID:  sessionID,
		Timestamp:  now.UTC(),
		ToolCalls:  make(map[string]int),
		AgentCalls: make(map[string]int),
		start:      now,
	}
	c.totalRequests++
}

// RecordModelCall counts a model invocation for the request.
func (c *Collector) RecordModelCall(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.active[requestID]; ok {
		rec.ModelCalls++
	}
}

// RecordToolCall counts a tool invocation for the request.
func (c *Collector) RecordToolCall(requestID, toolName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.active[requestID]; ok {
		rec.ToolCalls[toolName]++
		c.toolUsage[toolName]++
	}
}

// RecordAgentCall counts a specialized agent invocation for the request.
func (c *Collector) RecordAgentCall(requestID, agentName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.active[requestID]; ok {
		rec.AgentCalls[agentName]++
		c.agentUsage[agentName]++
	}
}

// RecordGuardrailBlock counts a guardrail denial for the request.
func (c *Collector) RecordGuardrailBlock(requestID, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.active[requestID]; ok {
		rec.GuardrailBlocks++
		rec.BlockReason = reason
		c.guardrailBlocks++
		c.blocksByReason[reason]++
	}
}

// RecordIntent notes the routed intent for the request.
func (c *Collector) RecordIntent(requestID, intent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.active[requestID]; ok {
		rec.Intent = intent
	}
}

// RecordError appends an error message to the request record.
func (c *Collector) RecordError(requestID, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.active[requestID]; ok {
		rec.Errors = append(rec.Errors, message)
	}
}

// CompleteRequest finalizes a request, folds it into the aggregates,
// and hands it to the sink. Unknown request IDs return nil.
func (c *Collector) CompleteRequest(requestID string, success bool) *RequestRecord {
	c.mu.Lock()
	rec, ok := c.active[requestID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.active, requestID)

	rec.LatencyMS = float64(time.Since(rec.start)) / float64(time.Millisecond)
	rec.Success = success

	if success {
		c.successful++
	} else {
		c.failed++
	}
	c.totalLatencyMS += rec.LatencyMS

	c.history = append(c.history, *rec)
	if len(c.history) > maxHistory {
		c.history = c.history[1:]
	}
	sink := c.sink
	c.mu.Unlock()

	if sink != nil {
		if err := sink.Record(*rec); err != nil {
			c.logger.Warn("metrics sink write failed", "request_id", requestID, "error", err)
		}
	}
	return rec
}

// Snapshot returns the current aggregate metrics.
func (c *Collector) Snapshot() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := Metrics{
		TotalRequests:      c.totalRequests,
		SuccessfulRequests: c.successful,
		FailedRequests:     c.failed,
		GuardrailBlocks:    c.guardrailBlocks,
		ActiveRequests:     len(c.active),
		TopTools:           topN(c.toolUsage, 5),
		TopAgents:          topN(c.agentUsage, 5),
		BlocksByReason:     copyCounts(c.blocksByReason),
	}
	completed := c.successful + c.failed
	if completed > 0 {
		m.SuccessRate = float64(c.successful) / float64(completed)
		m.AverageLatencyMS = c.totalLatencyMS / float64(completed)
	}
	return m
}

// Recent returns up to n of the most recent completed request records,
// newest last.
func (c *Collector) Recent(n int) []RequestRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 || n > len(c.history) {
		n = len(c.history)
	}
	out := make([]RequestRecord, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// topN returns the n highest-count entries.
func topN(in map[string]int64, n int) map[string]int64 {
	type kv struct {
		k string
		v int64
	}
	pairs := make([]kv, 0, len(in))
	for k, v := range in {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].v != pairs[j].v {
			return pairs[i].v > pairs[j].v
		}
		return pairs[i].k < pairs[j].k
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make(map[string]int64, len(pairs))
	for _, p := range pairs {
		out[p.k] = p.v
	}
	return out
}
