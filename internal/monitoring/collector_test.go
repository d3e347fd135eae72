package monitoring

import (
	"fmt"
	"sync"
	"testing"

	"github.com/tellerbot/teller/internal/log"
)

func TestCollector_RequestLifecycle(t *testing.T) {
	c := NewCollector(nil, log.NewNop())

	c.StartRequest("r1", "u1", "s1")
	c.RecordModelCall("r1")
	c.RecordToolCall("r1", "get_balance")
	c.RecordAgentCall("r1", "balance_agent")
	c.RecordIntent("r1", "balance")

	rec := c.CompleteRequest("r1", true)
	if rec == nil {
		t.Fatal("CompleteRequest() returned nil")
	}
	if rec.ModelCalls != 1 {
		t.Errorf("ModelCalls = %d, want 1", rec.ModelCalls)
	}
	if rec.ToolCalls["get_balance"] != 1 {
		t.Errorf("ToolCalls = %v", rec.ToolCalls)
	}
	if rec.Intent != "balance" {
		t.Errorf("Intent = %q, want balance", rec.Intent)
	}
	if !rec.Success {
		t.Error("Success = false")
	}
	if rec.LatencyMS < 0 {
		t.Errorf("LatencyMS = %v", rec.LatencyMS)
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector(nil, log.NewNop())

	c.StartRequest("ok", "u1", "s1")
	c.RecordToolCall("ok", "say_hello")
	c.CompleteRequest("ok", true)

	c.StartRequest("fail", "u1", "s1")
	c.RecordError("fail", "model unavailable")
	c.CompleteRequest("fail", false)

	c.StartRequest("blocked", "u2", "s2")
	c.RecordGuardrailBlock("blocked", "blocked_keyword")
	c.CompleteRequest("blocked", true)

	c.StartRequest("pending", "u3", "s3")

	m := c.Snapshot()
	if m.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", m.TotalRequests)
	}
	if m.SuccessfulRequests != 2 || m.FailedRequests != 1 {
		t.Errorf("success/failed = %d/%d, want 2/1", m.SuccessfulRequests, m.FailedRequests)
	}
	if m.ActiveRequests != 1 {
		t.Errorf("ActiveRequests = %d, want 1", m.ActiveRequests)
	}
	if m.GuardrailBlocks != 1 {
		t.Errorf("GuardrailBlocks = %d, want 1", m.GuardrailBlocks)
	}
	if m.BlocksByReason["blocked_keyword"] != 1 {
		t.Errorf("BlocksByReason = %v", m.BlocksByReason)
	}
	wantRate := 2.0 / 3.0
	if diff := m.SuccessRate - wantRate; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("SuccessRate = %v, want %v", m.SuccessRate, wantRate)
	}
}

func TestCollector_UnknownRequestIsIgnored(t *testing.T) {
	c := NewCollector(nil, log.NewNop())

	// None of these should panic or affect aggregates.
	c.RecordToolCall("ghost", "say_hello")
	c.RecordGuardrailBlock("ghost", "pii_detected")
	if rec := c.CompleteRequest("ghost", true); rec != nil {
		t.Errorf("CompleteRequest(ghost) = %v, want nil", rec)
	}

	m := c.Snapshot()
	if m.TotalRequests != 0 || m.GuardrailBlocks != 0 {
		t.Errorf("Snapshot() = %+v, want zeroes", m)
	}
}

func TestCollector_RecentIsCappedAndOrdered(t *testing.T) {
	c := NewCollector(nil, log.NewNop())

	for i := range 10 {
		id := fmt.Sprintf("r%d", i)
		c.StartRequest(id, "u1", "s1")
		c.CompleteRequest(id, true)
	}

	recent := c.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Recent(3) returned %d records", len(recent))
	}
	if recent[2].RequestID != "r9" {
		t.Errorf("newest record = %q, want r9", recent[2].RequestID)
	}

	all := c.Recent(0)
	if len(all) != 10 {
		t.Errorf("Recent(0) returned %d records, want 10", len(all))
	}
}

func TestCollector_ConcurrentUse(t *testing.T) {
	c := NewCollector(nil, log.NewNop())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			c.StartRequest(id, "u1", "s1")
			c.RecordToolCall(id, "transfer_money")
			c.CompleteRequest(id, i%2 == 0)
		}(i)
	}
	wg.Wait()

	m := c.Snapshot()
	if m.TotalRequests != 50 {
		t.Errorf("TotalRequests = %d, want 50", m.TotalRequests)
	}
	if m.SuccessfulRequests+m.FailedRequests != 50 {
		t.Errorf("completed = %d, want 50", m.SuccessfulRequests+m.FailedRequests)
	}
	if m.TopTools["transfer_money"] != 50 {
		t.Errorf("TopTools = %v", m.TopTools)
	}
}

func TestTopN(t *testing.T) {
	counts := map[string]int64{"a": 5, "b": 10, "c": 1, "d": 7, "e": 3, "f": 2}

	top := topN(counts, 3)
	if len(top) != 3 {
		t.Fatalf("topN returned %d entries", len(top))
	}
	for _, k := range []string{"b", "d", "a"} {
		if _, ok := top[k]; !ok {
			t.Errorf("topN missing %q: %v", k, top)
		}
	}
}
