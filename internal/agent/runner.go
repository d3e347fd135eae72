// Package agent implements the conversational core: intent
// classification, specialized agent personas, and the turn runner that
// ties guardrails, sessions, tools, and the model together.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/tellerbot/teller/internal/guard"
	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/monitoring"
	"github.com/tellerbot/teller/internal/session"
	"github.com/tellerbot/teller/internal/tools"
)

// fallbackMessage is returned when generation fails. The real error is
// recorded in metrics and logs, never shown to the user.
const fallbackMessage = "I'm sorry, I encountered an error processing your request. Please try again."

// defaultMaxTurns bounds the model's tool-calling loop per turn.
const defaultMaxTurns = 5

// Reply is the outcome of one processed user message.
type Reply struct {
	RequestID    string `json:"request_id"`
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	Text         string `json:"response"`
	Intent       string `json:"intent"`
	Agent        string `json:"agent"`
	Blocked      bool   `json:"blocked"`
	BlockReason  string `json:"block_reason,omitempty"`
	MessageCount int    `json:"message_count"`
}

// RunnerConfig carries the runner's dependencies. All fields except
// Perf and MaxTurns are required.
type RunnerConfig struct {
	AppName    string
	Classifier Classifier
	Generator  Generator
	Tools      []ai.ToolRef
	InputGuard *guard.InputGuard
	Sessions   session.Service
	Collector  *monitoring.Collector
	Perf       *monitoring.PerformanceTracker
	MaxTurns   int
	Logger     log.Logger
}

// Runner processes user messages end to end: guardrails first, then
// intent routing to a specialized agent, then model generation with
// that agent's tools, with the session and metrics updated throughout.
type Runner struct {
	appName    string
	classifier Classifier
	generator  Generator
	toolRefs   map[string]ai.ToolRef
	inputGuard *guard.InputGuard
	sessions   session.Service
	collector  *monitoring.Collector
	perf       *monitoring.PerformanceTracker
	maxTurns   int
	logger     log.Logger
}

// NewRunner creates a runner from its dependencies.
func NewRunner(cfg RunnerConfig) *Runner {
	refs := make(map[string]ai.ToolRef, len(cfg.Tools))
	for _, ref := range cfg.Tools {
		refs[ref.Name()] = ref
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	return &Runner{
		appName:    cfg.AppName,
		classifier: cfg.Classifier,
		generator:  cfg.Generator,
		toolRefs:   refs,
		inputGuard: cfg.InputGuard,
		sessions:   cfg.Sessions,
		collector:  cfg.Collector,
		perf:       cfg.Perf,
		maxTurns:   maxTurns,
		logger:     cfg.Logger.With("component", "agent.runner"),
	}
}

// InitialState is the state every new session starts with. Users begin
// unauthenticated and must authenticate through a session state update.
func InitialState() map[string]any {
	return map[string]any{
		session.KeyAuthenticated: false,
		session.KeyMessageCount:  0,
	}
}

// Process handles one user message and returns the assistant's reply.
//
// A guardrail block or a model failure is a handled outcome, not an
// error: the reply carries the denial or fallback text. An error return
// means the session backend failed and nothing was processed.
func (r *Runner) Process(ctx context.Context, userID, sessionID, message string) (*Reply, error) {
	requestID := uuid.NewString()
	r.collector.StartRequest(requestID, userID, sessionID)

	sess, err := r.ensureSession(ctx, userID, sessionID)
	if err != nil {
		r.collector.RecordError(requestID, err.Error())
		r.collector.CompleteRequest(requestID, false)
		return nil, fmt.Errorf("loading session: %w", err)
	}

	count := sess.IncrementMessageCount()

	reply := &Reply{
		RequestID:    requestID,
		UserID:       userID,
		SessionID:    sessionID,
		MessageCount: count,
	}

	// Input guardrails run before the message reaches any model.
	if d := r.inputGuard.Check(message); !d.Allowed {
		sess.IncrementBlockedInputCount()
		r.collector.RecordGuardrailBlock(requestID, d.Reason)
		r.logger.Warn("message blocked",
			"request_id", requestID, "user_id", userID, "reason", d.Reason)

		reply.Text = d.Message
		reply.Blocked = true
		reply.BlockReason = d.Reason
		return r.finish(ctx, sess, reply, true)
	}

	intent, err := r.classifier.Classify(ctx, message)
	if err != nil {
		// Classification is best effort; the root agent absorbs the rest.
		r.logger.Warn("intent classification failed", "request_id", requestID, "error", err)
		intent = IntentUnknown
	}
	persona := PersonaFor(intent)

	sess.SetLastIntent(string(intent))
	r.collector.RecordIntent(requestID, string(intent))
	r.collector.RecordAgentCall(requestID, persona.Name)
	reply.Intent = string(intent)
	reply.Agent = persona.Name

	// Tool handlers read the session and request ID from the context.
	genCtx := tools.ContextWithSession(ctx, sess)
	genCtx = tools.ContextWithRequestID(genCtx, requestID)

	r.collector.RecordModelCall(requestID)
	start := time.Now()
	text, err := r.generator.Generate(genCtx, GenerateRequest{
		System:   persona.Instruction,
		Prompt:   message,
		Tools:    r.refsFor(persona),
		MaxTurns: r.maxTurns,
	})
	if r.perf != nil {
		r.perf.Observe(monitoring.CategoryModelCall, time.Since(start))
	}
	if err != nil {
		r.collector.RecordError(requestID, err.Error())
		r.logger.Error("generation failed",
			"request_id", requestID, "agent", persona.Name, "error", err)

		reply.Text = fallbackMessage
		return r.finish(ctx, sess, reply, false)
	}

	reply.Text = text
	return r.finish(ctx, sess, reply, true)
}

// ensureSession loads the session, creating it on first contact.
func (r *Runner) ensureSession(ctx context.Context, userID, sessionID string) (*session.Session, error) {
	sess, err := r.sessions.Get(ctx, userID, sessionID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}
	return r.sessions.Create(ctx, userID, sessionID, InitialState())
}

// finish persists the session and completes the request record.
// Tool calls mutated the session in place during generation, so the
// update runs after the model turn, not before.
func (r *Runner) finish(ctx context.Context, sess *session.Session, reply *Reply, success bool) (*Reply, error) {
	start := time.Now()
	err := r.sessions.Update(ctx, sess)
	if r.perf != nil {
		r.perf.Observe(monitoring.CategorySessionStore, time.Since(start))
	}
	if err != nil {
		r.collector.RecordError(reply.RequestID, err.Error())
		r.collector.CompleteRequest(reply.RequestID, false)
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	r.collector.CompleteRequest(reply.RequestID, success)
	return reply, nil
}

// refsFor resolves a persona's tool names to registered refs.
func (r *Runner) refsFor(p Persona) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, len(p.Tools))
	for _, name := range p.Tools {
		if ref, ok := r.toolRefs[name]; ok {
			refs = append(refs, ref)
		}
	}
	return refs
}
