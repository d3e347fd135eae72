package agent

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenerateRequest carries one model invocation.
type GenerateRequest struct {
	// System is the agent instruction for this turn.
	System string

	// Prompt is the user message.
	Prompt string

	// Tools the model may call during this turn.
	Tools []ai.ToolRef

	// MaxTurns bounds the tool-calling loop.
	MaxTurns int
}

// Generator abstracts model text generation so the turn runner can be
// tested with a stub.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenkitGenerator generates text through a Genkit model.
type GenkitGenerator struct {
	g     *genkit.Genkit
	model string
}

// NewGenkitGenerator creates a generator bound to a provider-qualified
// model name, e.g. "googleai/gemini-2.5-flash".
func NewGenkitGenerator(g *genkit.Genkit, model string) *GenkitGenerator {
	return &GenkitGenerator{g: g, model: model}
}

// Generate runs one model call, including any tool-calling turns.
func (gen *GenkitGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(gen.model),
		ai.WithSystem(req.System),
		ai.WithPrompt(req.Prompt),
	}
	if len(req.Tools) > 0 {
		opts = append(opts, ai.WithTools(req.Tools...))
	}
	if req.MaxTurns > 0 {
		opts = append(opts, ai.WithMaxTurns(req.MaxTurns))
	}

	resp, err := genkit.Generate(ctx, gen.g, opts...)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}
	return resp.Text(), nil
}

// ModelClassifier classifies intent with a small model call and falls
// back to keyword matching when the model fails or returns an
// unrecognized label.
type ModelClassifier struct {
	g        *genkit.Genkit
	model    string
	fallback KeywordClassifier
}

// NewModelClassifier creates a classifier bound to a provider-qualified
// model name. A cheaper model than the main agent model is fine here.
func NewModelClassifier(g *genkit.Genkit, model string) *ModelClassifier {
	return &ModelClassifier{g: g, model: model}
}

const classifierSystem = `You are an intent classifier for a banking assistant.
Classify the user message into exactly one of these labels:
greeting, farewell, balance, transfer, advice, unknown.

Respond with only the label, nothing else.`

// Classify labels the message. Classification never fails hard: on any
// model problem the keyword fallback decides.
func (c *ModelClassifier) Classify(ctx context.Context, message string) (Intent, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.model),
		ai.WithSystem(classifierSystem),
		ai.WithPrompt(message),
	)
	if err != nil {
		return c.fallback.Classify(ctx, message)
	}

	if intent, ok := ParseIntent(resp.Text()); ok {
		return intent, nil
	}
	return c.fallback.Classify(ctx, message)
}
