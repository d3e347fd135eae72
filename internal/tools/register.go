// Package tools provides the banking tools and their Genkit registration.
//
// # Architecture
//
// Business logic lives in Handler methods so it can be tested without a
// model. Genkit registration wraps those methods in thin adapters that
// translate guard denials into error-status results, keeping policy
// messages in-band for the model while typed errors stay available to
// the turn runner.
//
// # Tools
//
//  1. say_hello: greeting, optionally by name
//  2. say_goodbye: farewell message
//  3. get_balance: account balance lookup (guarded)
//  4. transfer_money: funds transfer (guarded)
//  5. get_financial_advice: canned guidance by topic and risk profile
package tools

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Tool name constants, the single source of truth for lookups.
const (
	NameSayHello        = "say_hello"
	NameSayGoodbye      = "say_goodbye"
	NameGetBalance      = "get_balance"
	NameTransferMoney   = "transfer_money"
	NameFinancialAdvice = "get_financial_advice"
)

// toolNames lists all registered tool names.
var toolNames = []string{
	NameSayHello,
	NameSayGoodbye,
	NameGetBalance,
	NameTransferMoney,
	NameFinancialAdvice,
}

// ToolNames returns all registered tool names.
func ToolNames() []string {
	return toolNames
}

// statusResult wraps a tool result with the status convention the agent
// instructions reference: "success" with a payload, or "error" with a
// message and no payload.
type statusResult[T any] struct {
	Status       string `json:"status"`
	Result       T      `json:"result,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// guarded adapts a Handler method for Genkit. Guard denials and
// validation failures become error-status results so the model can
// relay the safe message instead of the call failing opaquely.
func guarded[In, Out any](fn func(*ai.ToolContext, In) (Out, error)) func(*ai.ToolContext, In) (statusResult[Out], error) {
	return func(ctx *ai.ToolContext, in In) (statusResult[Out], error) {
		out, err := fn(ctx, in)
		if err != nil {
			if denied, ok := AsDenied(err); ok {
				return statusResult[Out]{Status: "error", ErrorMessage: denied.Decision.Message}, nil
			}
			return statusResult[Out]{Status: "error", ErrorMessage: err.Error()}, nil
		}
		return statusResult[Out]{Status: "success", Result: out}, nil
	}
}

// Register defines all banking tools with Genkit and returns their refs
// for ai.WithTools.
func Register(g *genkit.Genkit, h *Handler) []ai.ToolRef {
	refs := []ai.ToolRef{
		genkit.DefineTool(g, NameSayHello,
			"Provide a friendly greeting to the user. "+
				"Pass the user's name if they mentioned it.",
			h.SayHello),

		genkit.DefineTool(g, NameSayGoodbye,
			"Provide a farewell message to conclude the conversation.",
			h.SayGoodbye),

		genkit.DefineTool(g, NameGetBalance,
			"Retrieve the current balance for a bank account. "+
				"Accepts account names like 'checking', 'savings', or 'retirement'.",
			guarded(h.GetBalance)),

		genkit.DefineTool(g, NameTransferMoney,
			"Transfer money between two accounts. "+
				"Requires the source account, destination account, and a positive amount.",
			guarded(h.TransferMoney)),

		genkit.DefineTool(g, NameFinancialAdvice,
			"Provide general financial advice on savings, investment, or retirement, "+
				"tuned to a conservative, moderate, or aggressive risk profile.",
			guarded(h.FinancialAdvice)),
	}
	return refs
}
