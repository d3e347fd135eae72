package tools

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"

	"github.com/tellerbot/teller/internal/account"
	"github.com/tellerbot/teller/internal/guard"
	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/session"
)

func sessionTransferRecord(receipt account.Receipt, timestamp string) session.TransferRecord {
	return session.TransferRecord{
		TransactionID: receipt.TransactionID,
		Source:        receipt.Source,
		Destination:   receipt.Destination,
		Amount:        receipt.Amount,
		Timestamp:     timestamp,
	}
}

// Recorder receives tool activity for metrics. Implemented by the
// monitoring collector; may be nil.
type Recorder interface {
	RecordToolCall(requestID, toolName string)
	RecordGuardrailBlock(requestID, reason string)
}

// Handler holds the dependencies for all banking tools.
// Guard checks run inside the handler methods, before any ledger access,
// so policy enforcement does not depend on the model calling tools in a
// particular order.
type Handler struct {
	accounts   *account.Store
	guards     *guard.ToolGuard
	minBalance float64
	recorder   Recorder
	logger     log.Logger
}

// NewHandler creates a tool handler. recorder may be nil.
func NewHandler(accounts *account.Store, guards *guard.ToolGuard, minBalance float64, recorder Recorder, logger log.Logger) *Handler {
	return &Handler{
		accounts:   accounts,
		guards:     guards,
		minBalance: minBalance,
		recorder:   recorder,
		logger:     logger.With("component", "tools"),
	}
}

func (h *Handler) recordCall(ctx *ai.ToolContext, toolName string) {
	if h.recorder != nil {
		h.recorder.RecordToolCall(RequestIDFromContext(ctx.Context), toolName)
	}
}

func (h *Handler) recordBlock(ctx *ai.ToolContext, reason string) {
	if h.recorder != nil {
		h.recorder.RecordGuardrailBlock(RequestIDFromContext(ctx.Context), reason)
	}
}

// HelloInput is the input for the say_hello tool.
type HelloInput struct {
	// Name of the person to greet. Optional.
	Name string `json:"name,omitempty"`
}

// HelloOutput is the result of the say_hello tool.
type HelloOutput struct {
	Greeting string `json:"greeting"`
}

// SayHello produces a friendly greeting, optionally by name.
func (h *Handler) SayHello(ctx *ai.ToolContext, in HelloInput) (HelloOutput, error) {
	h.recordCall(ctx, NameSayHello)

	name := in.Name
	if name == "" {
		name = "there"
	}
	return HelloOutput{
		Greeting: fmt.Sprintf("Hello, %s! Welcome to your banking assistant. How can I help you today?", name),
	}, nil
}

// GoodbyeInput is the (empty) input for the say_goodbye tool.
type GoodbyeInput struct{}

// GoodbyeOutput is the result of the say_goodbye tool.
type GoodbyeOutput struct {
	Farewell string `json:"farewell"`
}

// SayGoodbye produces the closing message for a conversation.
func (h *Handler) SayGoodbye(ctx *ai.ToolContext, _ GoodbyeInput) (GoodbyeOutput, error) {
	h.recordCall(ctx, NameSayGoodbye)

	return GoodbyeOutput{
		Farewell: "Thank you for using our banking services. Have a great day!",
	}, nil
}

// BalanceInput is the input for the get_balance tool.
type BalanceInput struct {
	// AccountID names the account, e.g. "checking" or "savings".
	AccountID string `json:"account_id"`
}

// BalanceOutput is the result of the get_balance tool.
type BalanceOutput struct {
	AccountID   string  `json:"account_id"`
	AccountType string  `json:"account_type"`
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency"`
}

// GetBalance looks up an account balance.
// On success it records the account in session state as the last one
// checked. Guard denials return a DeniedError.
func (h *Handler) GetBalance(ctx *ai.ToolContext, in BalanceInput) (BalanceOutput, error) {
	sess := SessionFromContext(ctx.Context)
	h.recordCall(ctx, NameGetBalance)

	if d := h.guards.CheckBalance(sess, in.AccountID); !d.Allowed {
		h.recordBlock(ctx, d.Reason)
		return BalanceOutput{}, &DeniedError{Decision: d}
	}

	acct, err := h.accounts.Balance(in.AccountID)
	if err != nil {
		return BalanceOutput{}, err
	}

	if sess != nil {
		sess.SetLastAccountChecked(in.AccountID)
	}

	h.logger.Info("balance checked", "account", acct.ID)
	return BalanceOutput{
		AccountID:   acct.ID,
		AccountType: acct.Type,
		Balance:     acct.Balance,
		Currency:    acct.Currency,
	}, nil
}

// TransferInput is the input for the transfer_money tool.
type TransferInput struct {
	SourceAccount      string  `json:"source_account"`
	DestinationAccount string  `json:"destination_account"`
	Amount             float64 `json:"amount"`
}

// TransferOutput is the result of the transfer_money tool.
type TransferOutput struct {
	TransactionID      string  `json:"transaction_id"`
	SourceAccount      string  `json:"source_account"`
	DestinationAccount string  `json:"destination_account"`
	Amount             float64 `json:"amount"`
	NewBalance         float64 `json:"new_balance"`
	Currency           string  `json:"currency"`
	Timestamp          string  `json:"timestamp"`
}

// TransferMoney executes a transfer after policy and ledger validation.
//
// Order of enforcement: guard policy (auth, limit, restrictions), then
// the balance floor, then the ledger's own checks (existence, amount,
// funds). On success the receipt is appended to session transfer history.
func (h *Handler) TransferMoney(ctx *ai.ToolContext, in TransferInput) (TransferOutput, error) {
	sess := SessionFromContext(ctx.Context)
	h.recordCall(ctx, NameTransferMoney)

	if d := h.guards.CheckTransfer(sess, in.SourceAccount, in.DestinationAccount, in.Amount); !d.Allowed {
		h.recordBlock(ctx, d.Reason)
		return TransferOutput{}, &DeniedError{Decision: d}
	}

	if h.minBalance > 0 {
		src, err := h.accounts.Balance(in.SourceAccount)
		if err == nil && src.Balance-in.Amount < h.minBalance {
			d := guard.Deny(guard.ReasonBelowFloor, fmt.Sprintf(
				"This transfer would leave your %s account below the required minimum balance of $%.2f.",
				in.SourceAccount, h.minBalance))
			h.recordBlock(ctx, d.Reason)
			return TransferOutput{}, &DeniedError{Decision: d}
		}
	}

	receipt, err := h.accounts.Transfer(in.SourceAccount, in.DestinationAccount, in.Amount)
	if err != nil {
		return TransferOutput{}, err
	}

	timestamp := receipt.Timestamp.Format("2006-01-02T15:04:05Z07:00")
	if sess != nil {
		sess.AppendTransfer(sessionTransferRecord(receipt, timestamp))
	}

	h.logger.Info("transfer completed",
		"transaction_id", receipt.TransactionID,
		"source", receipt.Source,
		"destination", receipt.Destination,
		"amount", receipt.Amount)

	return TransferOutput{
		TransactionID:      receipt.TransactionID,
		SourceAccount:      receipt.Source,
		DestinationAccount: receipt.Destination,
		Amount:             receipt.Amount,
		NewBalance:         receipt.NewBalance,
		Currency:           receipt.Currency,
		Timestamp:          timestamp,
	}, nil
}
