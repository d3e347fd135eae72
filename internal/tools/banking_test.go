package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/tellerbot/teller/internal/account"
	"github.com/tellerbot/teller/internal/guard"
	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/session"
)

func newTestHandler(minBalance float64) *Handler {
	guards := guard.NewToolGuard(true, 1000,
		[]string{"business", "corporate", "trust", "minor", "deceased"}, log.NewNop())
	return NewHandler(account.NewStore(), guards, minBalance, nil, log.NewNop())
}

// toolCtx builds a ToolContext carrying the given session.
func toolCtx(sess *session.Session) *ai.ToolContext {
	return &ai.ToolContext{Context: ContextWithSession(context.Background(), sess)}
}

func newAuthedSession() *session.Session {
	sess := session.New("teller", "u1", "s1", nil)
	sess.SetAuthenticated(true)
	return sess
}

func TestSayHello(t *testing.T) {
	h := newTestHandler(0)

	tests := []struct {
		name  string
		input HelloInput
		want  string
	}{
		{"with name", HelloInput{Name: "Alice"}, "Hello, Alice!"},
		{"without name", HelloInput{}, "Hello, there!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.SayHello(toolCtx(nil), tt.input)
			if err != nil {
				t.Fatalf("SayHello() error = %v", err)
			}
			if !strings.HasPrefix(out.Greeting, tt.want) {
				t.Errorf("Greeting = %q, want prefix %q", out.Greeting, tt.want)
			}
		})
	}
}

func TestSayGoodbye(t *testing.T) {
	h := newTestHandler(0)

	out, err := h.SayGoodbye(toolCtx(nil), GoodbyeInput{})
	if err != nil {
		t.Fatalf("SayGoodbye() error = %v", err)
	}
	if !strings.Contains(out.Farewell, "Thank you") {
		t.Errorf("Farewell = %q", out.Farewell)
	}
}

func TestGetBalance(t *testing.T) {
	h := newTestHandler(0)
	sess := newAuthedSession()

	out, err := h.GetBalance(toolCtx(sess), BalanceInput{AccountID: "checking"})
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if out.Balance != 2547.83 {
		t.Errorf("Balance = %v, want 2547.83", out.Balance)
	}
	if out.AccountType != "Checking" {
		t.Errorf("AccountType = %q, want Checking", out.AccountType)
	}
	if sess.LastAccountChecked() != "checking" {
		t.Errorf("LastAccountChecked = %q, want checking", sess.LastAccountChecked())
	}
}

func TestGetBalance_Unauthenticated(t *testing.T) {
	h := newTestHandler(0)
	sess := session.New("teller", "u1", "s1", nil)

	_, err := h.GetBalance(toolCtx(sess), BalanceInput{AccountID: "checking"})
	denied, ok := AsDenied(err)
	if !ok {
		t.Fatalf("error = %v, want DeniedError", err)
	}
	if denied.Decision.Reason != guard.ReasonNotAuthenticated {
		t.Errorf("Reason = %q, want %q", denied.Decision.Reason, guard.ReasonNotAuthenticated)
	}
	// Denied calls must not touch session state.
	if sess.LastAccountChecked() != "" {
		t.Errorf("LastAccountChecked = %q after denial, want empty", sess.LastAccountChecked())
	}
}

func TestGetBalance_UnknownAccount(t *testing.T) {
	h := newTestHandler(0)

	_, err := h.GetBalance(toolCtx(newAuthedSession()), BalanceInput{AccountID: "crypto"})
	if !errors.Is(err, account.ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestTransferMoney(t *testing.T) {
	h := newTestHandler(0)
	sess := newAuthedSession()

	out, err := h.TransferMoney(toolCtx(sess), TransferInput{
		SourceAccount:      "checking",
		DestinationAccount: "savings",
		Amount:             500,
	})
	if err != nil {
		t.Fatalf("TransferMoney() error = %v", err)
	}
	if !strings.HasPrefix(out.TransactionID, "TX-") {
		t.Errorf("TransactionID = %q, want TX- prefix", out.TransactionID)
	}
	if out.NewBalance != 2047.83 {
		t.Errorf("NewBalance = %v, want 2047.83", out.NewBalance)
	}
	if sess.TransferCount() != 1 {
		t.Errorf("TransferCount = %d, want 1", sess.TransferCount())
	}
	if sess.LastTransactionID() != out.TransactionID {
		t.Errorf("LastTransactionID = %q, want %q", sess.LastTransactionID(), out.TransactionID)
	}
}

func TestTransferMoney_Denials(t *testing.T) {
	h := newTestHandler(0)

	tests := []struct {
		name       string
		sess       *session.Session
		input      TransferInput
		wantReason string
	}{
		{
			name:       "unauthenticated",
			sess:       session.New("teller", "u1", "s1", nil),
			input:      TransferInput{SourceAccount: "checking", DestinationAccount: "savings", Amount: 100},
			wantReason: guard.ReasonNotAuthenticated,
		},
		{
			name:       "over limit",
			sess:       newAuthedSession(),
			input:      TransferInput{SourceAccount: "savings", DestinationAccount: "checking", Amount: 5000},
			wantReason: guard.ReasonOverLimit,
		},
		{
			name:       "restricted account",
			sess:       newAuthedSession(),
			input:      TransferInput{SourceAccount: "checking", DestinationAccount: "business", Amount: 100},
			wantReason: guard.ReasonRestrictedAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.TransferMoney(toolCtx(tt.sess), tt.input)
			denied, ok := AsDenied(err)
			if !ok {
				t.Fatalf("error = %v, want DeniedError", err)
			}
			if denied.Decision.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", denied.Decision.Reason, tt.wantReason)
			}
			if tt.sess != nil && tt.sess.TransferCount() != 0 {
				t.Error("denied transfer was recorded in session history")
			}
		})
	}
}

func TestTransferMoney_LedgerErrors(t *testing.T) {
	h := newTestHandler(0)

	tests := []struct {
		name    string
		input   TransferInput
		wantErr error
	}{
		{
			name:    "unknown source",
			input:   TransferInput{SourceAccount: "crypto", DestinationAccount: "savings", Amount: 10},
			wantErr: account.ErrAccountNotFound,
		},
		{
			name:    "negative amount",
			input:   TransferInput{SourceAccount: "checking", DestinationAccount: "savings", Amount: -5},
			wantErr: account.ErrInvalidAmount,
		},
		{
			name:    "insufficient funds within limit",
			input:   TransferInput{SourceAccount: "external", DestinationAccount: "savings", Amount: 100},
			wantErr: account.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.TransferMoney(toolCtx(newAuthedSession()), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransferMoney_MinimumBalanceFloor(t *testing.T) {
	h := newTestHandler(2500)

	// checking has 2547.83; a $100 transfer would leave it below $2500
	_, err := h.TransferMoney(toolCtx(newAuthedSession()), TransferInput{
		SourceAccount:      "checking",
		DestinationAccount: "savings",
		Amount:             100,
	})
	denied, ok := AsDenied(err)
	if !ok {
		t.Fatalf("error = %v, want DeniedError", err)
	}
	if denied.Decision.Reason != guard.ReasonBelowFloor {
		t.Errorf("Reason = %q, want %q", denied.Decision.Reason, guard.ReasonBelowFloor)
	}

	// A smaller transfer that keeps the floor intact succeeds.
	if _, err := h.TransferMoney(toolCtx(newAuthedSession()), TransferInput{
		SourceAccount:      "checking",
		DestinationAccount: "savings",
		Amount:             40,
	}); err != nil {
		t.Errorf("TransferMoney() error = %v, want nil", err)
	}
}

func TestGuardedAdapter(t *testing.T) {
	h := newTestHandler(0)

	// Denials surface as error-status results, not Go errors.
	fn := guarded(h.GetBalance)
	out, err := fn(toolCtx(session.New("teller", "u1", "s1", nil)), BalanceInput{AccountID: "checking"})
	if err != nil {
		t.Fatalf("guarded handler returned error: %v", err)
	}
	if out.Status != "error" {
		t.Errorf("Status = %q, want error", out.Status)
	}
	if out.ErrorMessage == "" {
		t.Error("ErrorMessage is empty for a denial")
	}

	// Successes carry the payload.
	out, err = fn(toolCtx(newAuthedSession()), BalanceInput{AccountID: "savings"})
	if err != nil {
		t.Fatalf("guarded handler returned error: %v", err)
	}
	if out.Status != "success" {
		t.Errorf("Status = %q, want success", out.Status)
	}
	if out.Result.Balance != 15720.50 {
		t.Errorf("Result.Balance = %v, want 15720.50", out.Result.Balance)
	}
}
