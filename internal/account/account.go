// Package account implements the demo banking ledger.
//
// The store is an in-memory mock seeded with fixed balances. It stands
// in for a core banking system: the rest of the application talks to it
// only through Balance and Transfer, so swapping in a real backend later
// means replacing this package, not its callers.
//
// Concurrency: a single store-wide mutex serializes all operations.
// Transfer is a check-then-mutate sequence (existence, amount, funds,
// debit, credit) and must observe a consistent snapshot; with a handful
// of accounts a store-wide lock is simpler and safe.
package account

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Account holds the state of a single account.
type Account struct {
	ID       string  `json:"id"`
	Type     string  `json:"account_type"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`

	// External marks pass-through destinations (e.g. an outside bank).
	// External accounts accept transfers but are not queryable.
	External bool `json:"-"`
}

// Receipt records a completed transfer.
type Receipt struct {
	TransactionID string    `json:"transaction_id"`
	Source        string    `json:"source_account"`
	Destination   string    `json:"destination_account"`
	Amount        float64   `json:"amount"`
	NewBalance    float64   `json:"new_balance"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}

// Store is the in-memory account ledger.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

// NewStore creates a store seeded with the demo accounts.
func NewStore() *Store {
	return &Store{
		accounts: map[string]*Account{
			"checking":   {ID: "checking", Type: "Checking", Balance: 2547.83, Currency: "USD"},
			"savings":    {ID: "savings", Type: "Savings", Balance: 15720.50, Currency: "USD"},
			"retirement": {ID: "retirement", Type: "401K", Balance: 87341.25, Currency: "USD"},
			"external":   {ID: "external", Type: "External", Balance: 0, Currency: "USD", External: true},
		},
	}
}

// Normalize canonicalizes a user-supplied account identifier:
// lowercase with spaces removed, so "My Savings" and "savings" match.
func Normalize(id string) string {
	return strings.ReplaceAll(strings.ToLower(id), " ", "")
}

// Balance returns a snapshot of the named account.
// External accounts are not queryable and report ErrAccountNotFound.
func (s *Store) Balance(accountID string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[Normalize(accountID)]
	if !ok || acct.External {
		return Account{}, fmt.Errorf("%w: %q", ErrAccountNotFound, accountID)
	}
	return *acct, nil
}

// Transfer moves amount from source to destination and returns a receipt.
//
// Validation order is fixed: source exists, destination exists, the
// accounts differ, amount is positive, funds are sufficient. The first
// failing check determines the returned error, so callers see stable
// messages regardless of how many checks would fail.
func (s *Store) Transfer(source, destination string, amount float64) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.accounts[Normalize(source)]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: source account %q", ErrAccountNotFound, source)
	}
	dst, ok := s.accounts[Normalize(destination)]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: destination account %q", ErrAccountNotFound, destination)
	}
	if src == dst {
		return Receipt{}, fmt.Errorf("%w: %q", ErrSameAccount, source)
	}
	if amount <= 0 {
		return Receipt{}, fmt.Errorf("%w: got %.2f", ErrInvalidAmount, amount)
	}
	if src.Balance < amount {
		return Receipt{}, fmt.Errorf("%w: %q has $%.2f, requested $%.2f",
			ErrInsufficientFunds, source, src.Balance, amount)
	}

	src.Balance -= amount
	dst.Balance += amount

	return Receipt{
		TransactionID: "TX-" + uuid.NewString(),
		Source:        src.ID,
		Destination:   dst.ID,
		Amount:        amount,
		NewBalance:    src.Balance,
		Currency:      src.Currency,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// IDs returns the normalized identifiers of all queryable accounts,
// for diagnostics and tests.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.accounts))
	for id, acct := range s.accounts {
		if !acct.External {
			ids = append(ids, id)
		}
	}
	return ids
}
