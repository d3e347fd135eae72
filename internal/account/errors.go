package account

import "errors"

// Sentinel errors for account operations.
// Callers distinguish failure modes with errors.Is().
var (
	// ErrAccountNotFound indicates the account identifier does not match
	// any known account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount indicates a zero or negative transfer amount.
	ErrInvalidAmount = errors.New("transfer amount must be greater than zero")

	// ErrInsufficientFunds indicates the source account balance does not
	// cover the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSameAccount indicates source and destination resolve to the
	// same account.
	ErrSameAccount = errors.New("source and destination are the same account")
)
