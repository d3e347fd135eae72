package tools

import (
	"errors"
	"fmt"

	"github.com/tellerbot/teller/internal/guard"
)

// Sentinel errors for tool execution, checked with errors.Is().
var (
	// ErrInvalidRiskProfile indicates an unsupported risk profile value.
	ErrInvalidRiskProfile = errors.New("invalid risk profile")

	// ErrUnknownTopic indicates a financial advice topic with no content.
	ErrUnknownTopic = errors.New("unknown advice topic")
)

// DeniedError carries a guard denial out of a tool handler.
// The turn runner maps it to a blocked turn; the Genkit adapters turn it
// into an error-status result so the model sees the safe message.
type DeniedError struct {
	Decision guard.Decision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("denied (%s): %s", e.Decision.Reason, e.Decision.Message)
}

// AsDenied extracts a DeniedError from an error chain.
func AsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	ok := errors.As(err, &denied)
	return denied, ok
}
