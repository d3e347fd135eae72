// Package guard implements the deterministic safety checks that run
// around the language model.
//
// Two checkpoints exist:
//
//   - InputGuard runs before any model call and inspects the raw user
//     message for blocked keywords and PII patterns.
//   - ToolGuard runs before a banking tool executes and enforces
//     authentication, transfer limits, and account restrictions on the
//     tool arguments.
//
// Both return a Decision rather than an error: a denial is an expected
// outcome with a user-facing message, not a failure. Guards never echo
// the offending input back to the user.
package guard

// Denial reason codes, recorded in session state and metrics.
const (
	ReasonBlockedKeyword    = "blocked_keyword"
	ReasonPIIDetected       = "pii_detected"
	ReasonNotAuthenticated  = "not_authenticated"
	ReasonOverLimit         = "over_limit"
	ReasonBelowFloor        = "below_floor"
	ReasonRestrictedAccount = "restricted_account"
)

// Decision is the outcome of a guard check.
type Decision struct {
	// Allowed reports whether processing may continue.
	Allowed bool

	// Reason is the machine-readable denial code, empty when allowed.
	Reason string

	// Message is the safe user-facing reply for a denial. It never
	// contains the blocked content.
	Message string
}

// Allow is the decision that lets processing continue.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a denial decision.
func Deny(reason, message string) Decision {
	return Decision{Reason: reason, Message: message}
}
