package guard

import (
	"fmt"
	"strings"

	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/session"
)

// User-facing denial messages for tool checks.
const (
	authMessage = "This operation requires authentication. Please log in to your " +
		"account or verify your identity before proceeding."

	restrictedBalanceMessage = "Access to this account type requires additional " +
		"verification. Please contact customer service or visit a branch."

	restrictedTransferMessage = "This transfer involves a restricted account type " +
		"that requires additional verification. Please contact customer service."
)

// ToolGuard enforces banking policy on tool arguments before execution.
//
// Checks run in a fixed order: authentication, transfer limit, account
// restrictions. The first failing check decides, so a request that is
// both unauthenticated and over the limit reports the authentication
// denial.
type ToolGuard struct {
	authRequired bool
	maxTransfer  float64
	restricted   []string // lowercased substrings
	logger       log.Logger
}

// NewToolGuard creates a tool guard with the given policy.
func NewToolGuard(authRequired bool, maxTransfer float64, restrictedAccounts []string, logger log.Logger) *ToolGuard {
	restricted := make([]string, len(restrictedAccounts))
	for i, r := range restrictedAccounts {
		restricted[i] = strings.ToLower(r)
	}
	return &ToolGuard{
		authRequired: authRequired,
		maxTransfer:  maxTransfer,
		restricted:   restricted,
		logger:       logger.With("component", "guard.tool"),
	}
}

// CheckBalance validates a balance query against policy.
func (g *ToolGuard) CheckBalance(sess *session.Session, accountID string) Decision {
	if d := g.checkAuth(sess, "get_balance"); !d.Allowed {
		return d
	}
	if g.isRestricted(accountID) {
		g.logger.Warn("restricted account access attempt", "tool", "get_balance")
		return Deny(ReasonRestrictedAccount, restrictedBalanceMessage)
	}
	return Allow()
}

// CheckTransfer validates a transfer request against policy.
func (g *ToolGuard) CheckTransfer(sess *session.Session, source, destination string, amount float64) Decision {
	if d := g.checkAuth(sess, "transfer_money"); !d.Allowed {
		return d
	}
	if amount > g.maxTransfer {
		g.logger.Warn("transfer over limit", "amount", amount, "limit", g.maxTransfer)
		return Deny(ReasonOverLimit, fmt.Sprintf(
			"Transfer amount $%.2f exceeds the maximum allowed limit of $%.2f per "+
				"transaction. Please reduce the amount or contact customer service for "+
				"assistance with larger transfers.", amount, g.maxTransfer))
	}
	if g.isRestricted(source) || g.isRestricted(destination) {
		g.logger.Warn("restricted account in transfer", "tool", "transfer_money")
		return Deny(ReasonRestrictedAccount, restrictedTransferMessage)
	}
	return Allow()
}

func (g *ToolGuard) checkAuth(sess *session.Session, tool string) Decision {
	if !g.authRequired {
		return Allow()
	}
	if sess == nil || !sess.Authenticated() {
		g.logger.Warn("unauthenticated access to sensitive tool", "tool", tool)
		return Deny(ReasonNotAuthenticated, authMessage)
	}
	return Allow()
}

// isRestricted reports whether the account identifier contains any
// restricted substring, e.g. "business checking" matches "business".
func (g *ToolGuard) isRestricted(accountID string) bool {
	lower := strings.ToLower(accountID)
	for _, r := range g.restricted {
		if strings.Contains(lower, r) {
			return true
		}
	}
	return false
}
