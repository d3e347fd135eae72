package guard

import (
	"regexp"
	"strings"

	"github.com/tellerbot/teller/internal/log"
)

// User-facing denial messages. Deliberately generic so blocked content
// is never echoed back.
const (
	blockedKeywordMessage = "I cannot process this request because it contains sensitive " +
		"information or prohibited terms. For security reasons, please avoid sharing " +
		"personal identifiable information such as passwords, account numbers, or " +
		"social security numbers. How can I help you with your banking needs in a secure way?"

	piiMessage = "I noticed what appears to be sensitive personal information in your " +
		"message. For your security, please don't share personal identifiable information " +
		"like account numbers, credit card details, social security numbers, or complete " +
		"contact information. How can I assist you without using this sensitive data?"
)

// piiPatterns match common PII shapes in free text.
// Order matters only for which type gets reported first; any match blocks.
var piiPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"credit_card", regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)},
	{"ssn", regexp.MustCompile(`\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`)},
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"phone", regexp.MustCompile(`\b(?:\+\d{1,2}\s)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{"account_number", regexp.MustCompile(`\b\d{8,17}\b`)},
}

// InputGuard screens user messages before they reach the model.
type InputGuard struct {
	keywords []string // uppercased for case-insensitive matching
	logger   log.Logger
}

// NewInputGuard creates an input guard for the given keyword list.
func NewInputGuard(blockedKeywords []string, logger log.Logger) *InputGuard {
	keywords := make([]string, len(blockedKeywords))
	for i, kw := range blockedKeywords {
		keywords[i] = strings.ToUpper(kw)
	}
	return &InputGuard{
		keywords: keywords,
		logger:   logger.With("component", "guard.input"),
	}
}

// Check inspects a user message. Keyword screening runs first, then PII
// pattern matching; the first hit decides.
func (g *InputGuard) Check(message string) Decision {
	upper := strings.ToUpper(message)
	for _, kw := range g.keywords {
		if strings.Contains(upper, kw) {
			g.logger.Warn("blocked keyword in user input", "keyword", kw)
			return Deny(ReasonBlockedKeyword, blockedKeywordMessage)
		}
	}

	for _, p := range piiPatterns {
		if p.re.MatchString(message) {
			g.logger.Warn("PII pattern in user input", "type", p.name)
			return Deny(ReasonPIIDetected, piiMessage)
		}
	}

	return Allow()
}
