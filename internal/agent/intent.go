package agent

import (
	"context"
	"strings"
)

// Intent labels the user's request category. The root agent routes each
// turn to one specialized agent by intent.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentFarewell Intent = "farewell"
	IntentBalance  Intent = "balance"
	IntentTransfer Intent = "transfer"
	IntentAdvice   Intent = "advice"
	IntentUnknown  Intent = "unknown"
)

// Intents lists all classifiable intents, in routing priority order.
func Intents() []Intent {
	return []Intent{
		IntentGreeting, IntentFarewell, IntentBalance,
		IntentTransfer, IntentAdvice, IntentUnknown,
	}
}

// Classifier maps a user message to an intent.
type Classifier interface {
	Classify(ctx context.Context, message string) (Intent, error)
}

// intentKeywords drives the keyword classifier. First matching intent
// wins, so farewell phrases are checked before greetings ("good day,
// goodbye" is a farewell).
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentFarewell, []string{"goodbye", "bye", "farewell", "see you", "that's all", "thanks, done"}},
	{IntentGreeting, []string{"hello", "hi ", "hi!", "hi.", "hey", "good morning", "good afternoon", "good evening"}},
	{IntentTransfer, []string{"transfer", "send money", "move money", "send funds", "move funds", "pay "}},
	{IntentBalance, []string{"balance", "how much money", "how much do i have", "funds in", "account status"}},
	{IntentAdvice, []string{"advice", "invest", "retirement", "saving", "save money", "financial planning", "portfolio"}},
}

// KeywordClassifier is the deterministic fallback classifier.
// It needs no model, so it also serves when the model is unavailable.
type KeywordClassifier struct{}

// Classify matches the message against intent keyword lists.
// Messages that match nothing classify as IntentUnknown; that is not
// an error.
func (KeywordClassifier) Classify(_ context.Context, message string) (Intent, error) {
	lower := " " + strings.ToLower(strings.TrimSpace(message)) + " "
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.intent, nil
			}
		}
	}
	return IntentUnknown, nil
}

// ParseIntent converts a model label into an Intent, tolerating case,
// whitespace, and trailing punctuation. Unrecognized labels map to
// IntentUnknown with ok=false.
func ParseIntent(label string) (Intent, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(label))
	cleaned = strings.Trim(cleaned, ".!\"'")
	if i := strings.IndexAny(cleaned, " \n\t"); i >= 0 {
		cleaned = cleaned[:i]
	}

	for _, intent := range Intents() {
		if cleaned == string(intent) {
			return intent, true
		}
	}
	return IntentUnknown, false
}
