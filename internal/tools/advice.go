package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// Session state keys written by the advice tool.
const (
	stateAdviceTopics = "financial_advice_topics"
	stateRiskProfile  = "user_risk_profile"
)

// adviceContent is one advice entry for a topic and risk profile.
type adviceContent struct {
	Advice    []string
	Resources []string
}

// adviceDB is the static advice corpus, keyed by topic then risk profile.
// Every topic carries all three risk profiles.
var adviceDB = map[string]map[string]adviceContent{
	"savings": {
		"conservative": {
			Advice: []string{
				"Build an emergency fund covering 6-9 months of expenses",
				"Consider high-yield savings accounts or CDs for better returns",
				"Set up automatic transfers to your savings account",
				"Minimize fees by using no-fee banking services",
			},
			Resources: []string{
				"FDIC: Savings Accounts Guide",
				"Consumer Financial Protection Bureau: Building a Savings Cushion",
			},
		},
		"moderate": {
			Advice: []string{
				"Maintain an emergency fund of 3-6 months of expenses",
				"Consider a mix of high-yield savings and short-term bond funds",
				"Use tax-advantaged savings accounts when possible",
				"Automate regular contributions to your savings",
			},
			Resources: []string{
				"Federal Reserve: Personal Finance Education Resources",
				"MyMoney.gov: Saving and Investing",
			},
		},
		"aggressive": {
			Advice: []string{
				"Keep a minimal emergency fund (3 months) and invest the rest",
				"Consider money market accounts for slightly higher yields",
				"Use savings as a short-term holding area before investing",
				"Optimize your cash flow to maximize investment contributions",
			},
			Resources: []string{
				"Investor.gov: Saving and Investing",
				"SEC: Beginners' Guide to Asset Allocation",
			},
		},
	},
	"investment": {
		"conservative": {
			Advice: []string{
				"Focus on preservation of capital with government and high-quality corporate bonds",
				"Consider dividend-paying blue-chip stocks (20-30% of portfolio)",
				"Use broad market index funds for diversification",
				"Limit exposure to international markets (5-10% maximum)",
			},
			Resources: []string{
				"Morningstar: Bond Investment Guide",
				"Vanguard: Conservative Investment Strategies",
			},
		},
		"moderate": {
			Advice: []string{
				"Maintain a balanced portfolio (50-60% stocks, 40-50% bonds)",
				"Diversify across domestic and international investments",
				"Consider adding REITs for real estate exposure (5-10%)",
				"Rebalance your portfolio annually",
			},
			Resources: []string{
				"Schwab: Modern Portfolio Theory Guide",
				"Fidelity: Asset Allocation Strategies",
			},
		},
		"aggressive": {
			Advice: []string{
				"Higher allocation to stocks (70-90%) with focus on growth",
				"Consider emerging markets and small-cap investments",
				"Add alternative investments like commodities or real estate",
				"Maintain discipline during market volatility",
			},
			Resources: []string{
				"Investopedia: Growth Investing Strategy",
				"JP Morgan: Guide to Market Volatility",
			},
		},
	},
	"retirement": {
		"conservative": {
			Advice: []string{
				"Maximize contributions to tax-advantaged accounts (401(k), IRA)",
				"Focus on capital preservation with bonds and stable value funds",
				"Consider guaranteed income products like annuities",
				"Plan for healthcare costs with HSA contributions",
			},
			Resources: []string{
				"AARP: Retirement Planning Guide",
				"Social Security Administration: Benefits Planner",
			},
		},
		"moderate": {
			Advice: []string{
				"Maximize tax-advantaged retirement contributions",
				"Maintain a balanced portfolio that shifts conservative with age",
				"Consider Roth conversions for tax diversification",
				"Review your retirement income plan regularly",
			},
			Resources: []string{
				"IRS: Retirement Plans FAQs",
				"Vanguard: Retirement Income Calculator",
			},
		},
		"aggressive": {
			Advice: []string{
				"Maximize retirement account contributions and consider backdoor Roth options",
				"Maintain higher equity allocation even in retirement",
				"Consider self-directed retirement accounts for alternative investments",
				"Develop a dynamic withdrawal strategy",
			},
			Resources: []string{
				"Fidelity: Retirement Income Planning",
				"Morningstar: Sustainable Withdrawal Rates",
			},
		},
	},
}

// validRiskProfiles in display order for error messages.
var validRiskProfiles = []string{"conservative", "moderate", "aggressive"}

// AdviceInput is the input for the get_financial_advice tool.
type AdviceInput struct {
	// Topic is the advice area: savings, investment, or retirement.
	Topic string `json:"topic"`
	// RiskProfile is conservative, moderate, or aggressive.
	// Defaults to moderate.
	RiskProfile string `json:"risk_profile,omitempty"`
}

// AdviceOutput is the result of the get_financial_advice tool.
type AdviceOutput struct {
	Topic       string   `json:"topic"`
	RiskProfile string   `json:"risk_profile"`
	Advice      []string `json:"advice"`
	Resources   []string `json:"resources"`
}

// AdviceTopics returns the supported topics, sorted for stable messages.
func AdviceTopics() []string {
	topics := make([]string, 0, len(adviceDB))
	for t := range adviceDB {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// FinancialAdvice returns canned guidance for a topic and risk profile.
// The user's risk profile and consulted topics are remembered in session
// state so later turns can personalize responses.
func (h *Handler) FinancialAdvice(ctx *ai.ToolContext, in AdviceInput) (AdviceOutput, error) {
	h.recordCall(ctx, NameFinancialAdvice)

	topic := strings.ToLower(strings.TrimSpace(in.Topic))
	profile := strings.ToLower(strings.TrimSpace(in.RiskProfile))
	if profile == "" {
		profile = "moderate"
	}

	valid := false
	for _, p := range validRiskProfiles {
		if profile == p {
			valid = true
			break
		}
	}
	if !valid {
		return AdviceOutput{}, fmt.Errorf("%w: %q (use one of: %s)",
			ErrInvalidRiskProfile, in.RiskProfile, strings.Join(validRiskProfiles, ", "))
	}

	profiles, ok := adviceDB[topic]
	if !ok {
		return AdviceOutput{}, fmt.Errorf("%w: %q (available topics: %s)",
			ErrUnknownTopic, in.Topic, strings.Join(AdviceTopics(), ", "))
	}
	content := profiles[profile]

	if sess := SessionFromContext(ctx.Context); sess != nil {
		topics, _ := sess.State[stateAdviceTopics].([]any)
		seen := false
		for _, t := range topics {
			if t == topic {
				seen = true
				break
			}
		}
		if !seen {
			sess.State[stateAdviceTopics] = append(topics, topic)
		}
		sess.State[stateRiskProfile] = profile
	}

	h.logger.Info("financial advice served", "topic", topic, "risk_profile", profile)
	return AdviceOutput{
		Topic:       topic,
		RiskProfile: profile,
		Advice:      content.Advice,
		Resources:   content.Resources,
	}, nil
}
