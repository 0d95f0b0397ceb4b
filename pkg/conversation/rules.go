package conversation

import (
	"fmt"

	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/lexicon"
)

// Sentiment bucketing thresholds for the conversation-level mean score.
const (
	positiveThreshold = 0.2
	negativeThreshold = -0.2
)

// A recovery is a strongly positive sentiment shift between the first and the
// last turn of the call.
const recoveryShift = 0.3

// Friction score weights. The score grows with both the number of friction
// points and their severity-weighted sum, capped at 100.
const (
	frictionCountWeight    = 10
	frictionSeverityWeight = 10
	frictionScoreCap       = 100
)

// elevatedFriction is the friction score at or above which a conversation is
// treated as materially obstructed by the risk and quality rules.
const elevatedFriction = 50

// barrierPriority fixes the barrier chosen when one utterance matches friction
// indicators from several categories.
var barrierPriority = []lexicon.BarrierType{
	lexicon.BarrierClinical,
	lexicon.BarrierProcess,
	lexicon.BarrierInsurance,
	lexicon.BarrierAffordability,
	lexicon.BarrierAccess,
	lexicon.BarrierSupportQuality,
}

// barrierDescriptions is the fixed description text per barrier type.
var barrierDescriptions = map[lexicon.BarrierType]string{
	lexicon.BarrierClinical:       "Patient reported a clinical issue or side effect",
	lexicon.BarrierProcess:        "Patient hit a process or workflow obstacle",
	lexicon.BarrierInsurance:      "Insurance or coverage obstacle raised",
	lexicon.BarrierAffordability:  "Cost or affordability obstacle raised",
	lexicon.BarrierAccess:         "Access or availability obstacle raised",
	lexicon.BarrierSupportQuality: "Patient expressed dissatisfaction with support",
}

// signals are the derived facts the rule tables evaluate. Everything a rule
// may consult lives here so each table stays a flat, enumerable list.
type signals struct {
	MeanScore          float64
	Shift              float64
	FrictionScore      int
	FrictionCount      int
	AnyUnresolved      bool
	HighUnresolved     bool
	UnresolvedBarrier  lexicon.BarrierType
	LastSentiment      classify.SentimentLabel
	AgentPositiveTurns int
	AgentOfferedHelp   bool
	ConsentMentioned   bool
}

func (s signals) positiveClose() bool { return s.LastSentiment == classify.SentimentPositive }
func (s signals) negativeMean() bool  { return s.MeanScore < negativeThreshold }

// resolutionRule maps a condition onto a resolution status. The first matching
// rule wins; the table always terminates because the last rule matches all.
type resolutionRule struct {
	Name   string
	When   func(signals) bool
	Status ResolutionStatus
	Reason func(signals) string
}

var resolutionRules = []resolutionRule{
	{
		Name:   "high-unresolved-forces-escalation",
		When:   func(s signals) bool { return s.HighUnresolved && !s.positiveClose() },
		Status: StatusEscalated,
		Reason: func(s signals) string {
			return fmt.Sprintf("high-severity %s barrier unresolved at hang-up", s.UnresolvedBarrier)
		},
	},
	{
		Name:   "unresolved-friction-negative-close",
		When:   func(s signals) bool { return s.AnyUnresolved && s.LastSentiment == classify.SentimentNegative },
		Status: StatusUnresolved,
	},
	{
		Name:   "unresolved-friction-neutral-close",
		When:   func(s signals) bool { return s.AnyUnresolved && s.LastSentiment == classify.SentimentNeutral },
		Status: StatusCallbackRequested,
	},
	{
		Name:   "default-resolved",
		When:   func(signals) bool { return true },
		Status: StatusResolved,
	},
}

// riskRule maps a condition onto a risk level; first match wins.
type riskRule struct {
	Name  string
	When  func(signals) bool
	Level RiskLevel
}

var riskRules = []riskRule{
	{
		Name:  "escalated-and-negative",
		When:  func(s signals) bool { return s.HighUnresolved && s.negativeMean() },
		Level: RiskCritical,
	},
	{
		Name:  "high-unresolved-barrier",
		When:  func(s signals) bool { return s.HighUnresolved },
		Level: RiskHigh,
	},
	{
		Name:  "elevated-friction",
		When:  func(s signals) bool { return s.FrictionScore >= elevatedFriction || s.AnyUnresolved },
		Level: RiskMedium,
	},
	{
		Name:  "negative-overall-sentiment",
		When:  func(s signals) bool { return s.negativeMean() },
		Level: RiskMedium,
	},
	{
		Name:  "default-low",
		When:  func(signals) bool { return true },
		Level: RiskLow,
	},
}

// scoreRule contributes a signed delta to a 0-100 score when its condition
// holds. Deltas are additive; the final score is clamped to [0, 100].
type scoreRule struct {
	Name  string
	When  func(signals) bool
	Delta int
}

const qualityBase = 70

var qualityRules = []scoreRule{
	{Name: "positive-close", When: func(s signals) bool { return s.positiveClose() }, Delta: 10},
	{Name: "no-friction", When: func(s signals) bool { return s.FrictionCount == 0 }, Delta: 10},
	{Name: "recovered", When: func(s signals) bool { return s.Shift >= recoveryShift }, Delta: 5},
	{Name: "elevated-friction", When: func(s signals) bool { return s.FrictionScore >= elevatedFriction }, Delta: -10},
	{Name: "unresolved-at-hangup", When: func(s signals) bool { return s.AnyUnresolved }, Delta: -15},
	{Name: "negative-mean", When: func(s signals) bool { return s.negativeMean() }, Delta: -10},
}

const complianceBase = 80

var complianceRules = []scoreRule{
	{Name: "consent-language-present", When: func(s signals) bool { return s.ConsentMentioned }, Delta: 15},
	{Name: "high-unresolved-barrier", When: func(s signals) bool { return s.HighUnresolved }, Delta: -15},
	{Name: "clean-close", When: func(s signals) bool { return !s.AnyUnresolved }, Delta: 5},
}

const empathyBase = 65

var empathyRules = []scoreRule{
	{Name: "agent-positive-turn", When: func(s signals) bool { return s.AgentPositiveTurns > 0 }, Delta: 15},
	{Name: "agent-offered-help", When: func(s signals) bool { return s.AgentOfferedHelp }, Delta: 10},
	{Name: "negative-call-no-warmth", When: func(s signals) bool { return s.negativeMean() && s.AgentPositiveTurns == 0 }, Delta: -15},
	{Name: "recovered", When: func(s signals) bool { return s.Shift >= recoveryShift }, Delta: 5},
}

const churnBase = 10

var churnRules = []scoreRule{
	{Name: "high-unresolved-barrier", When: func(s signals) bool { return s.HighUnresolved }, Delta: 30},
	{Name: "unresolved-at-hangup", When: func(s signals) bool { return s.AnyUnresolved }, Delta: 20},
	{Name: "negative-mean", When: func(s signals) bool { return s.negativeMean() }, Delta: 15},
	{Name: "deteriorated", When: func(s signals) bool { return s.Shift <= -recoveryShift }, Delta: 10},
	{Name: "elevated-friction", When: func(s signals) bool { return s.FrictionScore >= elevatedFriction }, Delta: 10},
	{Name: "recovered-positive-close", When: func(s signals) bool { return s.positiveClose() && !s.AnyUnresolved }, Delta: -15},
}

// callDrivers maps a primary topic onto the business call-driver label.
var callDrivers = map[string]string{
	"side-effects":       "Side effect report",
	"refill":             "Refill support",
	"insurance-coverage": "Insurance navigation",
	"affordability":      "Financial assistance",
	"adherence":          "Adherence support",
	"enrollment":         "Program enrollment",
	"shipping-delivery":  "Shipment inquiry",
	"agent-experience":   "Service experience",
	"privacy-consent":    "Privacy and consent",
}

const defaultCallDriver = "General inquiry"

func resolveStatus(s signals) (ResolutionStatus, string) {
	for _, r := range resolutionRules {
		if r.When(s) {
			reason := ""
			if r.Reason != nil {
				reason = r.Reason(s)
			}
			return r.Status, reason
		}
	}
	return StatusResolved, ""
}

func resolveRisk(s signals) RiskLevel {
	for _, r := range riskRules {
		if r.When(s) {
			return r.Level
		}
	}
	return RiskLow
}

func applyScoreRules(base int, rules []scoreRule, s signals) int {
	score := base
	for _, r := range rules {
		if r.When(s) {
			score += r.Delta
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func callDriverFor(primaryTopic string) string {
	if d, ok := callDrivers[primaryTopic]; ok {
		return d
	}
	return defaultCallDriver
}
