package conversation

import (
	"time"

	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/lexicon"
)

// ConversationType identifies the program touchpoint a call belongs to.
type ConversationType string

const (
	TypeInbound              ConversationType = "inbound"
	TypeOutboundEnrollment   ConversationType = "outbound-enrollment"
	TypeAdherenceCheckin     ConversationType = "adherence-checkin"
	TypeRefillReminder       ConversationType = "refill-reminder"
	TypeSideEffectMonitoring ConversationType = "side-effect-monitoring"
)

// ResolutionStatus describes how a conversation ended.
type ResolutionStatus string

const (
	StatusResolved          ResolutionStatus = "resolved"
	StatusEscalated         ResolutionStatus = "escalated"
	StatusCallbackRequested ResolutionStatus = "callback-requested"
	StatusUnresolved        ResolutionStatus = "unresolved"
)

// RiskLevel grades the disengagement risk a conversation signals.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// FrictionPoint is a detected obstacle within one conversation. The engine
// creates these; a reviewer workflow may later mark them resolved and attach
// a resolution action and timestamp.
type FrictionPoint struct {
	ID               string              `json:"id"`
	ConversationID   string              `json:"conversation_id"`
	UtteranceIndex   int                 `json:"utterance_index"`
	Barrier          lexicon.BarrierType `json:"barrier"`
	Severity         lexicon.Severity    `json:"severity"`
	Description      string              `json:"description"`
	Snippet          string              `json:"snippet"`
	Resolved         bool                `json:"resolved"`
	ResolutionAction string              `json:"resolution_action,omitempty"`
	DetectedAt       time.Time           `json:"detected_at"`
	ResolvedAt       *time.Time          `json:"resolved_at,omitempty"`
}

// Analytics is the per-conversation aggregate produced by the analyzer.
// Read-only after creation except for the review metadata fields, which an
// external reviewer workflow owns.
type Analytics struct {
	ConversationID string           `json:"conversation_id"`
	PatientID      string           `json:"patient_id"`
	Type           ConversationType `json:"type"`
	StartedAt      time.Time        `json:"started_at"`
	Duration       time.Duration    `json:"duration"`

	Utterances []classify.AnalyzedUtterance `json:"utterances"`

	OverallSentiment classify.SentimentLabel `json:"overall_sentiment"`
	SentimentScore   float64                 `json:"sentiment_score"`
	SentimentShift   float64                 `json:"sentiment_shift"`

	TopicsDetected []string `json:"topics_detected,omitempty"`
	PrimaryTopic   string   `json:"primary_topic,omitempty"`

	ResolutionStatus ResolutionStatus `json:"resolution_status"`
	Escalated        bool             `json:"escalated"`
	EscalationReason string           `json:"escalation_reason,omitempty"`
	OutcomeAchieved  bool             `json:"outcome_achieved"`

	QualityScore    int `json:"quality_score"`
	ComplianceScore int `json:"compliance_score"`
	EmpathyScore    int `json:"empathy_score"`

	FrictionPoints []FrictionPoint `json:"friction_points,omitempty"`
	FrictionScore  int             `json:"friction_score"`

	CallDriver string    `json:"call_driver"`
	RiskLevel  RiskLevel `json:"risk_level"`
	ChurnRisk  int       `json:"churn_risk"`

	// Review metadata, mutated by the external reviewer workflow only.
	CSATScore  *int       `json:"csat_score,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// MentionsTopic reports whether the topic id appears in the detected set.
func (a *Analytics) MentionsTopic(topicID string) bool {
	for _, t := range a.TopicsDetected {
		if t == topicID {
			return true
		}
	}
	return false
}
