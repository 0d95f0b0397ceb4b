package lexicon

// TopicCategory classifies a topic by the part of the patient journey it touches.
type TopicCategory string

const (
	CategoryClinical    TopicCategory = "clinical"
	CategoryOperational TopicCategory = "operational"
	CategoryAccess      TopicCategory = "access"
	CategoryExperience  TopicCategory = "experience"
	CategoryCompliance  TopicCategory = "compliance"
)

// BarrierType categorizes the obstacle behind a friction signal.
type BarrierType string

const (
	BarrierInsurance      BarrierType = "insurance"
	BarrierAffordability  BarrierType = "affordability"
	BarrierAccess         BarrierType = "access"
	BarrierClinical       BarrierType = "clinical"
	BarrierProcess        BarrierType = "process"
	BarrierSupportQuality BarrierType = "support-quality"
)

// Severity grades how strongly a friction indicator signals an obstacle.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityWeight maps a severity grade onto a numeric scale for scoring.
func SeverityWeight(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// Topic is a named concept matched against utterance text via its keyword set.
// Topics are configuration data; the engine never mutates them.
type Topic struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Category       TopicCategory `json:"category"`
	Keywords       []string      `json:"keywords"`
	BuiltIn        bool          `json:"built_in"`
	AlertThreshold int           `json:"alert_threshold,omitempty"`
	PlaybookIDs    []string      `json:"playbook_ids,omitempty"`
}

// FrictionIndicator is a phrase that marks an obstacle, tagged with the barrier
// it points at and how strongly it signals one.
type FrictionIndicator struct {
	Phrase   string      `json:"phrase"`
	Barrier  BarrierType `json:"barrier"`
	Severity Severity    `json:"severity"`
}

// FrictionMatch records one friction indicator found in a piece of text.
type FrictionMatch struct {
	Indicator FrictionIndicator
	Count     int
}
