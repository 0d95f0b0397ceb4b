package classify

import "time"

// SpeakerRole identifies who produced an utterance.
type SpeakerRole string

const (
	SpeakerAIAgent    SpeakerRole = "ai-agent"
	SpeakerPatient    SpeakerRole = "patient"
	SpeakerHumanAgent SpeakerRole = "human-agent"
)

// SentimentLabel buckets a continuous sentiment score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Utterance is one speaker turn of a completed transcript. Immutable once
// created; owned by its parent conversation.
type Utterance struct {
	Speaker   SpeakerRole `json:"speaker"`
	Label     string      `json:"label"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

// AnalyzedUtterance is an utterance plus the signals derived from it. Produced
// once by the classifier and never mutated afterwards.
type AnalyzedUtterance struct {
	Utterance

	Sentiment        SentimentLabel `json:"sentiment"`
	SentimentScore   float64        `json:"sentiment_score"`
	Topics           []string       `json:"topics,omitempty"`
	FrictionDetected bool           `json:"friction_detected"`
	KeyMoment        bool           `json:"key_moment"`
}
