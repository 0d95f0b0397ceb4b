package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/conversation"
	"github.com/medforge/careinsight/pkg/lexicon"
)

// Filter selects conversations from an analytics set. Dimensions are ANDed
// together; within a set-valued dimension membership is ORed. A zero-valued
// dimension matches everything.
type Filter struct {
	From *time.Time
	To   *time.Time

	Sentiments  []classify.SentimentLabel
	Topics      []string
	Types       []conversation.ConversationType
	Resolutions []conversation.ResolutionStatus
	RiskLevels  []conversation.RiskLevel

	MinCSAT *int
	MaxCSAT *int

	MinDuration *time.Duration
	MaxDuration *time.Duration

	FrictionDetected *bool

	// Search is a case-insensitive substring match over utterance text.
	Search string
}

// Apply filters the set, preserving input order. It is side-effect-free and
// deterministic; the same inputs always yield the same ordered output.
// Inverted ranges and topic ids missing from the topic table are rejected
// before any matching begins.
func Apply(set []*conversation.Analytics, f Filter, topics []lexicon.Topic) ([]*conversation.Analytics, error) {
	if err := validate(f, topics); err != nil {
		return nil, err
	}

	out := make([]*conversation.Analytics, 0, len(set))
	for _, a := range set {
		if matches(a, f) {
			out = append(out, a)
		}
	}
	return out, nil
}

func validate(f Filter, topics []lexicon.Topic) error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return &InconsistentFilterRangeError{Field: "date", Min: f.From.Format(time.RFC3339), Max: f.To.Format(time.RFC3339)}
	}
	if f.MinCSAT != nil && f.MaxCSAT != nil && *f.MinCSAT > *f.MaxCSAT {
		return &InconsistentFilterRangeError{Field: "csat", Min: strconv.Itoa(*f.MinCSAT), Max: strconv.Itoa(*f.MaxCSAT)}
	}
	if f.MinDuration != nil && f.MaxDuration != nil && *f.MinDuration > *f.MaxDuration {
		return &InconsistentFilterRangeError{Field: "duration", Min: f.MinDuration.String(), Max: f.MaxDuration.String()}
	}

	known := make(map[string]bool, len(topics))
	for _, t := range topics {
		known[t.ID] = true
	}
	for _, id := range f.Topics {
		if !known[id] {
			return &UnknownTopicReferenceError{TopicID: id}
		}
	}
	return nil
}

func matches(a *conversation.Analytics, f Filter) bool {
	if f.From != nil && a.StartedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !a.StartedAt.Before(*f.To) {
		return false
	}
	if len(f.Sentiments) > 0 && !containsSentiment(f.Sentiments, a.OverallSentiment) {
		return false
	}
	if len(f.Topics) > 0 && !mentionsAny(a, f.Topics) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, a.Type) {
		return false
	}
	if len(f.Resolutions) > 0 && !containsResolution(f.Resolutions, a.ResolutionStatus) {
		return false
	}
	if len(f.RiskLevels) > 0 && !containsRisk(f.RiskLevels, a.RiskLevel) {
		return false
	}
	if f.MinCSAT != nil || f.MaxCSAT != nil {
		if a.CSATScore == nil {
			return false
		}
		if f.MinCSAT != nil && *a.CSATScore < *f.MinCSAT {
			return false
		}
		if f.MaxCSAT != nil && *a.CSATScore > *f.MaxCSAT {
			return false
		}
	}
	if f.MinDuration != nil && a.Duration < *f.MinDuration {
		return false
	}
	if f.MaxDuration != nil && a.Duration > *f.MaxDuration {
		return false
	}
	if f.FrictionDetected != nil && (len(a.FrictionPoints) > 0) != *f.FrictionDetected {
		return false
	}
	if f.Search != "" && !searchUtterances(a, f.Search) {
		return false
	}
	return true
}

func mentionsAny(a *conversation.Analytics, topics []string) bool {
	for _, id := range topics {
		if a.MentionsTopic(id) {
			return true
		}
	}
	return false
}

func searchUtterances(a *conversation.Analytics, needle string) bool {
	lower := strings.ToLower(needle)
	for _, u := range a.Utterances {
		if strings.Contains(strings.ToLower(u.Text), lower) {
			return true
		}
	}
	return false
}

func containsSentiment(set []classify.SentimentLabel, v classify.SentimentLabel) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsType(set []conversation.ConversationType, v conversation.ConversationType) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsResolution(set []conversation.ResolutionStatus, v conversation.ResolutionStatus) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsRisk(set []conversation.RiskLevel, v conversation.RiskLevel) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
