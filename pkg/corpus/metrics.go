package corpus

import (
	"sort"
	"time"

	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/conversation"
	"github.com/medforge/careinsight/pkg/lexicon"
)

// DayVolume is one point of the daily call-volume series.
type DayVolume struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// SentimentDistribution holds counts and percentages across a conversation set.
type SentimentDistribution struct {
	Positive    int     `json:"positive"`
	Neutral     int     `json:"neutral"`
	Negative    int     `json:"negative"`
	PositivePct float64 `json:"positive_pct"`
	NeutralPct  float64 `json:"neutral_pct"`
	NegativePct float64 `json:"negative_pct"`
}

// TopicCount ranks a topic by the number of conversations mentioning it.
type TopicCount struct {
	TopicID       string `json:"topic_id"`
	Name          string `json:"name"`
	Conversations int    `json:"conversations"`
}

// DriverCount ranks a call driver by conversation count.
type DriverCount struct {
	Driver        string `json:"driver"`
	Conversations int    `json:"conversations"`
}

// Metrics is the corpus-level snapshot computed from the current conversation
// set, with comparison fields against the previous period. A nil change
// percentage means the comparison is undefined because the previous period was
// empty, not that the change was zero.
type Metrics struct {
	TotalConversations int          `json:"total_conversations"`
	PreviousTotal      int          `json:"previous_total"`
	VolumeChangePct    *float64     `json:"volume_change_pct,omitempty"`
	VolumeByDay        []DayVolume  `json:"volume_by_day"`

	Sentiment SentimentDistribution `json:"sentiment"`

	ResolutionRate     float64  `json:"resolution_rate"`
	EscalationRate     float64  `json:"escalation_rate"`
	PrevEscalationRate *float64 `json:"prev_escalation_rate,omitempty"`

	AvgQualityScore    float64  `json:"avg_quality_score"`
	PrevAvgQuality     *float64 `json:"prev_avg_quality,omitempty"`
	AvgComplianceScore float64  `json:"avg_compliance_score"`
	AvgEmpathyScore    float64  `json:"avg_empathy_score"`
	AvgFrictionScore   float64  `json:"avg_friction_score"`
	AvgChurnRisk       float64  `json:"avg_churn_risk"`

	RiskCounts map[conversation.RiskLevel]int `json:"risk_counts"`

	TopTopics      []TopicCount  `json:"top_topics"`
	TopCallDrivers []DriverCount `json:"top_call_drivers"`

	// Partial marks a snapshot computed before all conversations of the
	// batch were available; callers must not treat it as final.
	Partial bool `json:"partial,omitempty"`
}

// Aggregate computes the corpus snapshot for the current period, with change
// figures against the previous one. An empty current set yields a well-defined
// zeroed snapshot, never an error.
func Aggregate(current, previous []*conversation.Analytics, topics []lexicon.Topic) *Metrics {
	m := &Metrics{
		TotalConversations: len(current),
		PreviousTotal:      len(previous),
		VolumeByDay:        []DayVolume{},
		RiskCounts:         make(map[conversation.RiskLevel]int),
		TopTopics:          []TopicCount{},
		TopCallDrivers:     []DriverCount{},
	}

	if len(previous) > 0 {
		pct := percentChange(len(previous), len(current))
		m.VolumeChangePct = &pct
		prevEsc := rate(countEscalated(previous), len(previous))
		m.PrevEscalationRate = &prevEsc
		prevQuality := meanInt(previous, func(a *conversation.Analytics) int { return a.QualityScore })
		m.PrevAvgQuality = &prevQuality
	}

	if len(current) == 0 {
		return m
	}

	m.VolumeByDay = dailyVolume(current)

	resolved := 0
	var qualitySum, complianceSum, empathySum, frictionSum, churnSum int
	topicConvs := make(map[string]int)
	driverConvs := make(map[string]int)

	for _, a := range current {
		switch a.OverallSentiment {
		case classify.SentimentPositive:
			m.Sentiment.Positive++
		case classify.SentimentNegative:
			m.Sentiment.Negative++
		default:
			m.Sentiment.Neutral++
		}

		if a.ResolutionStatus == conversation.StatusResolved {
			resolved++
		}
		qualitySum += a.QualityScore
		complianceSum += a.ComplianceScore
		empathySum += a.EmpathyScore
		frictionSum += a.FrictionScore
		churnSum += a.ChurnRisk
		m.RiskCounts[a.RiskLevel]++

		for _, topicID := range a.TopicsDetected {
			topicConvs[topicID]++
		}
		if a.CallDriver != "" {
			driverConvs[a.CallDriver]++
		}
	}

	total := float64(len(current))
	m.Sentiment.PositivePct = 100 * float64(m.Sentiment.Positive) / total
	m.Sentiment.NeutralPct = 100 * float64(m.Sentiment.Neutral) / total
	m.Sentiment.NegativePct = 100 * float64(m.Sentiment.Negative) / total

	m.ResolutionRate = rate(resolved, len(current))
	m.EscalationRate = rate(countEscalated(current), len(current))
	m.AvgQualityScore = float64(qualitySum) / total
	m.AvgComplianceScore = float64(complianceSum) / total
	m.AvgEmpathyScore = float64(empathySum) / total
	m.AvgFrictionScore = float64(frictionSum) / total
	m.AvgChurnRisk = float64(churnSum) / total

	m.TopTopics = rankTopics(topicConvs, topics)
	m.TopCallDrivers = rankDrivers(driverConvs)

	return m
}

// dailyVolume groups the set by calendar day (UTC), ascending.
func dailyVolume(set []*conversation.Analytics) []DayVolume {
	byDay := make(map[time.Time]int)
	for _, a := range set {
		day := a.StartedAt.UTC().Truncate(24 * time.Hour)
		byDay[day]++
	}
	out := make([]DayVolume, 0, len(byDay))
	for day, count := range byDay {
		out = append(out, DayVolume{Date: day, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// rankTopics orders topics by conversation count descending with a stable
// topic-id tie-break.
func rankTopics(counts map[string]int, topics []lexicon.Topic) []TopicCount {
	names := make(map[string]string, len(topics))
	for _, t := range topics {
		names[t.ID] = t.Name
	}

	out := make([]TopicCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, TopicCount{TopicID: id, Name: names[id], Conversations: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Conversations != out[j].Conversations {
			return out[i].Conversations > out[j].Conversations
		}
		return out[i].TopicID < out[j].TopicID
	})
	return out
}

func rankDrivers(counts map[string]int) []DriverCount {
	out := make([]DriverCount, 0, len(counts))
	for driver, n := range counts {
		out = append(out, DriverCount{Driver: driver, Conversations: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Conversations != out[j].Conversations {
			return out[i].Conversations > out[j].Conversations
		}
		return out[i].Driver < out[j].Driver
	})
	return out
}

func countEscalated(set []*conversation.Analytics) int {
	n := 0
	for _, a := range set {
		if a.Escalated {
			n++
		}
	}
	return n
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func percentChange(previous, current int) float64 {
	return 100 * float64(current-previous) / float64(previous)
}

func meanInt(set []*conversation.Analytics, field func(*conversation.Analytics) int) float64 {
	if len(set) == 0 {
		return 0
	}
	sum := 0
	for _, a := range set {
		sum += field(a)
	}
	return float64(sum) / float64(len(set))
}
