package rootcause

import (
	"sort"
	"time"

	"github.com/medforge/careinsight/pkg/conversation"
	"github.com/medforge/careinsight/pkg/corpus"
	"github.com/medforge/careinsight/pkg/lexicon"
)

// maxExampleSnippets bounds the verbatim examples carried per barrier.
const maxExampleSnippets = 3

// recommendedActions is the fixed playbook suggestion per barrier type.
var recommendedActions = map[lexicon.BarrierType][]string{
	lexicon.BarrierInsurance: {
		"Review prior-authorization turnaround with payer liaisons",
		"Proactively verify coverage before refill dates",
	},
	lexicon.BarrierAffordability: {
		"Screen affected patients for copay assistance eligibility",
		"Surface financial assistance programs during enrollment",
	},
	lexicon.BarrierAccess: {
		"Check stock levels with specialty pharmacy partners",
		"Offer alternative pickup or mail-order options",
	},
	lexicon.BarrierClinical: {
		"Route side-effect reports to the clinical escalation queue",
		"Schedule nurse follow-up within 48 hours",
	},
	lexicon.BarrierProcess: {
		"Audit pending paperwork older than one week",
		"Reduce transfer count on document-related calls",
	},
	lexicon.BarrierSupportQuality: {
		"Review escalated calls in agent coaching sessions",
		"Tighten callback service-level targets",
	},
}

// RootCause is the derived analysis of one barrier type across the friction
// point corpus.
type RootCause struct {
	Barrier          lexicon.BarrierType  `json:"barrier"`
	Occurrences      int                  `json:"occurrences"`
	PercentOfTotal   float64              `json:"percent_of_total"`
	AvgSeverity      float64              `json:"avg_severity"`
	ResolutionRate   float64              `json:"resolution_rate"`
	AvgTimeToResolve time.Duration        `json:"avg_time_to_resolve"`
	ResolvedSamples  int                  `json:"resolved_samples"`
	Trend            corpus.TrendDirection `json:"trend"`
	AffectedPatients int                  `json:"affected_patients"`
	CorrelatedTopics []string             `json:"correlated_topics,omitempty"`
	ExampleSnippets  []string             `json:"example_snippets,omitempty"`
	RecommendedActions []string           `json:"recommended_actions,omitempty"`
}

// AnalyzeBarriers groups friction points by barrier type and derives one
// RootCause per barrier present in the current set. The prior-period set only
// feeds the trend direction; without one every trend is reported stable.
// An empty input yields an empty list, never an error.
func AnalyzeBarriers(current, prior []conversation.FrictionPoint) []RootCause {
	if len(current) == 0 {
		return []RootCause{}
	}

	grouped := make(map[lexicon.BarrierType][]conversation.FrictionPoint)
	for _, p := range current {
		grouped[p.Barrier] = append(grouped[p.Barrier], p)
	}
	priorCounts := make(map[lexicon.BarrierType]int)
	for _, p := range prior {
		priorCounts[p.Barrier]++
	}

	out := make([]RootCause, 0, len(grouped))
	for barrier, points := range grouped {
		out = append(out, analyzeBarrier(barrier, points, priorCounts[barrier], len(prior) > 0, len(current)))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Barrier < out[j].Barrier
	})
	return out
}

func analyzeBarrier(barrier lexicon.BarrierType, points []conversation.FrictionPoint, priorCount int, hasPrior bool, total int) RootCause {
	rc := RootCause{
		Barrier:            barrier,
		Occurrences:        len(points),
		PercentOfTotal:     100 * float64(len(points)) / float64(total),
		Trend:              corpus.TrendStable,
		RecommendedActions: recommendedActions[barrier],
	}

	resolved := 0
	severitySum := 0
	var resolveSum time.Duration
	patients := make(map[string]bool)

	for _, p := range points {
		severitySum += lexicon.SeverityWeight(p.Severity)
		if p.Resolved {
			resolved++
			// Time-to-resolve averages only over points that carry a
			// resolution timestamp; the rest are excluded, not zeroed.
			if p.ResolvedAt != nil {
				resolveSum += p.ResolvedAt.Sub(p.DetectedAt)
				rc.ResolvedSamples++
			}
		}
		patients[p.ConversationID] = true
	}

	rc.AvgSeverity = 100 * float64(severitySum) / float64(len(points)*lexicon.SeverityWeight(lexicon.SeverityHigh))
	rc.ResolutionRate = float64(resolved) / float64(len(points))
	if rc.ResolvedSamples > 0 {
		rc.AvgTimeToResolve = resolveSum / time.Duration(rc.ResolvedSamples)
	}
	rc.AffectedPatients = len(patients)
	rc.ExampleSnippets = exampleSnippets(points)

	if hasPrior {
		switch {
		case len(points) > priorCount:
			rc.Trend = corpus.TrendUp
		case len(points) < priorCount:
			rc.Trend = corpus.TrendDown
		}
	}

	return rc
}

// exampleSnippets picks up to three verbatim snippets, most severe first and
// most recent within equal severity.
func exampleSnippets(points []conversation.FrictionPoint) []string {
	sorted := append([]conversation.FrictionPoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := lexicon.SeverityWeight(sorted[i].Severity), lexicon.SeverityWeight(sorted[j].Severity)
		if wi != wj {
			return wi > wj
		}
		return sorted[i].DetectedAt.After(sorted[j].DetectedAt)
	})

	n := len(sorted)
	if n > maxExampleSnippets {
		n = maxExampleSnippets
	}
	out := make([]string, 0, n)
	for _, p := range sorted[:n] {
		if p.Snippet != "" {
			out = append(out, p.Snippet)
		}
	}
	return out
}

// FromConversations extracts the friction point corpus from two conversation
// sets and analyzes it, enriching each barrier with the topics of the
// conversations it appeared in and the count of distinct affected patients.
func FromConversations(current, prior []*conversation.Analytics) []RootCause {
	causes := AnalyzeBarriers(collectPoints(current), collectPoints(prior))

	topicsByConv := make(map[string][]string, len(current))
	patientByConv := make(map[string]string, len(current))
	for _, a := range current {
		topicsByConv[a.ConversationID] = a.TopicsDetected
		patientByConv[a.ConversationID] = a.PatientID
	}

	points := collectPoints(current)
	for i := range causes {
		seenTopics := make(map[string]bool)
		patients := make(map[string]bool)
		var topics []string
		for _, p := range points {
			if p.Barrier != causes[i].Barrier {
				continue
			}
			if patient, ok := patientByConv[p.ConversationID]; ok {
				patients[patient] = true
			}
			for _, topic := range topicsByConv[p.ConversationID] {
				if !seenTopics[topic] {
					seenTopics[topic] = true
					topics = append(topics, topic)
				}
			}
		}
		sort.Strings(topics)
		causes[i].CorrelatedTopics = topics
		causes[i].AffectedPatients = len(patients)
	}
	return causes
}

func collectPoints(set []*conversation.Analytics) []conversation.FrictionPoint {
	var out []conversation.FrictionPoint
	for _, a := range set {
		out = append(out, a.FrictionPoints...)
	}
	return out
}
