package rootcause

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medforge/careinsight/pkg/conversation"
	"github.com/medforge/careinsight/pkg/corpus"
	"github.com/medforge/careinsight/pkg/lexicon"
)

var detected = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func point(convID string, barrier lexicon.BarrierType, severity lexicon.Severity, resolved bool, snippet string, at time.Time) conversation.FrictionPoint {
	return conversation.FrictionPoint{
		ID:             convID + "-" + snippet,
		ConversationID: convID,
		Barrier:        barrier,
		Severity:       severity,
		Resolved:       resolved,
		Snippet:        snippet,
		DetectedAt:     at,
	}
}

func TestAnalyzeBarriersEmptyInput(t *testing.T) {
	assert.Empty(t, AnalyzeBarriers(nil, nil))
}

func TestAnalyzeBarriersGroupsAndRanks(t *testing.T) {
	points := []conversation.FrictionPoint{
		point("c1", lexicon.BarrierInsurance, lexicon.SeverityHigh, false, "denied again", detected),
		point("c2", lexicon.BarrierInsurance, lexicon.SeverityMedium, true, "coverage question", detected),
		point("c3", lexicon.BarrierInsurance, lexicon.SeverityLow, true, "insurance on file", detected),
		point("c4", lexicon.BarrierClinical, lexicon.SeverityMedium, true, "some nausea", detected),
	}

	causes := AnalyzeBarriers(points, nil)
	require.Len(t, causes, 2)

	insurance := causes[0]
	assert.Equal(t, lexicon.BarrierInsurance, insurance.Barrier)
	assert.Equal(t, 3, insurance.Occurrences)
	assert.InDelta(t, 75.0, insurance.PercentOfTotal, 1e-9)
	assert.InDelta(t, 2.0/3.0, insurance.ResolutionRate, 1e-9)
	// (3+2+1)/(3*3) on the 0-100 scale.
	assert.InDelta(t, 100.0*6.0/9.0, insurance.AvgSeverity, 1e-9)
	assert.NotEmpty(t, insurance.RecommendedActions)
}

func TestAvgTimeToResolveExcludesPointsWithoutTimestamp(t *testing.T) {
	resolvedAt := detected.Add(2 * time.Hour)
	withStamp := point("c1", lexicon.BarrierProcess, lexicon.SeverityMedium, true, "paperwork", detected)
	withStamp.ResolvedAt = &resolvedAt
	withoutStamp := point("c2", lexicon.BarrierProcess, lexicon.SeverityLow, true, "on hold", detected)

	causes := AnalyzeBarriers([]conversation.FrictionPoint{withStamp, withoutStamp}, nil)
	require.Len(t, causes, 1)

	assert.Equal(t, 1, causes[0].ResolvedSamples)
	assert.Equal(t, 2*time.Hour, causes[0].AvgTimeToResolve, "unstamped resolved points are excluded, not treated as zero")
}

func TestTrendRequiresPriorPeriod(t *testing.T) {
	current := []conversation.FrictionPoint{
		point("c1", lexicon.BarrierAccess, lexicon.SeverityHigh, false, "out of stock", detected),
		point("c2", lexicon.BarrierAccess, lexicon.SeverityHigh, false, "backorder", detected),
	}

	// Absent a prior period, direction defaults to stable.
	noPrior := AnalyzeBarriers(current, nil)
	require.Len(t, noPrior, 1)
	assert.Equal(t, corpus.TrendStable, noPrior[0].Trend)

	prior := []conversation.FrictionPoint{
		point("p1", lexicon.BarrierAccess, lexicon.SeverityMedium, true, "waitlist", detected.AddDate(0, 0, -7)),
	}
	withPrior := AnalyzeBarriers(current, prior)
	require.Len(t, withPrior, 1)
	assert.Equal(t, corpus.TrendUp, withPrior[0].Trend)
}

func TestExampleSnippetsMostSevereMostRecentFirst(t *testing.T) {
	points := []conversation.FrictionPoint{
		point("c1", lexicon.BarrierAffordability, lexicon.SeverityLow, true, "copay note", detected),
		point("c2", lexicon.BarrierAffordability, lexicon.SeverityHigh, false, "older high", detected.Add(-time.Hour)),
		point("c3", lexicon.BarrierAffordability, lexicon.SeverityHigh, false, "newer high", detected),
		point("c4", lexicon.BarrierAffordability, lexicon.SeverityMedium, true, "medium", detected),
	}

	causes := AnalyzeBarriers(points, nil)
	require.Len(t, causes, 1)

	snippets := causes[0].ExampleSnippets
	require.Len(t, snippets, 3, "at most three snippets")
	assert.Equal(t, []string{"newer high", "older high", "medium"}, snippets)
}

func TestFromConversationsCorrelatesTopicsAndPatients(t *testing.T) {
	a := &conversation.Analytics{
		ConversationID: "conv-1",
		PatientID:      "patient-1",
		TopicsDetected: []string{"affordability", "refill"},
		FrictionPoints: []conversation.FrictionPoint{
			point("conv-1", lexicon.BarrierAffordability, lexicon.SeverityHigh, false, "can't afford", detected),
		},
	}
	b := &conversation.Analytics{
		ConversationID: "conv-2",
		PatientID:      "patient-1",
		TopicsDetected: []string{"affordability"},
		FrictionPoints: []conversation.FrictionPoint{
			point("conv-2", lexicon.BarrierAffordability, lexicon.SeverityMedium, true, "copay", detected),
		},
	}

	causes := FromConversations([]*conversation.Analytics{a, b}, nil)
	require.Len(t, causes, 1)

	assert.Equal(t, []string{"affordability", "refill"}, causes[0].CorrelatedTopics)
	assert.Equal(t, 1, causes[0].AffectedPatients, "same patient across two conversations counts once")
}
