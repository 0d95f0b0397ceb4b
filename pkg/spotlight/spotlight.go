package spotlight

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medforge/careinsight/pkg/corpus"
	"github.com/medforge/careinsight/pkg/rootcause"
)

// Type labels the kind of insight a spotlight carries.
type Type string

const (
	TypeEmergingIssue  Type = "emerging-issue"
	TypePositiveTrend  Type = "positive-trend"
	TypeRiskAlert      Type = "risk-alert"
	TypeOperationalWin Type = "operational-win"
)

// Severity grades how urgently a spotlight needs attention.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityPositive Severity = "positive"
)

// severityRank orders severities for spotlight ranking.
var severityRank = map[Severity]int{
	SeverityCritical: 3,
	SeverityWarning:  2,
	SeverityPositive: 1,
	SeverityInfo:     0,
}

// Spotlight is an auto-generated, ranked insight surfaced from aggregate
// trends. Dismissed is the only field an external reviewer may mutate.
type Spotlight struct {
	ID                    string    `json:"id"`
	Type                  Type      `json:"type"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	Metric                *float64  `json:"metric,omitempty"`
	Severity              Severity  `json:"severity"`
	DetectedAt            time.Time `json:"detected_at"`
	TimeFrame             string    `json:"time_frame"`
	AffectedConversations int       `json:"affected_conversations"`
	TopicID               string    `json:"topic_id,omitempty"`
	RecommendedAction     string    `json:"recommended_action,omitempty"`
	Dismissed             bool      `json:"dismissed"`
}

// Config holds the threshold knobs of the spotlight rules. The defaults are
// implementer-chosen and meant to be tuned per deployment.
type Config struct {
	// EmergingIssuePct is the minimum upward mention change for an
	// emerging-issue spotlight; CriticalPct upgrades it to critical.
	EmergingIssuePct float64
	CriticalPct      float64

	// ResolutionRateFloor and MinOccurrences gate the risk-alert rule.
	ResolutionRateFloor float64
	MinOccurrences      int
}

// DefaultConfig returns the default rule thresholds.
func DefaultConfig() Config {
	return Config{
		EmergingIssuePct:    40,
		CriticalPct:         80,
		ResolutionRateFloor: 0.60,
		MinOccurrences:      5,
	}
}

// Generator scans aggregate outputs for threshold breaches and emits ranked
// spotlights. Each rule runs independently; Generate is pure given its inputs
// and the asOf date.
type Generator struct {
	logger *logrus.Entry
	cfg    Config
}

// NewGenerator creates a generator with the given thresholds.
func NewGenerator(logger *logrus.Logger, cfg Config) *Generator {
	return &Generator{
		logger: logger.WithField("component", "spotlight_generator"),
		cfg:    cfg,
	}
}

// Generate runs every spotlight rule over the aggregate outputs and returns
// the hits ranked by severity, then affected-conversation count descending.
func (g *Generator) Generate(metrics *corpus.Metrics, trends []corpus.TopicTrend, causes []rootcause.RootCause, asOf time.Time) []Spotlight {
	var out []Spotlight
	out = append(out, g.emergingIssues(trends, asOf)...)
	out = append(out, g.positiveTrends(trends, asOf)...)
	out = append(out, g.riskAlerts(causes, asOf)...)
	out = append(out, g.operationalWins(metrics, asOf)...)

	sort.SliceStable(out, func(i, j int) bool {
		if severityRank[out[i].Severity] != severityRank[out[j].Severity] {
			return severityRank[out[i].Severity] > severityRank[out[j].Severity]
		}
		return out[i].AffectedConversations > out[j].AffectedConversations
	})

	g.logger.WithFields(logrus.Fields{
		"spotlights": len(out),
		"as_of":      asOf.Format("2006-01-02"),
	}).Debug("Spotlight generation complete")
	return out
}

// emergingIssues flags topics whose mentions rose at least EmergingIssuePct
// versus the prior period. New topics (undefined percentage) qualify once
// they clear the minimum volume of one mention per sparkline day.
func (g *Generator) emergingIssues(trends []corpus.TopicTrend, asOf time.Time) []Spotlight {
	var out []Spotlight
	for _, trend := range trends {
		if trend.Direction != corpus.TrendUp {
			continue
		}

		var pct float64
		switch {
		case trend.PercentChange != nil:
			pct = *trend.PercentChange
			if pct < g.cfg.EmergingIssuePct {
				continue
			}
		case trend.IsNew && trend.CurrentMentions >= corpus.SparklinePoints:
			pct = 100
		default:
			continue
		}

		severity := SeverityWarning
		if pct >= g.cfg.CriticalPct {
			severity = SeverityCritical
		}

		metric := pct
		out = append(out, Spotlight{
			ID:          spotlightID(TypeEmergingIssue, trend.TopicID, asOf),
			Type:        TypeEmergingIssue,
			Title:       fmt.Sprintf("Mentions of %q are spiking", trend.TopicName),
			Description: fmt.Sprintf("%s came up in %d conversations this period, up from %d in the prior one.", trend.TopicName, trend.CurrentMentions, trend.PreviousMentions),
			Metric:      &metric,
			Severity:    severity,
			DetectedAt:  asOf,
			TimeFrame:   "vs. prior period",
			AffectedConversations: trend.ConversationCount,
			TopicID:               trend.TopicID,
		})
	}
	return out
}

// positiveTrends flags topics with rising mentions and rising sentiment.
func (g *Generator) positiveTrends(trends []corpus.TopicTrend, asOf time.Time) []Spotlight {
	var out []Spotlight
	for _, trend := range trends {
		if trend.Direction != corpus.TrendUp || trend.SentimentDirection != corpus.TrendUp {
			continue
		}
		out = append(out, Spotlight{
			ID:          spotlightID(TypePositiveTrend, trend.TopicID, asOf),
			Type:        TypePositiveTrend,
			Title:       fmt.Sprintf("Sentiment around %q is improving", trend.TopicName),
			Description: fmt.Sprintf("Conversations about %s are growing and trending more positive.", trend.TopicName),
			Severity:    SeverityPositive,
			DetectedAt:  asOf,
			TimeFrame:   "vs. prior period",
			AffectedConversations: trend.ConversationCount,
			TopicID:               trend.TopicID,
		})
	}
	return out
}

// riskAlerts flags barriers resolving below the configured floor, once they
// clear the minimum occurrence volume.
func (g *Generator) riskAlerts(causes []rootcause.RootCause, asOf time.Time) []Spotlight {
	var out []Spotlight
	for _, cause := range causes {
		if cause.Occurrences < g.cfg.MinOccurrences || cause.ResolutionRate >= g.cfg.ResolutionRateFloor {
			continue
		}

		metric := 100 * cause.ResolutionRate
		action := ""
		if len(cause.RecommendedActions) > 0 {
			action = cause.RecommendedActions[0]
		}
		out = append(out, Spotlight{
			ID:          spotlightID(TypeRiskAlert, string(cause.Barrier), asOf),
			Type:        TypeRiskAlert,
			Title:       fmt.Sprintf("%s barriers are going unresolved", cause.Barrier),
			Description: fmt.Sprintf("Only %.0f%% of %d %s friction points were resolved this period.", 100*cause.ResolutionRate, cause.Occurrences, cause.Barrier),
			Metric:      &metric,
			Severity:    SeverityCritical,
			DetectedAt:  asOf,
			TimeFrame:   "current period",
			AffectedConversations: cause.AffectedPatients,
			RecommendedAction:     action,
		})
	}
	return out
}

// operationalWins fires when the escalation rate fell and the quality score
// rose versus the prior period.
func (g *Generator) operationalWins(metrics *corpus.Metrics, asOf time.Time) []Spotlight {
	if metrics == nil || metrics.PrevEscalationRate == nil || metrics.PrevAvgQuality == nil {
		return nil
	}
	if metrics.EscalationRate >= *metrics.PrevEscalationRate || metrics.AvgQualityScore <= *metrics.PrevAvgQuality {
		return nil
	}

	metric := 100 * (*metrics.PrevEscalationRate - metrics.EscalationRate)
	return []Spotlight{{
		ID:          spotlightID(TypeOperationalWin, "corpus", asOf),
		Type:        TypeOperationalWin,
		Title:       "Escalations down, quality up",
		Description: fmt.Sprintf("Escalation rate fell from %.0f%% to %.0f%% while average quality rose from %.0f to %.0f.", 100**metrics.PrevEscalationRate, 100*metrics.EscalationRate, *metrics.PrevAvgQuality, metrics.AvgQualityScore),
		Metric:      &metric,
		Severity:    SeverityPositive,
		DetectedAt:  asOf,
		TimeFrame:   "vs. prior period",
		AffectedConversations: metrics.TotalConversations,
	}}
}

// spotlightID derives a stable id so regenerating the same insight on the
// same day yields the same record.
func spotlightID(t Type, subject string, asOf time.Time) string {
	key := fmt.Sprintf("spotlight/%s/%s/%s", t, subject, asOf.Format("2006-01-02"))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
