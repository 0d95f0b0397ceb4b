package corpus

import (
	"sort"
	"time"

	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/conversation"
	"github.com/medforge/careinsight/pkg/lexicon"
)

// TrendDirection labels how a metric moved between periods.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// TrendThresholdPct is the mention-change percentage beyond which a topic
// trend counts as moving rather than stable.
const TrendThresholdPct = 5.0

// sentimentTrendEpsilon is the minimum average-score movement treated as a
// real sentiment shift between periods.
const sentimentTrendEpsilon = 0.05

// SparklinePoints is the length of the daily mention series on a trend.
const SparklinePoints = 7

// TopicTrend is a derived, recomputed-on-demand view of one topic's movement
// between the current and previous period. A nil PercentChange with IsNew set
// means the topic had no prior-period mentions, so the percentage is
// undefined rather than zero.
type TopicTrend struct {
	TopicID          string         `json:"topic_id"`
	TopicName        string         `json:"topic_name"`
	CurrentMentions  int            `json:"current_mentions"`
	PreviousMentions int            `json:"previous_mentions"`
	Direction        TrendDirection `json:"direction"`
	PercentChange    *float64       `json:"percent_change,omitempty"`
	IsNew            bool           `json:"is_new,omitempty"`

	AvgSentimentScore  float64                 `json:"avg_sentiment_score"`
	AvgSentimentLabel  classify.SentimentLabel `json:"avg_sentiment_label"`
	SentimentDirection TrendDirection          `json:"sentiment_direction"`

	ConversationCount int   `json:"conversation_count"`
	Sparkline         []int `json:"sparkline"`
}

// TopicTrends computes a trend record for every topic mentioned in either
// period. Results are ordered by current mention count descending with a
// stable topic-id tie-break.
func TopicTrends(current, previous []*conversation.Analytics, topics []lexicon.Topic) []TopicTrend {
	trends := make([]TopicTrend, 0)

	for _, topic := range topics {
		cur := mentioning(current, topic.ID)
		prev := mentioning(previous, topic.ID)
		if len(cur) == 0 && len(prev) == 0 {
			continue
		}

		trend := TopicTrend{
			TopicID:           topic.ID,
			TopicName:         topic.Name,
			CurrentMentions:   len(cur),
			PreviousMentions:  len(prev),
			ConversationCount: len(cur),
			Sparkline:         sparkline(cur),
		}

		switch {
		case len(prev) == 0:
			// No prior-period mentions: direction is up, the percentage
			// is undefined rather than a division by zero.
			trend.Direction = TrendUp
			trend.IsNew = true
		default:
			pct := percentChange(len(prev), len(cur))
			trend.PercentChange = &pct
			switch {
			case pct > TrendThresholdPct:
				trend.Direction = TrendUp
			case pct < -TrendThresholdPct:
				trend.Direction = TrendDown
			default:
				trend.Direction = TrendStable
			}
		}

		trend.AvgSentimentScore = meanSentiment(cur)
		trend.AvgSentimentLabel = bucketSentiment(trend.AvgSentimentScore)
		trend.SentimentDirection = sentimentDirection(meanSentiment(prev), trend.AvgSentimentScore, len(prev))

		trends = append(trends, trend)
	}

	sort.SliceStable(trends, func(i, j int) bool {
		if trends[i].CurrentMentions != trends[j].CurrentMentions {
			return trends[i].CurrentMentions > trends[j].CurrentMentions
		}
		return trends[i].TopicID < trends[j].TopicID
	})
	return trends
}

func mentioning(set []*conversation.Analytics, topicID string) []*conversation.Analytics {
	var out []*conversation.Analytics
	for _, a := range set {
		if a.MentionsTopic(topicID) {
			out = append(out, a)
		}
	}
	return out
}

func meanSentiment(set []*conversation.Analytics) float64 {
	if len(set) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range set {
		sum += a.SentimentScore
	}
	return sum / float64(len(set))
}

func bucketSentiment(score float64) classify.SentimentLabel {
	switch {
	case score > 0.2:
		return classify.SentimentPositive
	case score < -0.2:
		return classify.SentimentNegative
	default:
		return classify.SentimentNeutral
	}
}

func sentimentDirection(prevMean, curMean float64, prevCount int) TrendDirection {
	if prevCount == 0 {
		return TrendStable
	}
	switch {
	case curMean-prevMean > sentimentTrendEpsilon:
		return TrendUp
	case prevMean-curMean > sentimentTrendEpsilon:
		return TrendDown
	default:
		return TrendStable
	}
}

// sparkline builds the daily mention counts for the last SparklinePoints
// calendar days of the set, ending on the most recent conversation's day.
func sparkline(set []*conversation.Analytics) []int {
	points := make([]int, SparklinePoints)
	if len(set) == 0 {
		return points
	}

	var latest time.Time
	for _, a := range set {
		day := a.StartedAt.UTC().Truncate(24 * time.Hour)
		if day.After(latest) {
			latest = day
		}
	}

	for _, a := range set {
		day := a.StartedAt.UTC().Truncate(24 * time.Hour)
		offset := int(latest.Sub(day).Hours() / 24)
		if offset >= 0 && offset < SparklinePoints {
			points[SparklinePoints-1-offset]++
		}
	}
	return points
}
