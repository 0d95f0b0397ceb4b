package classify

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/medforge/careinsight/pkg/lexicon"
)

// Sentiment scoring constants. A keyword hit moves the score scoreStep away
// from the base in the winning direction, capped at scoreCap.
const (
	scoreBase = 0.5
	scoreStep = 0.2
	scoreCap  = 0.9
)

// Classifier derives per-utterance signals from a read-only lexicon snapshot.
// Classify is a pure function of its inputs; the classifier holds no state
// beyond the snapshot, so one instance is safe for concurrent use.
type Classifier struct {
	logger *logrus.Entry
	lex    *lexicon.Lexicon
}

// NewClassifier creates a classifier over the given lexicon snapshot.
func NewClassifier(logger *logrus.Logger, lex *lexicon.Lexicon) *Classifier {
	return &Classifier{
		logger: logger.WithField("component", "classifier"),
		lex:    lex,
	}
}

// Classify analyzes one speaker turn. Position is the zero-based index of the
// utterance within the conversation and total the conversation's turn count;
// both feed the key-moment heuristic. Empty or whitespace-only text degrades
// to a neutral, signal-free result rather than an error.
func (c *Classifier) Classify(u Utterance, position, total int) AnalyzedUtterance {
	out := AnalyzedUtterance{
		Utterance: u,
		Sentiment: SentimentNeutral,
	}

	text := strings.TrimSpace(u.Text)
	if text == "" {
		return out
	}

	out.Sentiment, out.SentimentScore = c.scoreSentiment(text)
	out.Topics = c.lex.MatchTopics(text)

	// Friction fires on negative sentiment or any friction indicator,
	// independent of sentiment.
	out.FrictionDetected = out.Sentiment == SentimentNegative || len(c.lex.MatchFriction(text)) > 0

	// First and last turns are always key moments; pivotal phrases mark the
	// rest.
	out.KeyMoment = position == 0 || position == total-1 || c.lex.MatchPivotal(text)

	return out
}

// scoreSentiment runs the bag-of-keywords scorer. Ties (including zero hits on
// both sides) resolve to neutral with score 0.
func (c *Classifier) scoreSentiment(text string) (SentimentLabel, float64) {
	p, n := c.lex.CountSentiment(text)
	switch {
	case p > n:
		score := scoreBase + scoreStep*float64(p)
		if score > scoreCap {
			score = scoreCap
		}
		return SentimentPositive, score
	case n > p:
		score := -scoreBase - scoreStep*float64(n)
		if score < -scoreCap {
			score = -scoreCap
		}
		return SentimentNegative, score
	default:
		return SentimentNeutral, 0
	}
}
