package classify

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medforge/careinsight/pkg/lexicon"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewClassifier(logger, lexicon.New(logger).Snapshot())
}

func utter(text string) Utterance {
	return Utterance{Speaker: SpeakerPatient, Label: "Patient", Text: text, Timestamp: time.Now()}
}

func TestClassifySideEffectUtterance(t *testing.T) {
	c := newTestClassifier(t)

	// Mid-conversation report of a mild side effect: no sentiment lexicon
	// hits, but a clinical friction indicator and the side-effect topic.
	out := c.Classify(utter("I've had some redness at the injection site"), 3, 10)

	assert.Equal(t, SentimentNeutral, out.Sentiment)
	assert.Zero(t, out.SentimentScore)
	assert.Contains(t, out.Topics, "side-effects")
	assert.True(t, out.FrictionDetected)
	assert.False(t, out.KeyMoment)
}

func TestClassifyPositiveFinalTurn(t *testing.T) {
	c := newTestClassifier(t)

	out := c.Classify(utter("That's amazing, thank you!"), 9, 10)

	assert.Equal(t, SentimentPositive, out.Sentiment)
	assert.Positive(t, out.SentimentScore)
	assert.True(t, out.KeyMoment, "last utterance is always a key moment")
}

func TestClassifyFirstTurnIsKeyMoment(t *testing.T) {
	c := newTestClassifier(t)

	out := c.Classify(utter("Hi, calling about my medication"), 0, 6)
	assert.True(t, out.KeyMoment)
}

func TestClassifyPivotalPhraseMidConversation(t *testing.T) {
	c := newTestClassifier(t)

	out := c.Classify(utter("Your prior authorization was approved this morning"), 4, 10)
	assert.True(t, out.KeyMoment, "pivotal phrase marks a key moment regardless of position")
}

func TestSentimentScoreSignMatchesLabel(t *testing.T) {
	c := newTestClassifier(t)

	cases := []string{
		"This is wonderful, I really appreciate the help",
		"This is terrible and I am so frustrated",
		"I picked up the box on Tuesday",
		"",
		"   ",
	}

	for _, text := range cases {
		out := c.Classify(utter(text), 2, 8)
		switch out.Sentiment {
		case SentimentPositive:
			assert.Positive(t, out.SentimentScore, "text: %q", text)
		case SentimentNegative:
			assert.Negative(t, out.SentimentScore, "text: %q", text)
		default:
			assert.Zero(t, out.SentimentScore, "text: %q", text)
		}
	}
}

func TestRepeatedKeywordsAccumulateAndCap(t *testing.T) {
	c := newTestClassifier(t)

	one := c.Classify(utter("great"), 2, 8)
	two := c.Classify(utter("great great"), 2, 8)
	require.Equal(t, SentimentPositive, one.Sentiment)
	assert.Greater(t, two.SentimentScore, one.SentimentScore)

	many := c.Classify(utter("great great great great great great"), 2, 8)
	assert.InDelta(t, 0.9, many.SentimentScore, 1e-9, "score is capped at 0.9")
}

func TestNegativeScoreIsCapped(t *testing.T) {
	c := newTestClassifier(t)

	out := c.Classify(utter("awful awful awful awful awful"), 2, 8)
	require.Equal(t, SentimentNegative, out.Sentiment)
	assert.InDelta(t, -0.9, out.SentimentScore, 1e-9)
}

func TestTieResolvesToNeutral(t *testing.T) {
	c := newTestClassifier(t)

	out := c.Classify(utter("the service was great but the wait was awful"), 2, 8)
	assert.Equal(t, SentimentNeutral, out.Sentiment)
	assert.Zero(t, out.SentimentScore)
}

func TestEmptyTextDegradesGracefully(t *testing.T) {
	c := newTestClassifier(t)

	out := c.Classify(utter(""), 2, 8)
	assert.Equal(t, SentimentNeutral, out.Sentiment)
	assert.Empty(t, out.Topics)
	assert.False(t, out.FrictionDetected)
	assert.False(t, out.KeyMoment)
}

func TestFrictionFromNegativeSentimentAlone(t *testing.T) {
	c := newTestClassifier(t)

	out := c.Classify(utter("I am so frustrated with this whole thing"), 2, 8)
	require.Equal(t, SentimentNegative, out.Sentiment)
	assert.True(t, out.FrictionDetected)
}

func TestMultipleTopicMatchesRetained(t *testing.T) {
	c := newTestClassifier(t)

	out := c.Classify(utter("my refill was denied by insurance"), 2, 8)
	assert.Contains(t, out.Topics, "refill")
	assert.Contains(t, out.Topics, "insurance-coverage")
}

func TestClassifyIsIdempotent(t *testing.T) {
	c := newTestClassifier(t)
	u := utter("I can't afford the copay and I'm worried about missing doses")

	first := c.Classify(u, 1, 4)
	second := c.Classify(u, 1, 4)
	assert.Equal(t, first, second)
}
