package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestSnapshotIsIndependent(t *testing.T) {
	lex := New(testLogger())
	snap := lex.Snapshot()

	lex.Topics[0].Keywords[0] = "mutated"
	lex.PositiveWords[0] = "mutated"

	assert.NotEqual(t, "mutated", snap.Topics[0].Keywords[0], "snapshot keywords must not alias the source")
	assert.NotEqual(t, "mutated", snap.PositiveWords[0], "snapshot word lists must not alias the source")
}

func TestCountSentimentAccumulatesRepeats(t *testing.T) {
	lex := &Lexicon{
		PositiveWords: []string{"great"},
		NegativeWords: []string{"awful"},
	}

	p, n := lex.CountSentiment("Great, really great, just great")
	assert.Equal(t, 3, p, "repeated keyword occurrences accumulate")
	assert.Equal(t, 0, n)
}

func TestMatchTopicsReturnsAllMatches(t *testing.T) {
	lex := New(testLogger())

	topics := lex.MatchTopics("I need a refill but my insurance denied the claim")
	assert.Contains(t, topics, "refill")
	assert.Contains(t, topics, "insurance-coverage")
}

func TestMatchFrictionReportsBarrierAndSeverity(t *testing.T) {
	lex := New(testLogger())

	matches := lex.MatchFriction("I can't afford the copay this month")
	require.NotEmpty(t, matches)

	var barriers []BarrierType
	for _, m := range matches {
		barriers = append(barriers, m.Indicator.Barrier)
	}
	assert.Contains(t, barriers, BarrierAffordability)
}

func TestTopicByID(t *testing.T) {
	lex := New(testLogger())

	topic, ok := lex.TopicByID("side-effects")
	require.True(t, ok)
	assert.Equal(t, CategoryClinical, topic.Category)
	assert.True(t, topic.BuiltIn)

	_, ok = lex.TopicByID("no-such-topic")
	assert.False(t, ok)
}

func TestLoadFileMergesAndReplaces(t *testing.T) {
	lex := New(testLogger())
	builtinCount := len(lex.Topics)

	payload := `{
		"positive_words": ["delighted"],
		"pivotal_phrases": ["all set"],
		"topics": [
			{"id": "side-effects", "name": "Tolerability", "category": "clinical", "keywords": ["flare"]},
			{"id": "travel-support", "name": "Travel Support", "category": "access", "keywords": ["ride", "mileage"]},
			{"id": "", "name": "broken", "category": "clinical", "keywords": ["x"]}
		]
	}`
	path := filepath.Join(t.TempDir(), "lexicon.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	require.NoError(t, lex.LoadFile(path, testLogger()))

	assert.Contains(t, lex.PositiveWords, "delighted")
	assert.True(t, lex.MatchPivotal("you're all set"))

	// Replaced built-in keeps its slot, new topic is appended, broken one dropped.
	assert.Len(t, lex.Topics, builtinCount+1)
	replaced, ok := lex.TopicByID("side-effects")
	require.True(t, ok)
	assert.Equal(t, "Tolerability", replaced.Name)
	assert.True(t, lex.HasTopic("travel-support"))
}

func TestSeverityWeightOrdering(t *testing.T) {
	assert.Greater(t, SeverityWeight(SeverityHigh), SeverityWeight(SeverityMedium))
	assert.Greater(t, SeverityWeight(SeverityMedium), SeverityWeight(SeverityLow))
}
