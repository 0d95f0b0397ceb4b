package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/conversation"
	"github.com/medforge/careinsight/pkg/lexicon"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func makeTranscript(id string, texts ...string) conversation.Transcript {
	start := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	t := conversation.Transcript{
		ConversationID: id,
		PatientID:      "patient-" + id,
		Type:           conversation.TypeInbound,
		StartedAt:      start,
		Duration:       5 * time.Minute,
	}
	for i, text := range texts {
		speaker := classify.SpeakerPatient
		if i%2 == 1 {
			speaker = classify.SpeakerHumanAgent
		}
		t.Utterances = append(t.Utterances, classify.Utterance{
			Speaker:   speaker,
			Text:      text,
			Timestamp: start.Add(time.Duration(i) * 20 * time.Second),
		})
	}
	return t
}

func TestRunAnalyzesAllTranscripts(t *testing.T) {
	lex := lexicon.New(testLogger())
	p := NewProcessor(testLogger(), 4)

	transcripts := []conversation.Transcript{
		makeTranscript("c-1", "I need a refill", "I can help with that", "Thank you so much"),
		makeTranscript("c-2", "My claim was denied again", "Let me look into that"),
		makeTranscript("c-3", "Everything is great, thank you"),
	}

	res := p.Run(context.Background(), lex, transcripts)

	require.Len(t, res.Analytics, 3)
	assert.Empty(t, res.Errors)
	assert.False(t, res.Partial)

	// Successful results keep input order.
	assert.Equal(t, "c-1", res.Analytics[0].ConversationID)
	assert.Equal(t, "c-2", res.Analytics[1].ConversationID)
	assert.Equal(t, "c-3", res.Analytics[2].ConversationID)
}

func TestRunCollectsFailuresWithoutAborting(t *testing.T) {
	lex := lexicon.New(testLogger())
	p := NewProcessor(testLogger(), 2)

	transcripts := []conversation.Transcript{
		makeTranscript("good-1", "I need a refill", "On it"),
		makeTranscript("empty-1"),
		makeTranscript("good-2", "Thank you for the help"),
	}

	res := p.Run(context.Background(), lex, transcripts)

	require.Len(t, res.Analytics, 2)
	assert.Equal(t, "good-1", res.Analytics[0].ConversationID)
	assert.Equal(t, "good-2", res.Analytics[1].ConversationID)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "empty-1", res.Errors[0].ConversationID)

	var emptyErr *conversation.EmptyConversationError
	require.True(t, errors.As(res.Errors[0], &emptyErr))
	assert.Equal(t, "empty-1", emptyErr.ConversationID)

	// The failed conversation never appears among the successes.
	for _, a := range res.Analytics {
		assert.NotEqual(t, "empty-1", a.ConversationID)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	lex := lexicon.New(testLogger())
	p := NewProcessor(testLogger(), 2)

	res := p.Run(context.Background(), lex, nil)

	assert.Empty(t, res.Analytics)
	assert.Empty(t, res.Errors)
	assert.False(t, res.Partial)
}

func TestRunCancelledContextMarksPartial(t *testing.T) {
	lex := lexicon.New(testLogger())
	p := NewProcessor(testLogger(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var transcripts []conversation.Transcript
	for i := 0; i < 50; i++ {
		transcripts = append(transcripts, makeTranscript("c", "hello there"))
	}

	res := p.Run(ctx, lex, transcripts)

	assert.True(t, res.Partial)
	assert.Less(t, len(res.Analytics)+len(res.Errors), len(transcripts))
}

func TestRunDeterministicAcrossConcurrency(t *testing.T) {
	lex := lexicon.New(testLogger())
	transcripts := []conversation.Transcript{
		makeTranscript("c-1", "I can't afford this medication", "Let me check assistance programs", "Thank you"),
		makeTranscript("c-2", "The package is still waiting somewhere", "I will trace the shipment"),
	}

	serial := NewProcessor(testLogger(), 1).Run(context.Background(), lex, transcripts)
	parallel := NewProcessor(testLogger(), 8).Run(context.Background(), lex, transcripts)

	require.Len(t, parallel.Analytics, len(serial.Analytics))
	for i := range serial.Analytics {
		assert.Equal(t, serial.Analytics[i], parallel.Analytics[i])
	}
}

func TestRunUsesLexiconSnapshot(t *testing.T) {
	logger := testLogger()
	lex := lexicon.New(logger)
	p := NewProcessor(logger, 2)

	before := p.Run(context.Background(), lex, []conversation.Transcript{
		makeTranscript("c-1", "the shipment is delayed again"),
	})

	// A later vocabulary edit must not retroactively change earlier runs.
	lex.NegativeWords = append(lex.NegativeWords, "delayed")
	after := p.Run(context.Background(), lex, []conversation.Transcript{
		makeTranscript("c-1", "the shipment is delayed again"),
	})

	require.Len(t, before.Analytics, 1)
	require.Len(t, after.Analytics, 1)
	assert.NotEqual(t, before.Analytics[0].OverallSentiment, after.Analytics[0].OverallSentiment)
}
