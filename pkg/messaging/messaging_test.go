package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/conversation"
)

func TestDecodeTranscript(t *testing.T) {
	body := []byte(`{
		"conversation_id": "conv-42",
		"patient_id": "pat-7",
		"type": "inbound",
		"started_at": "2026-03-10T14:30:00Z",
		"duration_seconds": 300,
		"turns": [
			{"speaker": "patient", "text": "I need a refill", "timestamp": "2026-03-10T14:30:05Z"},
			{"speaker": "human-agent", "text": "I can help with that", "timestamp": "2026-03-10T14:30:20Z"}
		]
	}`)

	msg, err := DecodeTranscript(body)
	require.NoError(t, err)

	assert.Equal(t, "conv-42", msg.ConversationID)
	assert.Equal(t, "pat-7", msg.PatientID)
	require.Len(t, msg.Turns, 2)
	assert.Equal(t, "I need a refill", msg.Turns[0].Text)
}

func TestDecodeTranscriptRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"conversation_id": `},
		{"missing conversation id", `{"patient_id": "pat-7", "turns": []}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeTranscript([]byte(tc.body))
			assert.Error(t, err)
		})
	}
}

func TestTranscriptConversion(t *testing.T) {
	started := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	msg := &TranscriptMessage{
		ConversationID:  "conv-42",
		PatientID:       "pat-7",
		Type:            "adherence-checkin",
		StartedAt:       started,
		DurationSeconds: 180,
		Turns: []TranscriptTurn{
			{Speaker: "ai-agent", Text: "How are you doing with your medication?", Timestamp: started},
			{Speaker: "patient", Text: "Pretty well, thanks", Timestamp: started.Add(10 * time.Second)},
		},
	}

	tr := msg.Transcript()

	assert.Equal(t, "conv-42", tr.ConversationID)
	assert.Equal(t, conversation.TypeAdherenceCheckin, tr.Type)
	assert.Equal(t, 3*time.Minute, tr.Duration)
	require.Len(t, tr.Utterances, 2)
	assert.Equal(t, classify.SpeakerAIAgent, tr.Utterances[0].Speaker)
	assert.Equal(t, classify.SpeakerPatient, tr.Utterances[1].Speaker)
}
