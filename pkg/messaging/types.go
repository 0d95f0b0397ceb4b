package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/conversation"
)

// TranscriptTurn is one utterance of an inbound transcript message.
type TranscriptTurn struct {
	Speaker   string    `json:"speaker"`
	Label     string    `json:"label,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptMessage is the wire format for transcripts arriving on the
// intake queue.
type TranscriptMessage struct {
	ConversationID  string           `json:"conversation_id"`
	PatientID       string           `json:"patient_id"`
	Type            string           `json:"type"`
	StartedAt       time.Time        `json:"started_at"`
	DurationSeconds int              `json:"duration_seconds"`
	Turns           []TranscriptTurn `json:"turns"`
}

// DecodeTranscript parses a transcript message body.
func DecodeTranscript(body []byte) (*TranscriptMessage, error) {
	var msg TranscriptMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode transcript message: %w", err)
	}
	if msg.ConversationID == "" {
		return nil, fmt.Errorf("transcript message missing conversation_id")
	}
	return &msg, nil
}

// Transcript converts the wire message into the analyzer's input form.
func (m *TranscriptMessage) Transcript() conversation.Transcript {
	t := conversation.Transcript{
		ConversationID: m.ConversationID,
		PatientID:      m.PatientID,
		Type:           conversation.ConversationType(m.Type),
		StartedAt:      m.StartedAt,
		Duration:       time.Duration(m.DurationSeconds) * time.Second,
	}
	for _, turn := range m.Turns {
		t.Utterances = append(t.Utterances, classify.Utterance{
			Speaker:   classify.SpeakerRole(turn.Speaker),
			Label:     turn.Label,
			Text:      turn.Text,
			Timestamp: turn.Timestamp,
		})
	}
	return t
}
