package conversation

import "fmt"

// EmptyConversationError is returned when a conversation has no utterances.
// The engine cannot produce a meaningful record from an empty transcript; the
// failure is fatal to that conversation only and never aborts a batch.
type EmptyConversationError struct {
	ConversationID string
}

func (e *EmptyConversationError) Error() string {
	return fmt.Sprintf("conversation %s has no utterances", e.ConversationID)
}
