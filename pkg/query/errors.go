package query

import "fmt"

// InconsistentFilterRangeError is returned when a filter range has inverted
// bounds. The filter is rejected before any matching begins.
type InconsistentFilterRangeError struct {
	Field string
	Min   string
	Max   string
}

func (e *InconsistentFilterRangeError) Error() string {
	return fmt.Sprintf("inconsistent %s range: min %s exceeds max %s", e.Field, e.Min, e.Max)
}

// UnknownTopicReferenceError is returned when a filter references a topic id
// absent from the supplied topic table.
type UnknownTopicReferenceError struct {
	TopicID string
}

func (e *UnknownTopicReferenceError) Error() string {
	return fmt.Sprintf("unknown topic reference: %s", e.TopicID)
}
