package corpus

import (
	"sync"
	"time"

	"github.com/medforge/careinsight/pkg/conversation"
)

// Store is an in-memory collection of analyzed conversations. The engine does
// not own durable persistence; this store backs the host's rolling aggregation
// windows and can be swapped for an external one behind the same methods.
type Store struct {
	mu    sync.RWMutex
	items []*conversation.Analytics
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add appends an analyzed conversation.
func (s *Store) Add(a *conversation.Analytics) {
	if a == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, a)
}

// All returns a copy of the stored set in insertion order.
func (s *Store) All() []*conversation.Analytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*conversation.Analytics(nil), s.items...)
}

// Window returns the conversations whose start time falls in [from, to).
func (s *Store) Window(from, to time.Time) []*conversation.Analytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*conversation.Analytics
	for _, a := range s.items {
		if !a.StartedAt.Before(from) && a.StartedAt.Before(to) {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of stored conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
