// Package session implements the per-sequence session (tag -> broker orders)
// and the cross-sequence algo-order registry from spec.md §3 and §4.3's
// cancelOrders predicates.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Session scopes tag->orders lookups for the lifetime of one command
// sequence (spec.md glossary: "Session").
type Session struct {
	ID uuid.UUID

	mu    sync.Mutex
	order map[string][]string // tag -> broker order ids
}

func New() *Session {
	return &Session{ID: uuid.New(), order: make(map[string][]string)}
}

// Record appends a broker order id under tag.
func (s *Session) Record(tag, orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order[tag] = append(s.order[tag], orderID)
}

// Replace swaps oldID for newID wherever it appears, used when
// updateOrderPrice returns a different id (spec.md §3 "Broker order").
func (s *Session) Replace(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tag, ids := range s.order {
		for i, id := range ids {
			if id == oldID {
				s.order[tag][i] = newID
			}
		}
	}
}

// OrdersByTag returns a copy of the broker order ids recorded under tag.
func (s *Session) OrdersByTag(tag string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order[tag]))
	copy(out, s.order[tag])
	return out
}
