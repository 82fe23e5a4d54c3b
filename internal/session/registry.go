package session

import (
	"sync"

	"github.com/google/uuid"
)

// AlgoEntry is one running algo order (spec.md §3 "Algo-order entry").
type AlgoEntry struct {
	ID        uuid.UUID
	Side      string
	SessionID uuid.UUID
	Tag       string

	mu        sync.Mutex
	cancelled bool
}

func (e *AlgoEntry) cancel() {
	e.mu.Lock()
	e.cancelled = true
	e.mu.Unlock()
}

// Cancelled reports whether a cancel request has landed on this entry. The
// background polling loop checks this once per iteration (spec.md §4.2).
func (e *AlgoEntry) Cancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

// Registry is the per-exchange (one per runtime.Handle, spec.md §3) table of
// in-flight algo orders, keyed by UUID, with cancellation predicates "all",
// "session", "tagged" and "id" from spec.md §4.3's cancelOrders.
type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*AlgoEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[uuid.UUID]*AlgoEntry)}
}

// Register adds a new algo-order entry and returns it.
func (r *Registry) Register(sessionID uuid.UUID, side, tag string) *AlgoEntry {
	e := &AlgoEntry{ID: uuid.New(), Side: side, SessionID: sessionID, Tag: tag}
	r.mu.Lock()
	r.entries[e.ID] = e
	r.mu.Unlock()
	return e
}

// Remove deletes the entry; called when a command reports Finished, before
// the scheduler proceeds (spec.md §8 invariant).
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Which selects the predicate family for cancelOrders(who, which, tag?).
type Which string

const (
	WhichAll    Which = "all"
	WhichSession Which = "session"
	WhichTagged Which = "tagged"
	WhichID     Which = "id"
)

// Cancel marks matching entries cancelled and returns how many matched.
// "all" and "session" are treated identically here (both scope to the
// session passed in) per spec.md §4.3: "all (within session), session (all
// of this session)" describe the same scoping from the caller's vantage
// point, the distinction being which session cancelOrders itself runs in.
func (r *Registry) Cancel(which Which, sessionID uuid.UUID, tag string, id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		match := false
		switch which {
		case WhichAll, WhichSession:
			match = e.SessionID == sessionID
		case WhichTagged:
			match = e.SessionID == sessionID && e.Tag == tag
		case WhichID:
			match = e.ID == id
		}
		if match {
			e.cancel()
			n++
		}
	}
	return n
}

// Len reports the number of in-flight algo orders.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
