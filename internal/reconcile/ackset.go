package reconcile

import (
	"sync"
)

// AckSet tracks receipt ids whose delivery acknowledgment has been submitted
// but may not yet be reflected in snapshots arriving from the feed. It is a
// cache over eventually-consistent reads, never a second source of truth:
// entries are pruned against each snapshot's live window, so an id that
// rotates out of the on-chain log cannot pin memory, and an id the ledger
// still reports as undelivered after pruning is simply retried.
type AckSet struct {
	mu  sync.Mutex
	ids map[uint64]struct{}
}

// NewAckSet returns an empty set.
func NewAckSet() *AckSet {
	return &AckSet{ids: make(map[uint64]struct{})}
}

// Add records that an acknowledgment for id has been submitted.
func (s *AckSet) Add(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

// Has reports whether an acknowledgment for id is in flight.
func (s *AckSet) Has(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Prune drops every tracked id that is either absent from the live window or
// already marked delivered there. Once the ledger reflects the delivery the
// local entry has served its purpose.
func (s *AckSet) Prune(live map[uint64]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.ids {
		delivered, present := live[id]
		if !present || delivered {
			delete(s.ids, id)
		}
	}
}

// Len returns the number of in-flight acknowledgments.
func (s *AckSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
