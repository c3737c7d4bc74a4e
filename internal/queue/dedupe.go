package queue

import "sync"

// MembershipSet is a write-once membership cache used for delivery and file
// name deduplication. Implementations must be safe for concurrent use.
type MembershipSet interface {
	Add(value string)
	Contains(value string) bool
	Values() []string
	Len() int
}

// BoundedSet is an in-memory MembershipSet that evicts its oldest entries
// once maxEntries is exceeded, bounding memory in long-lived processes.
type BoundedSet struct {
	mu         sync.Mutex
	members    map[string]struct{}
	order      []string
	maxEntries int
}

// DefaultMaxEntries bounds a dedup set at roughly a week of heavy traffic.
const DefaultMaxEntries = 10000

func NewBoundedSet(maxEntries int) *BoundedSet {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &BoundedSet{
		members:    make(map[string]struct{}),
		maxEntries: maxEntries,
	}
}

func (s *BoundedSet) Add(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[value]; ok {
		return
	}
	s.members[value] = struct{}{}
	s.order = append(s.order, value)

	for len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.members, oldest)
	}
}

func (s *BoundedSet) Contains(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[value]
	return ok
}

// Values returns members in insertion order.
func (s *BoundedSet) Values() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *BoundedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
