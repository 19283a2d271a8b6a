package containers

import (
	"sync"

	"golang.org/x/exp/slices"
)

// SyncSet is a mutex guarded set of strings.
type SyncSet struct {
	mu    sync.Mutex
	items map[string]struct{}
}

func NewSyncSet() *SyncSet {
	return &SyncSet{items: make(map[string]struct{})}
}

// Add inserts key and reports whether it was absent.
func (s *SyncSet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = struct{}{}
	return true
}

// Remove deletes key and reports whether it was present.
func (s *SyncSet) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	return true
}

func (s *SyncSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	return ok
}

func (s *SyncSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sorted returns a sorted snapshot of the keys.
func (s *SyncSet) Sorted() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	s.mu.Unlock()
	slices.Sort(out)
	return out
}

// TakeAll swaps the contents with an empty set and returns the previous keys
// sorted.
func (s *SyncSet) TakeAll() []string {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]struct{})
	s.mu.Unlock()

	out := make([]string, 0, len(items))
	for k := range items {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
