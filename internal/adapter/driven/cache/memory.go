// Package cache implements the task-list query cache on a shared Redis
// backend with an in-process fallback.
package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore is the in-process cache backend. A single mutex guards the
// entry map and the per-team key index; contention is low since entries are
// small and operations are map lookups. Expired entries are purged lazily on
// access.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	teamKeys map[string]map[string]struct{}
	// now is the clock used for expiry checks; replaceable in tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-process cache backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		teamKeys: make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

// Get returns the payload stored under key, or ok=false if the key is absent
// or expired. An expired entry is deleted as a side effect.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.After(s.now()) {
		delete(s.entries, key)
		return nil, false
	}

	return entry.payload, true
}

// Set stores the payload under key for ttl and registers the key in the
// team's index so InvalidateTeam can find it later.
func (s *MemoryStore) Set(teamID, key string, payload []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{payload: payload, expiresAt: s.now().Add(ttl)}

	keys, ok := s.teamKeys[teamID]
	if !ok {
		keys = make(map[string]struct{})
		s.teamKeys[teamID] = keys
	}
	keys[key] = struct{}{}
}

// InvalidateTeam deletes every key registered for the team and clears the
// team's index. A team with no registered keys is a no-op.
func (s *MemoryStore) InvalidateTeam(teamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.teamKeys[teamID] {
		delete(s.entries, key)
	}
	delete(s.teamKeys, teamID)
}
