package cache

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Put scans for expired entries.
const sweepInterval = time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is a process-local Store with the same group semantics as RedisStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	groups  map[string]map[string]struct{}
	now     func() time.Time
	swept   time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		groups:  make(map[string]map[string]struct{}),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests to expire entries.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	now := s.now()
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
		s.mu.Lock()
		if current, still := s.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration, groups ...string) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.swept) >= sweepInterval {
		s.sweepLocked(now)
	}

	entry := memoryEntry{value: stored}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	s.entries[key] = entry

	for _, g := range groups {
		members, ok := s.groups[g]
		if !ok {
			members = make(map[string]struct{})
			s.groups[g] = members
		}
		members[key] = struct{}{}
	}
	return nil
}

// sweepLocked drops expired entries and group members whose entry is gone.
func (s *MemoryStore) sweepLocked(now time.Time) {
	s.swept = now
	for k, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	for g, members := range s.groups {
		for k := range members {
			if _, ok := s.entries[k]; !ok {
				delete(members, k)
			}
		}
		if len(members) == 0 {
			delete(s.groups, g)
		}
	}
}

func (s *MemoryStore) Forget(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *MemoryStore) FlushGroup(_ context.Context, groups ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range groups {
		for k := range s.groups[g] {
			delete(s.entries, k)
		}
		delete(s.groups, g)
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Driver() string {
	return "memory"
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
