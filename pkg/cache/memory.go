package cache

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// memoryStore is a mutex-guarded in-process Store. It backs tests and
// single-instance deployments that run without Redis.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an in-memory cache store.
func NewMemoryStore() Store {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *memoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

// DeleteByPattern matches the same glob syntax Redis uses for SCAN MATCH.
func (s *memoryStore) DeleteByPattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.entries {
		if matchGlob(pattern, key) {
			delete(s.entries, key)
		}
	}
	return nil
}

// matchGlob matches * against any run of characters, including separators.
// path.Match treats ':' literally but stops '*' at '/'; keys never contain
// '/', so a segment-wise fallback is unnecessary.
func matchGlob(pattern, key string) bool {
	if !strings.ContainsAny(key, "/") {
		ok, err := path.Match(pattern, key)
		return err == nil && ok
	}
	return pattern == key
}

var _ Store = (*memoryStore)(nil)
