package quota

import (
	"context"
	"sync"
	"time"

	"fantasy-tracker/internal/constants"
)

type bucketKey struct {
	key string
	day string
}

// MemoryStore is the default single-process store. Stale day buckets are
// reaped opportunistically during Incr so day rollover needs no timer.
type MemoryStore struct {
	mu       sync.Mutex
	buckets  map[bucketKey]int64
	lastReap time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets:  make(map[bucketKey]int64),
		lastReap: time.Now(),
	}
}

func (s *MemoryStore) Incr(_ context.Context, key, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastReap) > constants.QuotaReapInterval {
		s.reapLocked(day)
		s.lastReap = time.Now()
	}

	b := bucketKey{key: key, day: day}
	s.buckets[b]++
	return s.buckets[b], nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Reap drops every bucket not belonging to the given day.
func (s *MemoryStore) Reap(currentDay string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked(currentDay)
}

func (s *MemoryStore) reapLocked(currentDay string) {
	for b := range s.buckets {
		if b.day != currentDay {
			delete(s.buckets, b)
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
