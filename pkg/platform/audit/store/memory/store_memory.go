package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	audit "trustline/pkg/platform/audit"
)

// InMemoryStore keeps entries in insertion order. Used by tests and by the
// server when no database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// ListByActor returns live entries for actorID, newest first.
func (s *InMemoryStore) ListByActor(_ context.Context, actorID string, now time.Time, limit int) ([]audit.Entry, error) {
	return s.collect(now, limit, func(e audit.Entry) bool { return e.ActorID == actorID }), nil
}

// ListBySubject returns live entries about subject, newest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject string, now time.Time, limit int) ([]audit.Entry, error) {
	return s.collect(now, limit, func(e audit.Entry) bool { return e.Subject == subject }), nil
}

func (s *InMemoryStore) CountByActorSince(_ context.Context, actorID string, kind audit.Kind, since, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if e.ActorID != actorID || e.Kind != kind || e.Expired(now) {
			continue
		}
		if e.Timestamp.Before(since) || e.Timestamp.After(now) {
			continue
		}
		count++
	}
	return count, nil
}

// Purge drops entries whose retention horizon has passed.
func (s *InMemoryStore) Purge(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e audit.Entry) bool { return e.Expired(now) })
	return int64(before - len(s.entries)), nil
}

func (s *InMemoryStore) collect(now time.Time, limit int, match func(audit.Entry) bool) []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if !match(e) || e.Expired(now) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
