package audit

import (
	"context"
	"time"
)

// Store persists entries. Reads never return entries whose ExpiresAt is at
// or before now.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByActor(ctx context.Context, actorID string, now time.Time, limit int) ([]Entry, error)
	ListBySubject(ctx context.Context, subject string, now time.Time, limit int) ([]Entry, error)
	CountByActorSince(ctx context.Context, actorID string, kind Kind, since, now time.Time) (int, error)
	Purge(ctx context.Context, now time.Time) (int64, error)
}

// Sink receives a copy of each persisted entry (stream fan-out).
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}
