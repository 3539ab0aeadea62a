package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	audit "trustline/pkg/platform/audit"
)

const tableName = "audit_entries"

var columns = []string{
	"id",
	"actor_id",
	"kind",
	"category",
	"outcome",
	"subject",
	"payload",
	"request_id",
	"ip",
	"device",
	"occurred_at",
	"expires_at",
}

// Store persists audit entries in PostgreSQL through a pgx pool. It runs
// outside the domain transactions on purpose: an audit write never joins
// (or rolls back) the business unit of work.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

type entryRow struct {
	ID         uuid.UUID `db:"id"`
	ActorID    string    `db:"actor_id"`
	Kind       string    `db:"kind"`
	Category   string    `db:"category"`
	Outcome    string    `db:"outcome"`
	Subject    string    `db:"subject"`
	Payload    []byte    `db:"payload"`
	RequestID  string    `db:"request_id"`
	IP         string    `db:"ip"`
	Device     string    `db:"device"`
	OccurredAt time.Time `db:"occurred_at"`
	ExpiresAt  time.Time `db:"expires_at"`
}

func (r entryRow) toEntry() (audit.Entry, error) {
	category := audit.Category(r.Category)
	payload, err := audit.DecodePayload(category, r.Payload)
	if err != nil {
		return audit.Entry{}, err
	}
	return audit.Entry{
		ID:        r.ID,
		ActorID:   r.ActorID,
		Kind:      audit.Kind(r.Kind),
		Category:  category,
		Outcome:   audit.Outcome(r.Outcome),
		Subject:   r.Subject,
		Payload:   payload,
		RequestID: r.RequestID,
		IP:        r.IP,
		Device:    r.Device,
		Timestamp: r.OccurredAt,
		ExpiresAt: r.ExpiresAt,
	}, nil
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	payload, err := audit.EncodePayload(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}

	query, args, err := psql().
		Insert(tableName).
		Columns(columns...).
		Values(
			entry.ID,
			entry.ActorID,
			string(entry.Kind),
			string(entry.Category),
			string(entry.Outcome),
			entry.Subject,
			payload,
			entry.RequestID,
			entry.IP,
			entry.Device,
			entry.Timestamp,
			entry.ExpiresAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListByActor(ctx context.Context, actorID string, now time.Time, limit int) ([]audit.Entry, error) {
	return s.list(ctx, sq.Eq{"actor_id": actorID}, now, limit)
}

func (s *Store) ListBySubject(ctx context.Context, subject string, now time.Time, limit int) ([]audit.Entry, error) {
	return s.list(ctx, sq.Eq{"subject": subject}, now, limit)
}

func (s *Store) list(ctx context.Context, filter sq.Eq, now time.Time, limit int) ([]audit.Entry, error) {
	builder := psql().
		Select(columns...).
		From(tableName).
		Where(filter).
		Where(sq.Gt{"expires_at": now}).
		OrderBy("occurred_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	var rows []entryRow
	if err := pgxscan.Select(ctx, s.pool, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) CountByActorSince(ctx context.Context, actorID string, kind audit.Kind, since, now time.Time) (int, error) {
	query, args, err := psql().
		Select("COUNT(*)").
		From(tableName).
		Where(sq.Eq{"actor_id": actorID, "kind": string(kind)}).
		Where(sq.GtOrEq{"occurred_at": since}).
		Where(sq.LtOrEq{"occurred_at": now}).
		Where(sq.Gt{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build audit count: %w", err)
	}

	var count int
	if err := pgxscan.Get(ctx, s.pool, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}

// Purge deletes entries past their retention horizon.
func (s *Store) Purge(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := psql().
		Delete(tableName).
		Where(sq.LtOrEq{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build audit purge: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
