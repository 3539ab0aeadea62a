package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trustline/internal/company/models"
	id "trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, c *models.Company) error {
	query := `
		INSERT INTO companies (id, owner_user_id, name, verified, review_count, average_rating,
			reputation_score, last_review_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		uuid.UUID(c.OwnerUserID),
		c.Name,
		c.Verified,
		c.ReviewCount,
		c.AverageRating,
		c.ReputationScore,
		c.LastReviewAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	query := `
		SELECT id, owner_user_id, name, verified, review_count, average_rating,
			reputation_score, last_review_at, created_at, updated_at
		FROM companies WHERE id = $1`
	var (
		c          models.Company
		cid, owner uuid.UUID
		lastReview sql.NullTime
	)
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(companyID)).Scan(
		&cid, &owner, &c.Name, &c.Verified, &c.ReviewCount, &c.AverageRating,
		&c.ReputationScore, &lastReview, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	c.ID = id.CompanyID(cid)
	c.OwnerUserID = id.UserID(owner)
	if lastReview.Valid {
		t := lastReview.Time.UTC()
		c.LastReviewAt = &t
	}
	return &c, nil
}

func (s *PostgresStore) UpdateStats(ctx context.Context, companyID id.CompanyID, u models.StatsUpdate, now time.Time) error {
	return s.exec(ctx, `
		UPDATE companies SET review_count = $2, average_rating = $3, reputation_score = $4,
			last_review_at = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(companyID), u.ReviewCount, u.AverageRating, u.ReputationScore, u.LastReviewAt, now)
}

func (s *PostgresStore) SetVerified(ctx context.Context, companyID id.CompanyID, verified bool, now time.Time) error {
	return s.exec(ctx, `UPDATE companies SET verified = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(companyID), verified, now)
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
