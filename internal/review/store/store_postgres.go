package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trustline/internal/review/models"
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

const reviewColumns = `id, company_id, employee_id,
	technical_skills, communication, teamwork, problem_solving,
	punctuality, leadership, integrity, work_quality, average_rating,
	designation, department, start_date, end_date, employment_type,
	comment, would_rehire, is_active, deleted_at, edit_history, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, r *models.Review) error {
	history, err := encodeHistory(r.EditHistory)
	if err != nil {
		return err
	}
	rt := r.Ratings
	query := `INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24)`
	_, err = tx.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(r.ID), uuid.UUID(r.CompanyID), uuid.UUID(r.EmployeeID),
		rt.TechnicalSkills, rt.Communication, rt.Teamwork, rt.ProblemSolving,
		rt.Punctuality, rt.Leadership, rt.Integrity, rt.WorkQuality, r.AverageRating,
		r.Employment.Designation, r.Employment.Department, r.Employment.StartDate, r.Employment.EndDate,
		string(r.Employment.EmploymentType),
		r.Comment, r.WouldRehire, r.IsActive, r.DeletedAt, history, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return sentinel.ErrConflict
			case "23503":
				return fmt.Errorf("insert review: %w", sentinel.ErrNotFound)
			}
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns. The edit history is written whole;
// callers only ever append to it.
func (s *PostgresStore) Update(ctx context.Context, r *models.Review) error {
	history, err := encodeHistory(r.EditHistory)
	if err != nil {
		return err
	}
	rt := r.Ratings
	query := `
		UPDATE reviews SET
			technical_skills = $2, communication = $3, teamwork = $4, problem_solving = $5,
			punctuality = $6, leadership = $7, integrity = $8, work_quality = $9,
			average_rating = $10, comment = $11, would_rehire = $12,
			is_active = $13, deleted_at = $14, edit_history = $15, updated_at = $16
		WHERE id = $1`
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		rt.TechnicalSkills, rt.Communication, rt.Teamwork, rt.ProblemSolving,
		rt.Punctuality, rt.Leadership, rt.Integrity, rt.WorkQuality,
		r.AverageRating, r.Comment, r.WouldRehire,
		r.IsActive, r.DeletedAt, history, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reviewID id.ReviewID) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	r, err := scanReview(tx.Conn(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(reviewID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListActiveByEmployee(ctx context.Context, employeeID id.EmployeeID) ([]*models.Review, error) {
	return s.list(ctx, `SELECT `+reviewColumns+` FROM reviews
		WHERE employee_id = $1 AND is_active ORDER BY created_at DESC`, uuid.UUID(employeeID))
}

func (s *PostgresStore) ListActiveByCompany(ctx context.Context, companyID id.CompanyID) ([]*models.Review, error) {
	return s.list(ctx, `SELECT `+reviewColumns+` FROM reviews
		WHERE company_id = $1 AND is_active ORDER BY created_at DESC`, uuid.UUID(companyID))
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*models.Review, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*models.Review, error) {
	var (
		r                             models.Review
		reviewID, companyID, employee uuid.UUID
		employmentType                string
		deletedAt                     sql.NullTime
		history                       []byte
	)
	rt := &r.Ratings
	err := row.Scan(
		&reviewID, &companyID, &employee,
		&rt.TechnicalSkills, &rt.Communication, &rt.Teamwork, &rt.ProblemSolving,
		&rt.Punctuality, &rt.Leadership, &rt.Integrity, &rt.WorkQuality, &r.AverageRating,
		&r.Employment.Designation, &r.Employment.Department, &r.Employment.StartDate, &r.Employment.EndDate,
		&employmentType,
		&r.Comment, &r.WouldRehire, &r.IsActive, &deletedAt, &history, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.ReviewID(reviewID)
	r.CompanyID = id.CompanyID(companyID)
	r.EmployeeID = id.EmployeeID(employee)
	r.Employment.EmploymentType = models.EmploymentType(employmentType)
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		r.DeletedAt = &t
	}
	r.EditHistory = []models.EditEntry{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &r.EditHistory); err != nil {
			return nil, fmt.Errorf("decode edit history: %w", err)
		}
	}
	return &r, nil
}

func encodeHistory(history []models.EditEntry) ([]byte, error) {
	if history == nil {
		history = []models.EditEntry{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("encode edit history: %w", err)
	}
	return raw, nil
}
