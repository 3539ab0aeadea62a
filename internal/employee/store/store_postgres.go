package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trustline/internal/employee/models"
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

const employeeColumns = `id, user_id, full_name, email, headline, skills, overall_score, total_reviews,
	verification_percentage, verified, profile_visible, consent_given, consent_given_at,
	created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, e *models.Employee) error {
	query := `INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	skills := e.Skills
	if skills == nil {
		skills = []string{}
	}
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(e.ID),
		uuid.UUID(e.UserID),
		e.FullName,
		e.Email,
		e.Headline,
		pq.Array(skills),
		e.OverallScore,
		e.TotalReviews,
		e.VerificationPercentage,
		e.Verified,
		e.ProfileVisible,
		e.ConsentGiven,
		e.ConsentGivenAt,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, employeeID id.EmployeeID) (*models.Employee, error) {
	return s.findOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, uuid.UUID(employeeID))
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID id.UserID) (*models.Employee, error) {
	return s.findOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE user_id = $1`, uuid.UUID(userID))
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Employee, error) {
	e, err := scanEmployee(tx.Conn(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Search(ctx context.Context, q models.SearchQuery) ([]*models.Employee, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(q.Term))) + "%"
	exposable := ""
	if q.ExposableOnly {
		exposable = `profile_visible AND consent_given AND `
	}
	query := `SELECT ` + employeeColumns + ` FROM employees
		WHERE ` + exposable + `(LOWER(full_name) LIKE $1
			OR LOWER(headline) LIKE $1
			OR EXISTS (SELECT 1 FROM unnest(skills) AS skill WHERE LOWER(skill) LIKE $1))
		ORDER BY overall_score DESC, full_name ASC
		LIMIT $2`
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search employees: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search employees: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateScore(ctx context.Context, employeeID id.EmployeeID, u models.ScoreUpdate, now time.Time) error {
	return s.exec(ctx, `UPDATE employees SET overall_score = $2, total_reviews = $3, updated_at = $4 WHERE id = $1`,
		uuid.UUID(employeeID), u.OverallScore, u.TotalReviews, now)
}

func (s *PostgresStore) UpdateVerification(ctx context.Context, employeeID id.EmployeeID, u models.VerificationUpdate, now time.Time) error {
	return s.exec(ctx, `UPDATE employees SET verification_percentage = $2, verified = $3, updated_at = $4 WHERE id = $1`,
		uuid.UUID(employeeID), u.Percentage, u.Verified, now)
}

func (s *PostgresStore) UpdateConsent(ctx context.Context, employeeID id.EmployeeID, u models.ConsentUpdate, now time.Time) error {
	return s.exec(ctx, `UPDATE employees SET consent_given = $2, consent_given_at = $3, profile_visible = $4, updated_at = $5 WHERE id = $1`,
		uuid.UUID(employeeID), u.ConsentGiven, u.ConsentGivenAt, u.ProfileVisible, now)
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*models.Employee, error) {
	var (
		e                  models.Employee
		employeeID, userID uuid.UUID
		skills             pq.StringArray
		consentAt          sql.NullTime
	)
	err := row.Scan(
		&employeeID, &userID, &e.FullName, &e.Email, &e.Headline, &skills,
		&e.OverallScore, &e.TotalReviews, &e.VerificationPercentage, &e.Verified,
		&e.ProfileVisible, &e.ConsentGiven, &consentAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ID = id.EmployeeID(employeeID)
	e.UserID = id.UserID(userID)
	e.Skills = []string(skills)
	if consentAt.Valid {
		t := consentAt.Time.UTC()
		e.ConsentGivenAt = &t
	}
	return &e, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
