package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trustline/internal/document/models"
	id "trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/platform/tx"
)

// PostgresStore persists documents in the documents table. Writes join the
// transaction carried in ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const documentColumns = `id, employee_id, document_type, document_number, file_reference, file_name,
	file_size, mime_type, verification_status, auto_verification, verified_at, decided_by,
	decision_notes, is_active, deleted_at, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, doc *models.Document) error {
	auto, err := encodeAutoVerification(doc.AutoVerification)
	if err != nil {
		return err
	}
	ref, name, size, mime := fileColumns(doc.File)
	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = tx.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(doc.ID),
		uuid.UUID(doc.EmployeeID),
		string(doc.DocumentType),
		doc.DocumentNumber,
		ref, name, size, mime,
		string(doc.VerificationStatus),
		auto,
		doc.VerifiedAt,
		decidedBy(doc.DecidedBy),
		doc.DecisionNotes,
		doc.IsActive,
		doc.DeletedAt,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, doc *models.Document) error {
	auto, err := encodeAutoVerification(doc.AutoVerification)
	if err != nil {
		return err
	}
	query := `
		UPDATE documents SET
			verification_status = $2,
			auto_verification = $3,
			verified_at = $4,
			decided_by = $5,
			decision_notes = $6,
			is_active = $7,
			deleted_at = $8,
			updated_at = $9
		WHERE id = $1`
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(doc.ID),
		string(doc.VerificationStatus),
		auto,
		doc.VerifiedAt,
		decidedBy(doc.DecidedBy),
		doc.DecisionNotes,
		doc.IsActive,
		doc.DeletedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(tx.Conn(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(documentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListActiveByEmployee(ctx context.Context, employeeID id.EmployeeID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE employee_id = $1 AND is_active
		ORDER BY created_at DESC`
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, uuid.UUID(employeeID))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountActive(ctx context.Context, employeeID id.EmployeeID) (total, verified int, err error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE verification_status = $2)
		FROM documents
		WHERE employee_id = $1 AND is_active`
	err = tx.Conn(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(employeeID), string(models.StatusVerified)).
		Scan(&total, &verified)
	if err != nil {
		return 0, 0, fmt.Errorf("count documents: %w", err)
	}
	return total, verified, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		docID, employeeID uuid.UUID
		docType, status   string
		fileRef, fileName string
		fileSize          int64
		mimeType          string
		auto              []byte
		verifiedAt        sql.NullTime
		decided           uuid.NullUUID
		deletedAt         sql.NullTime
		doc               models.Document
	)
	err := row.Scan(
		&docID, &employeeID, &docType, &doc.DocumentNumber, &fileRef, &fileName,
		&fileSize, &mimeType, &status, &auto, &verifiedAt, &decided,
		&doc.DecisionNotes, &doc.IsActive, &deletedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.ID = id.DocumentID(docID)
	doc.EmployeeID = id.EmployeeID(employeeID)
	doc.DocumentType = models.DocumentType(docType)
	doc.VerificationStatus = models.VerificationStatus(status)
	if fileRef != "" {
		doc.File = &models.FileRef{Reference: fileRef, Name: fileName, Size: fileSize, MimeType: mimeType}
	}
	if len(auto) > 0 {
		var av models.AutoVerification
		if err := json.Unmarshal(auto, &av); err != nil {
			return nil, fmt.Errorf("decode auto verification: %w", err)
		}
		doc.AutoVerification = &av
	}
	doc.VerifiedAt = nullTime(verifiedAt)
	doc.DeletedAt = nullTime(deletedAt)
	if decided.Valid {
		u := id.UserID(decided.UUID)
		doc.DecidedBy = &u
	}
	return &doc, nil
}

func encodeAutoVerification(av *models.AutoVerification) ([]byte, error) {
	if av == nil {
		return nil, nil
	}
	raw, err := json.Marshal(av)
	if err != nil {
		return nil, fmt.Errorf("encode auto verification: %w", err)
	}
	return raw, nil
}

func fileColumns(f *models.FileRef) (ref, name string, size int64, mime string) {
	if f == nil {
		return "", "", 0, ""
	}
	return f.Reference, f.Name, f.Size, f.MimeType
}

func decidedBy(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
