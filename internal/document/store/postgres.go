package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"compliancehub/internal/document/models"
	"compliancehub/internal/platform/lockset"
	"compliancehub/internal/platform/postgres"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

const documentColumns = `id, entity_id, compliance_id, file_name, content_type, size_bytes, object_key, status, uploaded_by, uploaded_at, verifier_id, verification_notes, verified_at`

// PostgresStore persists documents and their append-only history.
type PostgresStore struct {
	db     *sql.DB
	budget lockset.Budget
}

func NewPostgres(db *sql.DB, budget lockset.Budget) *PostgresStore {
	return &PostgresStore{db: db, budget: budget}
}

func (s *PostgresStore) Create(ctx context.Context, d *models.Document) error {
	return postgres.WithTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (`+documentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, uuid.UUID(d.ID), uuid.UUID(d.EntityID), nullComplianceID(d.ComplianceID),
			d.File.Name, d.File.ContentType, d.File.Size, d.File.ObjectKey, string(d.Status),
			uuid.UUID(d.UploadedBy), d.UploadedAt, nullUserID(d.VerifierID), d.VerificationNotes,
			postgres.NullTime(d.VerifiedAt))
		if err != nil {
			switch {
			case postgres.IsUniqueViolation(err):
				return sentinel.ErrConflict
			case postgres.IsForeignKeyViolation(err):
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("insert document: %w", err)
		}
		return appendHistory(ctx, tx, d.ID, 0, d.History)
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	q := postgres.QuerierFrom(ctx, s.db)
	d, err := scanDocument(q.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, uuid.UUID(docID)))
	if err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, q, []*models.Document{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Document, error) {
	return s.query(ctx, `SELECT `+documentColumns+` FROM documents WHERE entity_id = $1 ORDER BY uploaded_at, id`, uuid.UUID(entityID))
}

func (s *PostgresStore) ListByCompliance(ctx context.Context, complianceID id.ComplianceID) ([]*models.Document, error) {
	return s.query(ctx, `SELECT `+documentColumns+` FROM documents WHERE compliance_id = $1 ORDER BY uploaded_at, id`, uuid.UUID(complianceID))
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Document, error) {
	return s.query(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at, id`)
}

// Execute locks the document row with FOR UPDATE NOWAIT and inserts only
// the history entries apply appended.
func (s *PostgresStore) Execute(ctx context.Context, docID id.DocumentID, validate func(*models.Document) error, apply func(*models.Document)) (*models.Document, error) {
	var result *models.Document
	err := s.budget.Retry(ctx, postgres.IsLockNotAvailable, func() error {
		return postgres.WithTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			d, err := scanDocument(tx.QueryRowContext(ctx,
				`SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE NOWAIT`, uuid.UUID(docID)))
			if err != nil {
				return err
			}
			if err := s.loadHistory(ctx, tx, []*models.Document{d}); err != nil {
				return err
			}
			if err := validate(d); err != nil {
				return err
			}
			before := len(d.History)
			apply(d)
			if len(d.History) < before {
				return sentinel.ErrInvalidState
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE documents
				SET status = $2, verifier_id = $3, verification_notes = $4, verified_at = $5
				WHERE id = $1
			`, uuid.UUID(d.ID), string(d.Status), nullUserID(d.VerifierID), d.VerificationNotes,
				postgres.NullTime(d.VerifiedAt)); err != nil {
				return fmt.Errorf("update document: %w", err)
			}
			if err := appendHistory(ctx, tx, d.ID, before, d.History[before:]); err != nil {
				return err
			}
			result = d
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	q := postgres.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	var out []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	rows.Close()

	if err := s.loadHistory(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadHistory fills History for a batch of documents in one query.
func (s *PostgresStore) loadHistory(ctx context.Context, q postgres.Querier, docs []*models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[id.DocumentID]*models.Document, len(docs))
	raw := make([]string, 0, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
		raw = append(raw, d.ID.String())
	}
	rows, err := q.QueryContext(ctx, `
		SELECT document_id, action, actor_id, notes, at
		FROM document_history
		WHERE document_id = ANY($1::uuid[])
		ORDER BY document_id, seq
	`, pq.Array(raw))
	if err != nil {
		return fmt.Errorf("query document history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			docID  uuid.UUID
			actor  uuid.UUID
			action string
			entry  models.HistoryEntry
		)
		if err := rows.Scan(&docID, &action, &actor, &entry.Notes, &entry.At); err != nil {
			return fmt.Errorf("scan document history: %w", err)
		}
		entry.Action = models.Action(action)
		entry.ActorID = id.UserID(actor)
		entry.At = entry.At.UTC()
		if d, ok := byID[id.DocumentID(docID)]; ok {
			d.History = append(d.History, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate document history: %w", err)
	}
	return nil
}

func appendHistory(ctx context.Context, tx *sql.Tx, docID id.DocumentID, offset int, entries []models.HistoryEntry) error {
	for i, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO document_history (document_id, seq, action, actor_id, notes, at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.UUID(docID), offset+i, string(e.Action), uuid.UUID(e.ActorID), e.Notes, e.At); err != nil {
			return fmt.Errorf("insert document history: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d          models.Document
		rawID      uuid.UUID
		rawEntity  uuid.UUID
		compliance uuid.NullUUID
		uploadedBy uuid.UUID
		verifier   uuid.NullUUID
		status     string
		verifiedAt sql.NullTime
	)
	if err := row.Scan(&rawID, &rawEntity, &compliance, &d.File.Name, &d.File.ContentType, &d.File.Size,
		&d.File.ObjectKey, &status, &uploadedBy, &d.UploadedAt, &verifier, &d.VerificationNotes, &verifiedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	d.ID = id.DocumentID(rawID)
	d.EntityID = id.EntityID(rawEntity)
	if compliance.Valid {
		c := id.ComplianceID(compliance.UUID)
		d.ComplianceID = &c
	}
	d.Status = models.Status(status)
	d.UploadedBy = id.UserID(uploadedBy)
	d.UploadedAt = d.UploadedAt.UTC()
	if verifier.Valid {
		v := id.UserID(verifier.UUID)
		d.VerifierID = &v
	}
	d.VerifiedAt = postgres.TimePtr(verifiedAt)
	return &d, nil
}

func nullComplianceID(c *id.ComplianceID) uuid.NullUUID {
	if c == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*c), Valid: true}
}

func nullUserID(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}
