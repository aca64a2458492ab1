package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"compliancehub/internal/ledger/models"
	"compliancehub/internal/platform/lockset"
	"compliancehub/internal/platform/postgres"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

const recordColumns = `id, entity_id, type_id, period, due_date, status, assignee_id, workflow_state, completed_at, created_at, updated_at`

// PostgresStore persists compliance records in compliance_records.
type PostgresStore struct {
	db     *sql.DB
	budget lockset.Budget
}

func NewPostgres(db *sql.DB, budget lockset.Budget) *PostgresStore {
	return &PostgresStore{db: db, budget: budget}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.ComplianceRecord) error {
	_, err := postgres.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO compliance_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uuid.UUID(r.ID), uuid.UUID(r.EntityID), r.TypeID.String(), r.Period, r.DueDate, string(r.Status),
		nullUserID(r.AssigneeID), r.WorkflowState, postgres.NullTime(r.CompletedAt), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err):
			return sentinel.ErrConflict
		case postgres.IsForeignKeyViolation(err):
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert compliance record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.ComplianceID) (*models.ComplianceRecord, error) {
	row := postgres.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM compliance_records WHERE id = $1`, uuid.UUID(recordID))
	return scanRecord(row)
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.ComplianceRecord, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM compliance_records WHERE entity_id = $1`, uuid.UUID(entityID))
}

// ListByEntities loads records for a batch of entities in one round trip.
func (s *PostgresStore) ListByEntities(ctx context.Context, entityIDs []id.EntityID) ([]*models.ComplianceRecord, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	raw := make([]string, len(entityIDs))
	for i, entityID := range entityIDs {
		raw[i] = entityID.String()
	}
	return s.query(ctx,
		`SELECT `+recordColumns+` FROM compliance_records WHERE entity_id = ANY($1::uuid[])`, pq.Array(raw))
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.ComplianceRecord, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM compliance_records`)
}

func (s *PostgresStore) ListOpen(ctx context.Context) ([]*models.ComplianceRecord, error) {
	return s.query(ctx,
		`SELECT `+recordColumns+` FROM compliance_records WHERE status <> $1`, string(models.StatusCompleted))
}

func (s *PostgresStore) CountByType(ctx context.Context, typeID id.ComplianceTypeID) (int, error) {
	var n int
	err := postgres.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM compliance_records WHERE type_id = $1`, typeID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count compliance records by type: %w", err)
	}
	return n, nil
}

// Execute locks the row with FOR UPDATE NOWAIT, retrying lock contention
// within the budget.
func (s *PostgresStore) Execute(ctx context.Context, recordID id.ComplianceID, validate func(*models.ComplianceRecord) error, apply func(*models.ComplianceRecord)) (*models.ComplianceRecord, error) {
	var result *models.ComplianceRecord
	err := s.budget.Retry(ctx, postgres.IsLockNotAvailable, func() error {
		return postgres.WithTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			r, err := scanRecord(tx.QueryRowContext(ctx,
				`SELECT `+recordColumns+` FROM compliance_records WHERE id = $1 FOR UPDATE NOWAIT`, uuid.UUID(recordID)))
			if err != nil {
				return err
			}
			if err := validate(r); err != nil {
				return err
			}
			apply(r)
			if _, err := tx.ExecContext(ctx, `
				UPDATE compliance_records
				SET status = $2, assignee_id = $3, workflow_state = $4, completed_at = $5, updated_at = $6
				WHERE id = $1
			`, uuid.UUID(r.ID), string(r.Status), nullUserID(r.AssigneeID), r.WorkflowState,
				postgres.NullTime(r.CompletedAt), r.UpdatedAt); err != nil {
				return fmt.Errorf("update compliance record: %w", err)
			}
			result = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.ComplianceRecord, error) {
	rows, err := postgres.QuerierFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query compliance records: %w", err)
	}
	defer rows.Close()

	var out []*models.ComplianceRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ComplianceRecord, error) {
	var (
		r         models.ComplianceRecord
		rawID     uuid.UUID
		rawEntity uuid.UUID
		typeID    string
		status    string
		assignee  uuid.NullUUID
		completed sql.NullTime
	)
	if err := row.Scan(&rawID, &rawEntity, &typeID, &r.Period, &r.DueDate, &status, &assignee,
		&r.WorkflowState, &completed, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan compliance record: %w", err)
	}
	r.ID = id.ComplianceID(rawID)
	r.EntityID = id.EntityID(rawEntity)
	r.TypeID = id.ComplianceTypeID(typeID)
	r.Status = models.Status(status)
	if assignee.Valid {
		u := id.UserID(assignee.UUID)
		r.AssigneeID = &u
	}
	r.CompletedAt = postgres.TimePtr(completed)
	r.DueDate = r.DueDate.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

func nullUserID(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}
