package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"compliancehub/internal/entity/models"
	"compliancehub/internal/platform/lockset"
	"compliancehub/internal/platform/postgres"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

const entityColumns = `id, name, cin, gstin, pan, incorporation_date, status, created_at, updated_at`

// PostgresStore persists entities in the entities table.
type PostgresStore struct {
	db     *sql.DB
	budget lockset.Budget
}

func NewPostgres(db *sql.DB, budget lockset.Budget) *PostgresStore {
	return &PostgresStore{db: db, budget: budget}
}

func (s *PostgresStore) Create(ctx context.Context, e *models.Entity) error {
	_, err := postgres.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO entities (`+entityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.UUID(e.ID), e.Name, e.CIN, e.GSTIN, e.PAN, postgres.NullTime(e.IncorporationDate), string(e.Status), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert entity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, entityID id.EntityID) (*models.Entity, error) {
	row := postgres.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = $1`, uuid.UUID(entityID))
	return scanEntity(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Entity, error) {
	rows, err := postgres.QuerierFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+entityColumns+` FROM entities ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []*models.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return out, nil
}

// Execute locks the row with FOR UPDATE NOWAIT, retrying lock contention
// within the budget.
func (s *PostgresStore) Execute(ctx context.Context, entityID id.EntityID, validate func(*models.Entity) error, apply func(*models.Entity)) (*models.Entity, error) {
	var result *models.Entity
	err := s.budget.Retry(ctx, postgres.IsLockNotAvailable, func() error {
		return postgres.WithTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			e, err := scanEntity(tx.QueryRowContext(ctx,
				`SELECT `+entityColumns+` FROM entities WHERE id = $1 FOR UPDATE NOWAIT`, uuid.UUID(entityID)))
			if err != nil {
				return err
			}
			if err := validate(e); err != nil {
				return err
			}
			apply(e)
			if _, err := tx.ExecContext(ctx, `
				UPDATE entities
				SET name = $2, cin = $3, gstin = $4, pan = $5, incorporation_date = $6, status = $7, updated_at = $8
				WHERE id = $1
			`, uuid.UUID(e.ID), e.Name, e.CIN, e.GSTIN, e.PAN, postgres.NullTime(e.IncorporationDate), string(e.Status), e.UpdatedAt); err != nil {
				return fmt.Errorf("update entity: %w", err)
			}
			result = e
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*models.Entity, error) {
	var (
		e      models.Entity
		rawID  uuid.UUID
		status string
		inc    sql.NullTime
	)
	if err := row.Scan(&rawID, &e.Name, &e.CIN, &e.GSTIN, &e.PAN, &inc, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan entity: %w", err)
	}
	e.ID = id.EntityID(rawID)
	e.Status = models.Status(status)
	e.IncorporationDate = postgres.TimePtr(inc)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}
