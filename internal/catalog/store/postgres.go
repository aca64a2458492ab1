package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"compliancehub/internal/catalog/models"
	"compliancehub/internal/platform/postgres"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

const typeColumns = `id, name, form_code, category, periodicity, description, version, created_at, updated_at`

// PostgresStore persists the catalog in compliance_types.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, typeID id.ComplianceTypeID) (*models.ComplianceType, error) {
	return scanType(postgres.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+typeColumns+` FROM compliance_types WHERE id = $1`, typeID.String()))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.ComplianceType, error) {
	rows, err := postgres.QuerierFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+typeColumns+` FROM compliance_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list compliance types: %w", err)
	}
	defer rows.Close()

	var out []*models.ComplianceType
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance types: %w", err)
	}
	return out, nil
}

// Define takes a transaction-scoped advisory lock on the type ID so the
// existence check and the write are atomic, including for new IDs.
func (s *PostgresStore) Define(ctx context.Context, typeID id.ComplianceTypeID, build func(existing *models.ComplianceType) (*models.ComplianceType, error)) (*models.ComplianceType, error) {
	var result *models.ComplianceType
	err := postgres.WithTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "catalog:"+typeID.String()); err != nil {
			return fmt.Errorf("lock compliance type: %w", err)
		}
		existing, err := scanType(tx.QueryRowContext(ctx,
			`SELECT `+typeColumns+` FROM compliance_types WHERE id = $1`, typeID.String()))
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		next, err := build(existing)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO compliance_types (`+typeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				form_code = EXCLUDED.form_code,
				category = EXCLUDED.category,
				periodicity = EXCLUDED.periodicity,
				description = EXCLUDED.description,
				version = EXCLUDED.version,
				updated_at = EXCLUDED.updated_at
		`, next.ID.String(), next.Name, next.FormCode, next.Category, string(next.Periodicity),
			next.Description, next.Version, next.CreatedAt, next.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert compliance type: %w", err)
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanType(row rowScanner) (*models.ComplianceType, error) {
	var (
		t           models.ComplianceType
		rawID       string
		periodicity string
	)
	err := row.Scan(&rawID, &t.Name, &t.FormCode, &t.Category, &periodicity, &t.Description, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan compliance type: %w", err)
	}
	t.ID = id.ComplianceTypeID(rawID)
	t.Periodicity = models.Periodicity(periodicity)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
