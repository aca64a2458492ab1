package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"compliancehub/internal/notification/models"
	"compliancehub/internal/platform/postgres"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

const notificationColumns = `id, type, title, message, entity_id, subject_id, read, created_at`

// PostgresStore persists notifications in the notifications table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	_, err := postgres.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(n.ID), string(n.Type), n.Title, n.Message, uuid.UUID(n.EntityID), n.SubjectID, n.Read, n.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	row := postgres.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, uuid.UUID(notificationID))
	return scanNotification(row)
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Notification, error) {
	var (
		where []string
		args  []any
	)
	if filter.EntityID != nil {
		args = append(args, uuid.UUID(*filter.EntityID))
		where = append(where, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	if filter.UnreadOnly {
		where = append(where, "NOT read")
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id::text ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := postgres.QuerierFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	row := postgres.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1
		RETURNING `+notificationColumns, uuid.UUID(notificationID))
	return scanNotification(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		n                        models.Notification
		rawID, entityID, subject uuid.UUID
		typ                      string
	)
	if err := row.Scan(&rawID, &typ, &n.Title, &n.Message, &entityID, &subject, &n.Read, &n.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	n.ID = id.NotificationID(rawID)
	n.EntityID = id.EntityID(entityID)
	n.SubjectID = subject
	n.Type = models.Type(typ)
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}
