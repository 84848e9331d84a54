package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// NotificationRepo implements ports.NotificationRepository with pgx.
type NotificationRepo struct {
	db *DB
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Insert stores n and fills in its id.
func (r *NotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO notifications (action, message, failed, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, n.Action, n.Message, n.Failed, n.CreatedAt).Scan(&n.ID)
}

// ListRecent returns up to limit notifications, newest first.
func (r *NotificationRepo) ListRecent(ctx context.Context, includeDismissed bool, limit int) ([]domain.Notification, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, action, message, failed, dismissed, created_at
		FROM notifications
		WHERE $1 OR NOT dismissed
		ORDER BY id DESC
		LIMIT $2
	`, includeDismissed, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Notification, error) {
		var n domain.Notification
		err := row.Scan(&n.ID, &n.Action, &n.Message, &n.Failed, &n.Dismissed, &n.CreatedAt)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}
	return out, nil
}

// Dismiss marks a notification as dismissed.
func (r *NotificationRepo) Dismiss(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE notifications SET dismissed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("dismiss notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
