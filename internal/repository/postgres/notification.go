package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

type notificationRow struct {
	ID        string    `db:"id"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	Read      bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

type notificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new NotificationRepository backed by Postgres.
func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO notifications (id, message, type, is_read, created_at) VALUES ($1, $2, $3, $4, $5)",
		n.ID, n.Message, string(n.Type), n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) List(ctx context.Context, unreadOnly bool) ([]entity.Notification, error) {
	query := "SELECT id, message, type, is_read, created_at FROM notifications"
	if unreadOnly {
		query += " WHERE NOT is_read"
	}
	query += " ORDER BY created_at DESC, id"

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	out := make([]entity.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.Notification{
			ID:        row.ID,
			Message:   row.Message,
			Type:      entity.NotificationType(row.Type),
			Read:      row.Read,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrNotificationNotFound, id)
	}
	return nil
}
