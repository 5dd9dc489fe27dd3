package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"connect-service/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository manages the per-member notification feed.
type NotificationRepository interface {
	Create(ctx context.Context, recipientID int, kind models.NotificationType, title string, message string, data json.RawMessage) (models.Notification, error)
	List(ctx context.Context, memberID int, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID int, memberID int) error
	MarkAllRead(ctx context.Context, memberID int) (int, error)
	CountUnread(ctx context.Context, memberID int) (int, error)
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts an unread notification for the recipient.
func (r *NotificationRepo) Create(ctx context.Context, recipientID int, kind models.NotificationType, title string, message string, data json.RawMessage) (models.Notification, error) {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	var n models.Notification
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notifications (recipient_id, type, title, message, data)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, recipient_id, type, title, message, data, is_read, created_at`,
		recipientID, kind, title, message, []byte(data)).
		Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, (*[]byte)(&n.Data), &n.IsRead, &n.CreatedAt)
	return n, err
}

// List returns the member's notifications, newest first, bounded by limit.
func (r *NotificationRepo) List(ctx context.Context, memberID int, limit int) ([]models.Notification, error) {
	var ns []models.Notification
	err := r.db.SelectContext(ctx, &ns, `SELECT id, recipient_id, type, title, message, data, is_read, created_at
        FROM notifications WHERE recipient_id=$1 ORDER BY created_at DESC LIMIT $2`, memberID, limit)
	return ns, err
}

// MarkRead sets is_read for one notification owned by the member. Marking an
// already-read notification is a no-op success: the row still matches, so the
// operation is idempotent. Zero rows means the id does not exist or belongs to
// someone else.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID int, memberID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id=$1 AND recipient_id=$2`, notificationID, memberID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every notification unread at call time. Read committed
// only; rows created after the statement starts are untouched.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, memberID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE recipient_id=$1 AND is_read = FALSE`, memberID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

// CountUnread counts the member's unread notifications.
func (r *NotificationRepo) CountUnread(ctx context.Context, memberID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND is_read = FALSE`, memberID)
	return count, err
}
