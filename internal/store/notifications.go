package store

import (
	"context"

	"pharmacy-api/internal/models"

	"github.com/google/uuid"
)

const notificationColumns = `id, user_id, type, title, message, read, created_at`

func (s *Postgres) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return models.Notification{}, mapErr(err)
	}
	return n, nil
}

func (s *Postgres) ListNotifications(ctx context.Context, userID string, f NotificationFilter) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := s.db.SelectContext(ctx, &notifications, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR read = false)
		ORDER BY created_at DESC
		LIMIT $3`, userID, f.UnreadOnly, limitOrDefault(f.Limit))
	return notifications, mapErr(err)
}

func (s *Postgres) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`, userID)
	return n, mapErr(err)
}

func (s *Postgres) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	return requireRows(res)
}

func (s *Postgres) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

func (s *Postgres) DeleteNotification(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	return requireRows(res)
}
