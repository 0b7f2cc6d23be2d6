package services

import (
	"context"
	"log/slog"

	"pharmacy-api/internal/models"
	"pharmacy-api/internal/store"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// notify stores a notification for userID and pushes it to live
// connections. It never fails the calling operation.
func (s *Service) notify(ctx context.Context, userID string, typ models.NotificationType, title, message string) {
	n, err := s.store.CreateNotification(ctx, models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	})
	if err != nil {
		slog.Error("Failed to create notification", "user_id", userID, "type", typ, "error", err)
		return
	}
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

func (s *Service) ListNotifications(ctx context.Context, caller models.Profile, unreadOnly bool, limit int) ([]models.Notification, error) {
	switch {
	case limit < 0:
		return nil, invalid("limit must be positive")
	case limit == 0:
		limit = defaultNotificationLimit
	case limit > maxNotificationLimit:
		limit = maxNotificationLimit
	}
	out, err := s.store.ListNotifications(ctx, caller.ID, store.NotificationFilter{UnreadOnly: unreadOnly, Limit: limit})
	return out, storeErr(err, "notifications")
}

func (s *Service) UnreadCount(ctx context.Context, caller models.Profile) (int, error) {
	n, err := s.store.CountUnread(ctx, caller.ID)
	return n, storeErr(err, "notifications")
}

func (s *Service) MarkNotificationRead(ctx context.Context, caller models.Profile, id string) error {
	return storeErr(s.store.MarkNotificationRead(ctx, caller.ID, id), "notification")
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, caller models.Profile) (int64, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, caller.ID)
	return n, storeErr(err, "notifications")
}

func (s *Service) DeleteNotification(ctx context.Context, caller models.Profile, id string) error {
	return storeErr(s.store.DeleteNotification(ctx, caller.ID, id), "notification")
}
