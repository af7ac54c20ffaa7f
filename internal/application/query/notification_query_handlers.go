package query

import (
	"context"
	"fmt"

	"servicehub/internal/domain/repository"
	"servicehub/pkg/errors"
)

// ListNotificationsQuery lists the caller's notifications, newest first
type ListNotificationsQuery struct {
	UserID string `json:"-"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// ListNotificationsHandler handles list notifications queries
type ListNotificationsHandler struct {
	notifications repository.NotificationRepository
}

// NewListNotificationsHandler creates a new list notifications handler
func NewListNotificationsHandler(notifications repository.NotificationRepository) *ListNotificationsHandler {
	return &ListNotificationsHandler{notifications: notifications}
}

// Handle processes the list notifications query
func (h *ListNotificationsHandler) Handle(ctx context.Context, query *ListNotificationsQuery) ([]*repository.Notification, error) {
	if query == nil || query.UserID == "" {
		return nil, errors.NewValidationError("user_id is required")
	}

	offset, limit := clampPage(query.Offset, query.Limit)

	items, err := h.notifications.GetByUserID(ctx, query.UserID, offset, limit)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to list notifications: %v", err))
	}
	return items, nil
}

// CountUnreadNotificationsHandler returns the caller's unread badge count
type CountUnreadNotificationsHandler struct {
	notifications repository.NotificationRepository
}

// NewCountUnreadNotificationsHandler creates a new count unread notifications handler
func NewCountUnreadNotificationsHandler(notifications repository.NotificationRepository) *CountUnreadNotificationsHandler {
	return &CountUnreadNotificationsHandler{notifications: notifications}
}

// Handle returns the number of unread notifications for a user
func (h *CountUnreadNotificationsHandler) Handle(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errors.NewValidationError("user_id is required")
	}

	count, err := h.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, errors.NewInternalError(fmt.Sprintf("failed to count notifications: %v", err))
	}
	return count, nil
}
