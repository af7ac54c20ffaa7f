package http

import (
	"net/http"

	"servicehub/internal/application/query"
	"servicehub/internal/domain/repository"
	"servicehub/pkg/errors"
	"servicehub/pkg/middleware"
	"servicehub/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HTTPNotificationController handles a user's in-app notification feed
type HTTPNotificationController struct {
	listHandler   *query.ListNotificationsHandler
	unreadHandler *query.CountUnreadNotificationsHandler
	notifications repository.NotificationRepository
	logger        zerolog.Logger
}

// NewHTTPNotificationController creates a new HTTP notification controller
func NewHTTPNotificationController(
	listHandler *query.ListNotificationsHandler,
	unreadHandler *query.CountUnreadNotificationsHandler,
	notifications repository.NotificationRepository,
	logger zerolog.Logger,
) *HTTPNotificationController {
	return &HTTPNotificationController{
		listHandler:   listHandler,
		unreadHandler: unreadHandler,
		notifications: notifications,
		logger:        logger,
	}
}

// ListNotifications handles GET /api/notifications
func (c *HTTPNotificationController) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	offset, limit := pageParams(r)
	items, err := c.listHandler.Handle(r.Context(), &query.ListNotificationsQuery{
		UserID: userID,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, items)
}

// UnreadCount handles GET /api/notifications/unread-count
func (c *HTTPNotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	count, err := c.unreadHandler.Handle(r.Context(), userID)
	if err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]int64{"unread": count})
}

// MarkRead handles POST /api/notifications/{id}/read. Marking is scoped to
// the caller, another user's notification ID is a no-op.
func (c *HTTPNotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.HandleError(w, r, c.logger, errors.NewUnauthorizedError("authentication required"))
		return
	}

	if err := c.notifications.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		middleware.HandleError(w, r, c.logger, err)
		return
	}

	response.SendSuccess(w, r, map[string]string{"message": "marked as read"})
}
