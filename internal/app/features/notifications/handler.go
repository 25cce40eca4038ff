// Package notifications provides the in-app notification endpoints.
package notifications

import (
	"net/http"
	"strconv"

	notificationstore "github.com/dalemusser/eduvault/internal/app/store/notification"
	"github.com/dalemusser/eduvault/internal/app/system/auth"
	"github.com/dalemusser/eduvault/internal/app/system/jsonutil"
	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler handles notification requests.
type Handler struct {
	notifications *notificationstore.Store
	logger        *zap.Logger
}

// NewHandler creates a new notifications handler.
func NewHandler(notifications *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{notifications: notifications, logger: logger}
}

// List handles GET /notifications?unread=true&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	items, err := h.notifications.ListByUser(r.Context(), actor.ID, unreadOnly, limit)
	if err != nil {
		h.logger.Error("list notifications", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list notifications")
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	jsonutil.OK(w, items)
}

// UnreadCount handles GET /notifications/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	count, err := h.notifications.CountUnread(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("count unread notifications", zap.Error(err))
		jsonutil.InternalError(w, "Failed to count notifications")
		return
	}
	jsonutil.OK(w, map[string]int64{"unread": count})
}

// MarkRead handles PATCH /notifications/{notificationID}/read. Only the
// recipient can mark their own notifications.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "notificationID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid notification ID")
		return
	}

	matched, err := h.notifications.MarkRead(r.Context(), id, actor.ID)
	if err != nil {
		h.logger.Error("mark notification read", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update notification")
		return
	}
	if matched == 0 {
		jsonutil.NotFound(w, "Notification not found")
		return
	}
	jsonutil.Message(w, "Notification marked as read")
}

// MarkAllRead handles POST /notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("mark all notifications read", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update notifications")
		return
	}
	jsonutil.OK(w, map[string]int64{"updated": updated})
}

// Delete handles DELETE /notifications/{notificationID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "notificationID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid notification ID")
		return
	}

	deleted, err := h.notifications.Delete(r.Context(), id, actor.ID)
	if err != nil {
		h.logger.Error("delete notification", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete notification")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "Notification not found")
		return
	}
	jsonutil.Message(w, "Notification deleted")
}
