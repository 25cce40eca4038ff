package notifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the notification routes.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/unread-count", h.UnreadCount)
	r.Post("/read-all", h.MarkAllRead)
	r.Patch("/{notificationID}/read", h.MarkRead)
	r.Delete("/{notificationID}", h.Delete)
	return r
}
