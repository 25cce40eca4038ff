package usersapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the user profile routes.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Directory)
	r.Get("/me", h.Me)
	r.Put("/me", h.UpdateMe)
	r.Post("/me/image", h.UploadImage)
	r.Get("/{userID}", h.Get)
	return r
}
