package repositories

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the repository endpoints on the given authenticated
// router. Patterns are registered directly (rather than via a mounted
// subrouter) so other features can add routes under
// /repositories/{repositoryID} on the same router.
func Routes(r chi.Router, h *Handler) {
	r.Post("/repositories", h.Create)
	r.Get("/repositories", h.List)
	r.Get("/repositories/mine", h.Mine)
	r.Get("/repositories/joined", h.Joined)

	r.Get("/repositories/{repositoryID}", h.Get)
	r.Put("/repositories/{repositoryID}", h.Update)
	r.Delete("/repositories/{repositoryID}", h.Delete)

	r.Get("/repositories/{repositoryID}/participants", h.Participants)
	r.Patch("/repositories/{repositoryID}/participants/{userID}", h.SetParticipant)
	r.Delete("/repositories/{repositoryID}/participants/{userID}", h.RemoveParticipant)
}
