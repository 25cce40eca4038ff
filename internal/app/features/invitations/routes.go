package invitations

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the invitation endpoints on the given authenticated router.
func Routes(r chi.Router, h *Handler) {
	r.Post("/repositories/{repositoryID}/invitations", h.Create)
	r.Get("/repositories/{repositoryID}/invitations", h.List)

	r.Route("/invitations", func(ir chi.Router) {
		ir.Post("/accept", h.Accept)
		ir.Delete("/{invitationID}", h.Revoke)
	})
}
