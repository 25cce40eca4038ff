package applications

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the application endpoints on the given authenticated router.
func Routes(r chi.Router, h *Handler) {
	r.Post("/repositories/{repositoryID}/applications", h.Create)
	r.Get("/repositories/{repositoryID}/applications", h.ListByRepo)

	r.Route("/applications", func(ar chi.Router) {
		ar.Get("/mine", h.Mine)
		ar.Post("/{applicationID}/accept", h.Accept)
		ar.Post("/{applicationID}/reject", h.Reject)
	})
}
