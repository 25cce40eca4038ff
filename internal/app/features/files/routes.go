package files

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the file endpoints on the given authenticated router.
func Routes(r chi.Router, h *Handler) {
	r.Post("/repositories/{repositoryID}/files", h.Upload)

	r.Route("/files", func(fr chi.Router) {
		fr.Get("/{fileID}", h.Get)
		fr.Get("/{fileID}/download", h.Download)
		fr.Put("/{fileID}", h.Update)
		fr.Delete("/{fileID}", h.Delete)
	})
}
