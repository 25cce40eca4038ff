package folders

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the folder endpoints on the given authenticated router.
//
//	POST   /repositories/{repositoryID}/folders
//	GET    /folders/contents
//	GET    /folders/{folderID}/path
//	PUT    /folders/{folderID}
//	PATCH  /folders/{folderID}/move
//	DELETE /folders/{folderID}
func Routes(r chi.Router, h *Handler) {
	r.Post("/repositories/{repositoryID}/folders", h.Create)

	r.Route("/folders", func(fr chi.Router) {
		fr.Get("/contents", h.Contents)
		fr.Get("/{folderID}/path", h.Path)
		fr.Put("/{folderID}", h.Update)
		fr.Patch("/{folderID}/move", h.Move)
		fr.Delete("/{folderID}", h.Delete)
	})
}
