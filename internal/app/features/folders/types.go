package folders

import (
	"github.com/dalemusser/eduvault/internal/domain/models"
)

// createRequest is the body of POST /repositories/{repositoryID}/folders.
type createRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Color       string  `json:"color" validate:"omitempty,hexcolor"`
	ParentID    *string `json:"parent_id" validate:"omitempty,objectid"`
}

// updateRequest is the body of PUT /folders/{folderID}.
// Absent fields are left unchanged.
type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
}

// moveRequest is the body of PATCH /folders/{folderID}/move.
// A nil ParentID, or the literal value "root", moves the folder to the
// repository root, so the field cannot carry the objectid tag.
type moveRequest struct {
	ParentID *string `json:"parent_id" validate:"omitempty,min=1,max=64"`
}

// contentsResponse is the body of GET /folders/contents. CurrentFolder is
// nil when listing the repository root.
type contentsResponse struct {
	CurrentFolder *models.Folder  `json:"current_folder,omitempty"`
	Folders       []models.Folder `json:"folders"`
	Files         []models.File   `json:"files"`
}

// pathResponse is the body of GET /folders/{folderID}/path.
type pathResponse struct {
	Path []models.BreadcrumbEntry `json:"path"`
}

// deleteResponse is the body of DELETE /folders/{folderID}.
type deleteResponse struct {
	DeletedFolders int `json:"deleted_folders"`
	DeletedFiles   int `json:"deleted_files"`
}
