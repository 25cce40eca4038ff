package repositories

import "github.com/dalemusser/eduvault/internal/domain/models"

// createRequest is the body of POST /repositories.
type createRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Privacy     string `json:"privacy" validate:"omitempty,oneof=public private"`
	TypeRepo    string `json:"type_repo" validate:"omitempty,oneof=normal creator"`
}

// updateRequest is the body of PUT /repositories/{repositoryID}.
type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Privacy     *string `json:"privacy" validate:"omitempty,oneof=public private"`
}

// participantRequest is the body of PATCH /repositories/{repositoryID}/participants/{userID}.
type participantRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// listResponse is the body of GET /repositories.
type listResponse struct {
	Repositories []models.Repository `json:"repositories"`
	Total        int64               `json:"total"`
	Page         int64               `json:"page"`
}

// deleteResponse reports what a repository delete removed.
type deleteResponse struct {
	DeletedFolders int64 `json:"deleted_folders"`
	DeletedFiles   int64 `json:"deleted_files"`
}
