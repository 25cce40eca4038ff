// Package repositories provides the repository CRUD and participant
// management endpoints.
package repositories

import (
	"net/http"
	"strconv"

	applicationstore "github.com/dalemusser/eduvault/internal/app/store/application"
	filestore "github.com/dalemusser/eduvault/internal/app/store/file"
	folderstore "github.com/dalemusser/eduvault/internal/app/store/folder"
	invitationstore "github.com/dalemusser/eduvault/internal/app/store/invitation"
	repositorystore "github.com/dalemusser/eduvault/internal/app/store/repository"
	userstore "github.com/dalemusser/eduvault/internal/app/store/users"
	"github.com/dalemusser/eduvault/internal/app/system/auth"
	"github.com/dalemusser/eduvault/internal/app/system/authz"
	"github.com/dalemusser/eduvault/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eduvault/internal/app/system/inputval"
	"github.com/dalemusser/eduvault/internal/app/system/jsonutil"
	"github.com/dalemusser/eduvault/internal/app/system/media"
	"github.com/dalemusser/eduvault/internal/app/system/normalize"
	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles repository requests.
type Handler struct {
	repos       *repositorystore.Store
	folders     *folderstore.Store
	files       *filestore.Store
	apps        *applicationstore.Store
	invitations *invitationstore.Store
	users       *userstore.Store
	media       *media.Store
	logger      *zap.Logger
}

// NewHandler creates a new repositories handler.
func NewHandler(
	repos *repositorystore.Store,
	folders *folderstore.Store,
	files *filestore.Store,
	apps *applicationstore.Store,
	invitations *invitationstore.Store,
	users *userstore.Store,
	mediaStore *media.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		repos:       repos,
		folders:     folders,
		files:       files,
		apps:        apps,
		invitations: invitations,
		users:       users,
		media:       mediaStore,
		logger:      logger,
	}
}

// Create handles POST /repositories.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	name := htmlsanitize.Strip(req.Name)
	if name == "" {
		jsonutil.BadRequest(w, "Repository name is required")
		return
	}

	repo, err := h.repos.Create(r.Context(), repositorystore.CreateInput{
		Name:        name,
		Description: htmlsanitize.Strip(req.Description),
		Privacy:     req.Privacy,
		TypeRepo:    req.TypeRepo,
		OwnerID:     actor.ID,
	})
	if err != nil {
		h.logger.Error("create repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to create repository")
		return
	}

	if err := h.users.AdjustRepoCount(r.Context(), actor.ID, 1); err != nil {
		h.logger.Warn("adjust repo count", zap.Error(err))
	}
	jsonutil.Created(w, repo)
}

// List handles GET /repositories?q=&page=&limit= (public catalog).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	if limit > 100 {
		limit = 100
	}

	repos, total, err := h.repos.ListPublic(r.Context(), repositorystore.ListOptions{
		Search: normalize.QueryParam(q.Get("q")),
		Limit:  limit,
		Page:   page,
	})
	if err != nil {
		h.logger.Error("list repositories", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list repositories")
		return
	}
	if repos == nil {
		repos = []models.Repository{}
	}
	if page <= 0 {
		page = 1
	}
	jsonutil.OK(w, listResponse{Repositories: repos, Total: total, Page: page})
}

// Mine handles GET /repositories/mine (owned by the caller).
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	repos, err := h.repos.ListByOwner(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("list owned repositories", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list repositories")
		return
	}
	if repos == nil {
		repos = []models.Repository{}
	}
	jsonutil.OK(w, repos)
}

// Joined handles GET /repositories/joined (caller is an active participant).
func (h *Handler) Joined(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	repos, err := h.repos.ListByParticipant(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("list joined repositories", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list repositories")
		return
	}
	if repos == nil {
		repos = []models.Repository{}
	}
	jsonutil.OK(w, repos)
}

// Get handles GET /repositories/{repositoryID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, repo, ok := h.load(w, r)
	if !ok {
		return
	}
	if !authz.CanRead(actor.ID, repo) {
		jsonutil.NotFound(w, "Repository not found")
		return
	}
	jsonutil.OK(w, repo)
}

// Update handles PUT /repositories/{repositoryID}. Admin only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, repo, ok := h.load(w, r)
	if !ok {
		return
	}
	if !authz.CanAdmin(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have permission to modify this repository")
		return
	}

	var req updateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	input := repositorystore.UpdateInput{Privacy: req.Privacy}
	if req.Name != nil {
		name := htmlsanitize.Strip(*req.Name)
		if name == "" {
			jsonutil.BadRequest(w, "Repository name cannot be empty")
			return
		}
		input.Name = &name
	}
	if req.Description != nil {
		desc := htmlsanitize.Strip(*req.Description)
		input.Description = &desc
	}

	if err := h.repos.Update(r.Context(), repo.ID, input); err != nil {
		h.logger.Error("update repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update repository")
		return
	}

	updated, err := h.repos.GetByID(r.Context(), repo.ID)
	if err != nil {
		h.logger.Error("reload repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load repository")
		return
	}
	jsonutil.OK(w, updated)
}

// Delete handles DELETE /repositories/{repositoryID}. Owner only. Removes
// the repository and everything it contains: folders, file records and
// their stored blobs, applications and invitations.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, repo, ok := h.load(w, r)
	if !ok {
		return
	}
	if repo.OwnerID != actor.ID {
		jsonutil.Forbidden(w, "Only the owner can delete a repository")
		return
	}

	ctx := r.Context()

	files, err := h.files.ListByRepository(ctx, repo.ID)
	if err != nil {
		h.logger.Error("list repository files", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete repository")
		return
	}
	for _, f := range files {
		if err := h.media.Delete(ctx, f.StoragePath); err != nil {
			h.logger.Warn("delete file blob",
				zap.String("key", f.StoragePath), zap.Error(err))
		}
	}

	deletedFiles, err := h.files.DeleteByRepository(ctx, repo.ID)
	if err != nil {
		h.logger.Error("delete repository files", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete repository")
		return
	}
	deletedFolders, err := h.folders.DeleteByRepository(ctx, repo.ID)
	if err != nil {
		h.logger.Error("delete repository folders", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete repository")
		return
	}
	if _, err := h.apps.DeleteByRepo(ctx, repo.ID); err != nil {
		h.logger.Warn("delete repository applications", zap.Error(err))
	}
	if _, err := h.invitations.DeleteByRepo(ctx, repo.ID); err != nil {
		h.logger.Warn("delete repository invitations", zap.Error(err))
	}

	if _, err := h.repos.Delete(ctx, repo.ID); err != nil {
		h.logger.Error("delete repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete repository")
		return
	}
	if err := h.users.AdjustRepoCount(ctx, repo.OwnerID, -1); err != nil {
		h.logger.Warn("adjust repo count", zap.Error(err))
	}

	jsonutil.OK(w, deleteResponse{
		DeletedFolders: deletedFolders,
		DeletedFiles:   deletedFiles,
	})
}

// Participants handles GET /repositories/{repositoryID}/participants.
func (h *Handler) Participants(w http.ResponseWriter, r *http.Request) {
	actor, repo, ok := h.load(w, r)
	if !ok {
		return
	}
	if !authz.CanRead(actor.ID, repo) {
		jsonutil.NotFound(w, "Repository not found")
		return
	}
	jsonutil.OK(w, repo.Participants)
}

// SetParticipant handles PATCH /repositories/{repositoryID}/participants/{userID}.
// Admin only. Activates or deactivates a participant.
func (h *Handler) SetParticipant(w http.ResponseWriter, r *http.Request) {
	actor, repo, ok := h.load(w, r)
	if !ok {
		return
	}
	if !authz.CanAdmin(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have permission to manage participants")
		return
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid user ID")
		return
	}
	if userID == repo.OwnerID {
		jsonutil.BadRequest(w, "The owner's membership cannot be changed")
		return
	}

	var req participantRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}
	if req.Status == "" {
		jsonutil.BadRequest(w, "A status is required")
		return
	}

	if err := h.repos.SetParticipantStatus(r.Context(), repo.ID, userID, req.Status); err != nil {
		h.logger.Error("set participant status", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update participant")
		return
	}
	jsonutil.Message(w, "Participant updated")
}

// RemoveParticipant handles DELETE /repositories/{repositoryID}/participants/{userID}.
// Admins may remove anyone but the owner; participants may remove
// themselves to leave the repository.
func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	actor, repo, ok := h.load(w, r)
	if !ok {
		return
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid user ID")
		return
	}
	if userID == repo.OwnerID {
		jsonutil.BadRequest(w, "The owner cannot be removed")
		return
	}
	if userID != actor.ID && !authz.CanAdmin(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have permission to manage participants")
		return
	}

	if err := h.repos.RemoveParticipant(r.Context(), repo.ID, userID); err != nil {
		h.logger.Error("remove participant", zap.Error(err))
		jsonutil.InternalError(w, "Failed to remove participant")
		return
	}
	jsonutil.Message(w, "Participant removed")
}

// load resolves the {repositoryID} URL parameter. On failure it writes
// the error response and returns ok=false.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (auth.Actor, *models.Repository, bool) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return auth.Actor{}, nil, false
	}

	repoID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "repositoryID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid repository ID")
		return actor, nil, false
	}

	repo, err := h.repos.GetByID(r.Context(), repoID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Repository not found")
		return actor, nil, false
	}
	if err != nil {
		h.logger.Error("load repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load repository")
		return actor, nil, false
	}
	return actor, repo, true
}
