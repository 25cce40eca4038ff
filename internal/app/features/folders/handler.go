// Package folders provides the folder hierarchy endpoints.
//
// Endpoints (mounted under /api):
//   - POST   /repositories/{repositoryID}/folders - create a folder
//   - GET    /folders/contents                    - list folders and files at a level
//   - GET    /folders/{folderID}/path             - breadcrumb trail
//   - PUT    /folders/{folderID}                  - rename / edit attributes
//   - PATCH  /folders/{folderID}/move             - reparent a folder
//   - DELETE /folders/{folderID}                  - recursive delete
package folders

import (
	"net/http"
	"strings"

	filestore "github.com/dalemusser/eduvault/internal/app/store/file"
	folderstore "github.com/dalemusser/eduvault/internal/app/store/folder"
	repositorystore "github.com/dalemusser/eduvault/internal/app/store/repository"
	"github.com/dalemusser/eduvault/internal/app/system/auth"
	"github.com/dalemusser/eduvault/internal/app/system/authz"
	"github.com/dalemusser/eduvault/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eduvault/internal/app/system/inputval"
	"github.com/dalemusser/eduvault/internal/app/system/jsonutil"
	"github.com/dalemusser/eduvault/internal/app/system/media"
	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles folder hierarchy requests.
type Handler struct {
	folders *folderstore.Store
	files   *filestore.Store
	repos   *repositorystore.Store
	media   *media.Store
	logger  *zap.Logger
}

// NewHandler creates a new folders handler.
func NewHandler(folders *folderstore.Store, files *filestore.Store, repos *repositorystore.Store, mediaStore *media.Store, logger *zap.Logger) *Handler {
	return &Handler{
		folders: folders,
		files:   files,
		repos:   repos,
		media:   mediaStore,
		logger:  logger,
	}
}

// Create handles POST /repositories/{repositoryID}/folders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	repoID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "repositoryID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid repository ID")
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

	repo, err := h.repos.GetByID(r.Context(), repoID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Repository not found")
		return
	}
	if err != nil {
		h.logger.Error("load repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load repository")
		return
	}
	if !authz.CanWrite(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have write access to this repository")
		return
	}

	var parentID *primitive.ObjectID
	if req.ParentID != nil {
		pid, err := primitive.ObjectIDFromHex(*req.ParentID)
		if err != nil {
			jsonutil.BadRequest(w, "Invalid parent folder ID")
			return
		}
		parentID = &pid
	}

	name, ok := h.cleanName(w, req.Name)
	if !ok {
		return
	}

	f, err := h.folders.Create(r.Context(), folderstore.CreateInput{
		Name:         name,
		Description:  htmlsanitize.Strip(req.Description),
		Color:        req.Color,
		RepositoryID: repoID,
		ParentID:     parentID,
		CreatedByID:  actor.ID,
	})
	if err != nil {
		h.writeFolderError(w, err, "create folder")
		return
	}

	h.logger.Debug("folder created",
		zap.String("folder_id", f.ID.Hex()),
		zap.String("repository_id", repoID.Hex()),
		zap.String("path", f.Path))
	jsonutil.Created(w, f)
}

// Contents handles GET /folders/contents?repositoryId=...&folderId=...
// Without folderId it lists the repository root.
func (h *Handler) Contents(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	repoID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("repositoryId"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid or missing repositoryId")
		return
	}

	repo, err := h.repos.GetByID(r.Context(), repoID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Repository not found")
		return
	}
	if err != nil {
		h.logger.Error("load repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load repository")
		return
	}
	if !authz.CanRead(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have access to this repository")
		return
	}

	var folderID *primitive.ObjectID
	var current *models.Folder
	if raw := r.URL.Query().Get("folderId"); raw != "" {
		fid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.BadRequest(w, "Invalid folderId")
			return
		}
		// The folder must exist and belong to the requested repository.
		f, err := h.folders.GetByID(r.Context(), fid)
		if err == mongo.ErrNoDocuments || (err == nil && f.RepositoryID != repoID) {
			jsonutil.NotFound(w, "Folder not found")
			return
		}
		if err != nil {
			h.logger.Error("load folder", zap.Error(err))
			jsonutil.InternalError(w, "Failed to load folder")
			return
		}
		folderID = &fid
		current = f
	}

	subfolders, err := h.folders.ListChildren(r.Context(), repoID, folderID)
	if err != nil {
		h.logger.Error("list folders", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list folders")
		return
	}
	files, err := h.files.ListByFolder(r.Context(), repoID, folderID)
	if err != nil {
		h.logger.Error("list files", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list files")
		return
	}

	// Sensitive files are hidden from non-members browsing a public
	// repository.
	if !authz.IsMember(actor.ID, repo) {
		visible := files[:0]
		for _, fl := range files {
			if !fl.Sensitive {
				visible = append(visible, fl)
			}
		}
		files = visible
	}

	if subfolders == nil {
		subfolders = []models.Folder{}
	}
	if files == nil {
		files = []models.File{}
	}
	jsonutil.OK(w, contentsResponse{CurrentFolder: current, Folders: subfolders, Files: files})
}

// Path handles GET /folders/{folderID}/path. Clients address the
// repository root as the literal folder ID "root"; it has no ancestry,
// so its trail is empty.
func (h *Handler) Path(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "folderID") == "root" {
		if _, ok := auth.CurrentUser(r); !ok {
			jsonutil.Unauthorized(w, "Authentication required")
			return
		}
		jsonutil.OK(w, pathResponse{Path: []models.BreadcrumbEntry{}})
		return
	}

	actor, f, ok := h.loadFolder(w, r)
	if !ok {
		return
	}
	if !h.requireRead(w, r, actor, f) {
		return
	}

	trail, err := h.folders.Breadcrumbs(r.Context(), f.ID)
	if err != nil {
		h.logger.Error("breadcrumbs", zap.Error(err))
		jsonutil.InternalError(w, "Failed to build folder path")
		return
	}
	jsonutil.OK(w, pathResponse{Path: trail})
}

// Update handles PUT /folders/{folderID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, f, ok := h.loadFolder(w, r)
	if !ok {
		return
	}
	if !h.requireWrite(w, r, actor, f) {
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

	input := folderstore.UpdateInput{Color: req.Color}
	if req.Name != nil {
		name, ok := h.cleanName(w, *req.Name)
		if !ok {
			return
		}
		input.Name = &name
	}
	if req.Description != nil {
		desc := htmlsanitize.Strip(*req.Description)
		input.Description = &desc
	}

	updated, err := h.folders.Update(r.Context(), f.ID, input)
	if err != nil {
		h.writeFolderError(w, err, "update folder")
		return
	}
	jsonutil.OK(w, updated)
}

// Move handles PATCH /folders/{folderID}/move.
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	actor, f, ok := h.loadFolder(w, r)
	if !ok {
		return
	}
	if !h.requireWrite(w, r, actor, f) {
		return
	}

	var req moveRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	// "root" is an accepted alias for the repository root, same as
	// omitting the parent entirely.
	var newParentID *primitive.ObjectID
	if req.ParentID != nil && *req.ParentID != "root" {
		pid, err := primitive.ObjectIDFromHex(*req.ParentID)
		if err != nil {
			jsonutil.BadRequest(w, "Invalid parent folder ID")
			return
		}
		newParentID = &pid
	}

	moved, err := h.folders.Move(r.Context(), f.ID, newParentID)
	if err != nil {
		h.writeFolderError(w, err, "move folder")
		return
	}

	h.logger.Debug("folder moved",
		zap.String("folder_id", moved.ID.Hex()),
		zap.String("path", moved.Path))
	jsonutil.OK(w, moved)
}

// Delete handles DELETE /folders/{folderID}. The whole subtree goes:
// descendant folders, their files, and the files' blobs in the media
// store. Repeating the request after a partial failure converges; a
// folder that is already gone yields an empty result, not an error.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	folderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "folderID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid folder ID")
		return
	}

	f, err := h.folders.GetByID(r.Context(), folderID)
	if err == mongo.ErrNoDocuments {
		// Already deleted; report the converged state.
		jsonutil.OK(w, deleteResponse{})
		return
	}
	if err != nil {
		h.logger.Error("load folder", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load folder")
		return
	}
	if !h.requireWrite(w, r, actor, f) {
		return
	}

	// Collect the subtree up front and clear out files before any folder
	// record goes away. If the request dies partway, the folders are
	// still there, so a retry finds the remaining files and sweeps them;
	// deleting folders first would strand file records nothing can reach.
	folderIDs, err := h.folders.SubtreeIDs(r.Context(), folderID)
	if err != nil {
		h.logger.Error("collect folder subtree", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete folder")
		return
	}

	files, err := h.files.ListByFolders(r.Context(), folderIDs)
	if err != nil {
		h.logger.Error("list subtree files", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete folder contents")
		return
	}
	for _, fl := range files {
		if err := h.media.Delete(r.Context(), fl.StoragePath); err != nil {
			// The metadata delete below still proceeds; an orphaned blob
			// is recoverable, a dangling record is confusing.
			h.logger.Warn("delete blob",
				zap.String("file_id", fl.ID.Hex()),
				zap.Error(err))
		}
	}
	deletedFiles, err := h.files.DeleteByFolders(r.Context(), folderIDs)
	if err != nil {
		h.logger.Error("delete subtree files", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete folder contents")
		return
	}

	deletedFolders, err := h.folders.DeleteByIDs(r.Context(), folderIDs)
	if err != nil {
		h.logger.Error("delete folder subtree", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete folder")
		return
	}

	h.logger.Info("folder deleted",
		zap.String("folder_id", folderID.Hex()),
		zap.Int64("folders", deletedFolders),
		zap.Int64("files", deletedFiles))
	jsonutil.OK(w, deleteResponse{
		DeletedFolders: int(deletedFolders),
		DeletedFiles:   int(deletedFiles),
	})
}

/* -------------------------------------------------------------------------- */
/* helpers                                                                     */
/* -------------------------------------------------------------------------- */

// loadFolder resolves the folderID path parameter. On failure it writes
// the response and returns ok=false.
func (h *Handler) loadFolder(w http.ResponseWriter, r *http.Request) (auth.Actor, *models.Folder, bool) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return auth.Actor{}, nil, false
	}

	folderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "folderID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid folder ID")
		return actor, nil, false
	}

	f, err := h.folders.GetByID(r.Context(), folderID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Folder not found")
		return actor, nil, false
	}
	if err != nil {
		h.logger.Error("load folder", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load folder")
		return actor, nil, false
	}
	return actor, f, true
}

func (h *Handler) requireRead(w http.ResponseWriter, r *http.Request, actor auth.Actor, f *models.Folder) bool {
	repo, err := h.repos.GetByID(r.Context(), f.RepositoryID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Repository not found")
		return false
	}
	if err != nil {
		h.logger.Error("load repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load repository")
		return false
	}
	if !authz.CanRead(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have access to this repository")
		return false
	}
	return true
}

func (h *Handler) requireWrite(w http.ResponseWriter, r *http.Request, actor auth.Actor, f *models.Folder) bool {
	repo, err := h.repos.GetByID(r.Context(), f.RepositoryID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Repository not found")
		return false
	}
	if err != nil {
		h.logger.Error("load repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load repository")
		return false
	}
	if !authz.CanWrite(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have write access to this repository")
		return false
	}
	return true
}

// cleanName sanitizes a folder name and rejects what is left when it is
// empty or would corrupt the materialized path. On failure it writes the
// response and returns ok=false.
func (h *Handler) cleanName(w http.ResponseWriter, raw string) (string, bool) {
	name := htmlsanitize.Strip(raw)
	if name == "" {
		jsonutil.BadRequest(w, "Folder name must not be empty")
		return "", false
	}
	if strings.Contains(name, "/") {
		jsonutil.BadRequest(w, "Folder name must not contain '/'")
		return "", false
	}
	return name, true
}

// writeFolderError maps the folder store's sentinel errors onto HTTP
// responses.
func (h *Handler) writeFolderError(w http.ResponseWriter, err error, op string) {
	switch err {
	case folderstore.ErrDuplicateName:
		jsonutil.BadRequest(w, "A folder with this name already exists here")
	case folderstore.ErrNestingLimit:
		jsonutil.BadRequest(w, "Folder nesting limit exceeded")
	case folderstore.ErrSelfMove:
		jsonutil.BadRequest(w, "Cannot move a folder into itself")
	case folderstore.ErrCycleMove:
		jsonutil.BadRequest(w, "Cannot move a folder into its own subtree")
	case folderstore.ErrParentNotFound:
		jsonutil.NotFound(w, "Parent folder not found")
	case folderstore.ErrParentMismatch:
		jsonutil.BadRequest(w, "Parent folder belongs to a different repository")
	case mongo.ErrNoDocuments:
		jsonutil.NotFound(w, "Folder not found")
	default:
		h.logger.Error(op, zap.Error(err))
		jsonutil.InternalError(w, "Folder operation failed")
	}
}
