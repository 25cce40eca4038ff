// Package files provides the file upload, metadata, and download endpoints.
//
// Endpoints (mounted under /api):
//   - POST   /repositories/{repositoryID}/files - multipart upload
//   - GET    /files/{fileID}                    - metadata
//   - GET    /files/{fileID}/download           - short-lived download URL
//   - PUT    /files/{fileID}                    - edit metadata
//   - DELETE /files/{fileID}                    - remove record and blob
package files

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

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

// maxUploadBytes caps a single file upload.
const maxUploadBytes = 50 << 20 // 50 MB

// downloadExpiry is how long a presigned download link stays valid.
const downloadExpiry = 15 * time.Minute

// Handler handles file requests.
type Handler struct {
	files   *filestore.Store
	folders *folderstore.Store
	repos   *repositorystore.Store
	media   *media.Store
	logger  *zap.Logger
}

// NewHandler creates a new files handler.
func NewHandler(files *filestore.Store, folders *folderstore.Store, repos *repositorystore.Store, mediaStore *media.Store, logger *zap.Logger) *Handler {
	return &Handler{
		files:   files,
		folders: folders,
		repos:   repos,
		media:   mediaStore,
		logger:  logger,
	}
}

// Upload handles POST /repositories/{repositoryID}/files. The request is
// multipart form data with the blob in the "file" field; the remaining
// metadata fields are optional form values.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonutil.BadRequest(w, "Upload too large or malformed")
		return
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.BadRequest(w, `Missing "file" form field`)
		return
	}
	defer src.Close()

	var folderID *primitive.ObjectID
	if raw := r.FormValue("folder_id"); raw != "" {
		fid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.BadRequest(w, "Invalid folder_id")
			return
		}
		folder, err := h.folders.GetByID(r.Context(), fid)
		if err == mongo.ErrNoDocuments || (err == nil && folder.RepositoryID != repoID) {
			jsonutil.NotFound(w, "Folder not found")
			return
		}
		if err != nil {
			h.logger.Error("load folder", zap.Error(err))
			jsonutil.InternalError(w, "Failed to load folder")
			return
		}
		folderID = &fid
	}

	importance := 0
	if raw := r.FormValue("importance"); raw != "" {
		importance, err = strconv.Atoi(raw)
		if err != nil || importance < 0 || importance > 3 {
			jsonutil.BadRequest(w, "importance must be between 0 and 3")
			return
		}
	}
	sensitive := r.FormValue("sensitive") == "true"

	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			// Fall back to a comma separated list.
			for _, t := range strings.Split(raw, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
		}
		tags = htmlsanitize.StripAll(tags)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := media.ObjectKey("repositories/"+repoID.Hex(), header.Filename)
	sum := sha256.New()
	if _, err := h.media.Upload(r.Context(), key, io.TeeReader(src, sum), header.Size, contentType); err != nil {
		h.logger.Error("upload file blob", zap.Error(err))
		jsonutil.InternalError(w, "Failed to store file")
		return
	}

	f, err := h.files.Create(r.Context(), filestore.CreateInput{
		Filename:     key,
		OriginalName: header.Filename,
		ContentType:  contentType,
		Size:         header.Size,
		Title:        htmlsanitize.Strip(r.FormValue("title")),
		Description:  htmlsanitize.Strip(r.FormValue("description")),
		Tags:         tags,
		Importance:   importance,
		Sensitive:    sensitive,
		RepositoryID: repoID,
		FolderID:     folderID,
		UploadedByID: actor.ID,
		StoragePath:  key,
		Checksum:     hex.EncodeToString(sum.Sum(nil)),
	})
	if err != nil {
		// The blob is already stored; drop it so a failed insert does not
		// leave an orphan behind.
		if derr := h.media.Delete(r.Context(), key); derr != nil {
			h.logger.Warn("delete orphaned blob", zap.String("key", key), zap.Error(derr))
		}
		h.logger.Error("create file record", zap.Error(err))
		jsonutil.InternalError(w, "Failed to record file")
		return
	}

	h.logger.Debug("file uploaded",
		zap.String("file_id", f.ID.Hex()),
		zap.String("repository_id", repoID.Hex()),
		zap.Int64("size", f.Size))
	jsonutil.Created(w, f)
}

// Get handles GET /files/{fileID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, f, repo, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.canSee(actor, f, repo) {
		jsonutil.NotFound(w, "File not found")
		return
	}
	jsonutil.OK(w, f)
}

// Download handles GET /files/{fileID}/download. It returns a short-lived
// presigned URL rather than streaming the blob through the API.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	actor, f, repo, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.canSee(actor, f, repo) {
		jsonutil.NotFound(w, "File not found")
		return
	}

	url, err := h.media.PresignedGetURL(r.Context(), f.StoragePath, f.OriginalName, downloadExpiry)
	if err != nil {
		h.logger.Error("presign download", zap.Error(err))
		jsonutil.InternalError(w, "Failed to prepare download")
		return
	}
	jsonutil.OK(w, downloadResponse{
		URL:       url,
		ExpiresIn: int(downloadExpiry.Seconds()),
	})
}

// Update handles PUT /files/{fileID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, f, repo, ok := h.load(w, r)
	if !ok {
		return
	}
	if !authz.CanWrite(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have write access to this repository")
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

	input := filestore.UpdateInput{
		Importance: req.Importance,
		Sensitive:  req.Sensitive,
	}
	if req.Title != nil {
		title := htmlsanitize.Strip(*req.Title)
		if title == "" {
			jsonutil.BadRequest(w, "Title cannot be empty")
			return
		}
		input.Title = &title
	}
	if req.Description != nil {
		desc := htmlsanitize.Strip(*req.Description)
		input.Description = &desc
	}
	if req.Tags != nil {
		tags := htmlsanitize.StripAll(*req.Tags)
		input.Tags = &tags
	}

	if err := h.files.Update(r.Context(), f.ID, input); err != nil {
		h.logger.Error("update file", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update file")
		return
	}

	updated, err := h.files.GetByID(r.Context(), f.ID)
	if err != nil {
		h.logger.Error("reload file", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load file")
		return
	}
	jsonutil.OK(w, updated)
}

// Delete handles DELETE /files/{fileID}. Removes the record and its blob.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, f, repo, ok := h.load(w, r)
	if !ok {
		return
	}
	if !authz.CanWrite(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have write access to this repository")
		return
	}

	if err := h.media.Delete(r.Context(), f.StoragePath); err != nil {
		h.logger.Warn("delete file blob",
			zap.String("key", f.StoragePath), zap.Error(err))
	}
	if _, err := h.files.Delete(r.Context(), f.ID); err != nil {
		h.logger.Error("delete file", zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete file")
		return
	}
	jsonutil.Message(w, "File deleted")
}

// canSee applies the read rules for a single file: repository read access,
// and membership when the file is marked sensitive.
func (h *Handler) canSee(actor auth.Actor, f *models.File, repo *models.Repository) bool {
	if !authz.CanRead(actor.ID, repo) {
		return false
	}
	if f.Sensitive && !authz.IsMember(actor.ID, repo) {
		return false
	}
	return true
}

// load resolves the {fileID} URL parameter together with its repository.
// On failure it writes the error response and returns ok=false.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (auth.Actor, *models.File, *models.Repository, bool) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return auth.Actor{}, nil, nil, false
	}

	fileID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid file ID")
		return actor, nil, nil, false
	}

	f, err := h.files.GetByID(r.Context(), fileID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "File not found")
		return actor, nil, nil, false
	}
	if err != nil {
		h.logger.Error("load file", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load file")
		return actor, nil, nil, false
	}

	repo, err := h.repos.GetByID(r.Context(), f.RepositoryID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "File not found")
		return actor, nil, nil, false
	}
	if err != nil {
		h.logger.Error("load repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load repository")
		return actor, nil, nil, false
	}
	return actor, f, repo, true
}
