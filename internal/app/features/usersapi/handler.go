// Package usersapi provides the user profile and directory endpoints.
//
// Endpoints (mounted under /api/users):
//   - GET  /             - public directory, filterable by type
//   - GET  /me           - the authenticated user's own record
//   - PUT  /me           - update own profile
//   - POST /me/image     - upload a profile image
//   - GET  /{userID}     - another user's profile (public only)
package usersapi

import (
	"net/http"
	"strconv"

	userstore "github.com/dalemusser/eduvault/internal/app/store/users"
	"github.com/dalemusser/eduvault/internal/app/system/auth"
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

// maxProfileImageBytes caps profile image uploads.
const maxProfileImageBytes = 5 << 20 // 5 MB

// allowed profile image content types
var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Handler handles user profile requests.
type Handler struct {
	users  *userstore.Store
	media  *media.Store
	logger *zap.Logger
}

// NewHandler creates a new users handler.
func NewHandler(users *userstore.Store, mediaStore *media.Store, logger *zap.Logger) *Handler {
	return &Handler{users: users, media: mediaStore, logger: logger}
}

// directoryResponse is the body of GET /users.
type directoryResponse struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
	Page  int64         `json:"page"`
}

// Directory handles GET /users?type=&q=&page=&limit=.
func (h *Handler) Directory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userType := normalize.QueryParam(q.Get("type"))
	if userType != "" && !models.IsValidUserType(userType) {
		jsonutil.BadRequest(w, "Invalid user type filter")
		return
	}

	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	if limit > 100 {
		limit = 100
	}

	users, total, err := h.users.ListPublic(r.Context(), userstore.DirectoryOptions{
		UserType: userType,
		Search:   normalize.QueryParam(q.Get("q")),
		Limit:    limit,
		Page:     page,
	})
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	if page <= 0 {
		page = 1
	}
	jsonutil.OK(w, directoryResponse{Users: users, Total: total, Page: page})
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	u, err := h.users.GetByID(r.Context(), actor.ID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("load user", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load profile")
		return
	}
	jsonutil.OK(w, u)
}

// UpdateMe handles PUT /users/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	var req struct {
		Username  *string   `json:"username" validate:"omitempty,min=3,max=30"`
		FirstName *string   `json:"first_name" validate:"omitempty,max=50"`
		LastName  *string   `json:"last_name" validate:"omitempty,max=50"`
		Bio       *string   `json:"bio" validate:"omitempty,max=1000"`
		Hobbies   *[]string `json:"hobbies"`
		UserType  *string   `json:"user_type"`
		IsPublic  *bool     `json:"is_public"`
	}
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}
	if req.UserType != nil && !models.IsValidUserType(*req.UserType) {
		jsonutil.BadRequest(w, "Invalid user type")
		return
	}

	input := userstore.UpdateInput{
		UserType: req.UserType,
		IsPublic: req.IsPublic,
	}
	if req.Username != nil {
		name := htmlsanitize.Strip(*req.Username)
		input.Username = &name
	}
	if req.FirstName != nil {
		v := htmlsanitize.Strip(*req.FirstName)
		input.FirstName = &v
	}
	if req.LastName != nil {
		v := htmlsanitize.Strip(*req.LastName)
		input.LastName = &v
	}
	if req.Bio != nil {
		v := htmlsanitize.Strip(*req.Bio)
		input.Bio = &v
	}
	if req.Hobbies != nil {
		v := htmlsanitize.StripAll(*req.Hobbies)
		input.Hobbies = &v
	}

	if err := h.users.Update(r.Context(), actor.ID, input); err != nil {
		if err == userstore.ErrDuplicateUsername {
			jsonutil.Error(w, http.StatusConflict, "This username is already taken")
			return
		}
		h.logger.Error("update user", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update profile")
		return
	}

	u, err := h.users.GetByID(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("reload user", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load profile")
		return
	}
	jsonutil.OK(w, u)
}

// UploadImage handles POST /users/me/image (multipart, field "image").
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProfileImageBytes)
	if err := r.ParseMultipartForm(maxProfileImageBytes); err != nil {
		jsonutil.BadRequest(w, "Image too large or malformed upload")
		return
	}

	src, header, err := r.FormFile("image")
	if err != nil {
		jsonutil.BadRequest(w, `Missing "image" form field`)
		return
	}
	defer src.Close()

	contentType := header.Header.Get("Content-Type")
	if !imageTypes[contentType] {
		jsonutil.BadRequest(w, "Unsupported image type")
		return
	}

	key := media.ObjectKey("profiles/"+actor.ID.Hex(), header.Filename)
	if _, err := h.media.Upload(r.Context(), key, src, header.Size, contentType); err != nil {
		h.logger.Error("upload profile image", zap.Error(err))
		jsonutil.InternalError(w, "Failed to store image")
		return
	}

	url := h.media.PublicURL(key)
	if err := h.users.Update(r.Context(), actor.ID, userstore.UpdateInput{ProfileImage: &url}); err != nil {
		h.logger.Error("save profile image url", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update profile")
		return
	}

	jsonutil.OK(w, map[string]string{"profile_image": url})
}

// Get handles GET /users/{userID}. Private profiles are only visible to
// their owner.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid user ID")
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("load user", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load user")
		return
	}
	if !u.IsPublic && u.ID != actor.ID {
		// Hidden profiles look exactly like missing ones.
		jsonutil.NotFound(w, "User not found")
		return
	}
	jsonutil.OK(w, u)
}
