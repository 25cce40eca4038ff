// Package applications provides the join-application endpoints for
// creator repositories.
package applications

import (
	"net/http"

	applicationstore "github.com/dalemusser/eduvault/internal/app/store/application"
	notificationstore "github.com/dalemusser/eduvault/internal/app/store/notification"
	repositorystore "github.com/dalemusser/eduvault/internal/app/store/repository"
	"github.com/dalemusser/eduvault/internal/app/system/auth"
	"github.com/dalemusser/eduvault/internal/app/system/authz"
	"github.com/dalemusser/eduvault/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eduvault/internal/app/system/inputval"
	"github.com/dalemusser/eduvault/internal/app/system/jsonutil"
	"github.com/dalemusser/eduvault/internal/app/system/normalize"
	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles application requests.
type Handler struct {
	apps          *applicationstore.Store
	repos         *repositorystore.Store
	notifications *notificationstore.Store
	logger        *zap.Logger
}

// NewHandler creates a new applications handler.
func NewHandler(apps *applicationstore.Store, repos *repositorystore.Store, notifications *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		apps:          apps,
		repos:         repos,
		notifications: notifications,
		logger:        logger,
	}
}

// Create handles POST /repositories/{repositoryID}/applications.
//
// Creator applications stay pending until an admin decides them. Member
// applications are accepted on the spot and enroll the applicant as a
// reader.
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
	if repo.TypeRepo != models.RepoTypeCreator {
		jsonutil.BadRequest(w, "This repository does not accept applications")
		return
	}
	if authz.IsMember(actor.ID, repo) {
		jsonutil.BadRequest(w, "You are already a member of this repository")
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

	app, err := h.apps.Create(r.Context(), applicationstore.CreateInput{
		Kind:              req.Kind,
		RepoID:            repoID,
		ApplicantID:       actor.ID,
		CreatorType:       htmlsanitize.Strip(req.CreatorType),
		Contribution:      htmlsanitize.Strip(req.Contribution),
		Motivation:        htmlsanitize.Strip(req.Motivation),
		AvailabilityHours: req.AvailabilityHours,
		PortfolioURL:      req.PortfolioURL,
		Plan:              htmlsanitize.Strip(req.Plan),
		Amount:            req.Amount,
	})
	if err != nil {
		if err == applicationstore.ErrPendingExists {
			jsonutil.Error(w, http.StatusConflict, "You already have a pending application for this repository")
			return
		}
		h.logger.Error("create application", zap.Error(err))
		jsonutil.InternalError(w, "Failed to create application")
		return
	}

	if req.Kind == models.ApplicationKindMember {
		// Member applications are self-service: decide and enroll now.
		app, err = h.apps.Decide(r.Context(), app.ID, actor.ID, models.ApplicationAccepted)
		if err != nil {
			h.logger.Error("auto-accept member application", zap.Error(err))
			jsonutil.InternalError(w, "Failed to process application")
			return
		}
		if err := h.repos.AddParticipant(r.Context(), repoID, actor.ID, models.ParticipantReader); err != nil && err != repositorystore.ErrAlreadyParticipant {
			h.logger.Error("enroll member", zap.Error(err))
			jsonutil.InternalError(w, "Failed to process application")
			return
		}
		h.notifyOwner(r, repo, app, actor, models.NotifyCreatorMemberJoined,
			"New member",
			actor.Username+" joined "+repo.Name+" as a member")
	} else {
		h.notifyOwner(r, repo, app, actor, models.NotifyCreatorNewApplication,
			"New application",
			actor.Username+" applied to join "+repo.Name)
	}

	jsonutil.Created(w, app)
}

// ListByRepo handles GET /repositories/{repositoryID}/applications?status=.
// Admin only.
func (h *Handler) ListByRepo(w http.ResponseWriter, r *http.Request) {
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
	if !authz.CanAdmin(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have permission to review applications")
		return
	}

	status := normalize.QueryParam(r.URL.Query().Get("status"))
	switch status {
	case "", models.ApplicationPending, models.ApplicationAccepted, models.ApplicationRejected:
	default:
		jsonutil.BadRequest(w, "Invalid status filter")
		return
	}

	apps, err := h.apps.ListByRepo(r.Context(), repoID, status)
	if err != nil {
		h.logger.Error("list applications", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list applications")
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}
	jsonutil.OK(w, apps)
}

// Mine handles GET /applications/mine.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	apps, err := h.apps.ListByApplicant(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("list own applications", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list applications")
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}
	jsonutil.OK(w, apps)
}

// Accept handles POST /applications/{applicationID}/accept.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.ApplicationAccepted)
}

// Reject handles POST /applications/{applicationID}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.ApplicationRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, status string) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	appID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "applicationID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid application ID")
		return
	}

	app, err := h.apps.GetByID(r.Context(), appID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Application not found")
		return
	}
	if err != nil {
		h.logger.Error("load application", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load application")
		return
	}

	repo, err := h.repos.GetByID(r.Context(), app.RepoID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Repository not found")
		return
	}
	if err != nil {
		h.logger.Error("load repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load repository")
		return
	}
	if !authz.CanAdmin(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have permission to review applications")
		return
	}

	decided, err := h.apps.Decide(r.Context(), appID, actor.ID, status)
	if err != nil {
		if err == applicationstore.ErrAlreadyDecided {
			jsonutil.Error(w, http.StatusConflict, "This application has already been decided")
			return
		}
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "Application not found")
			return
		}
		h.logger.Error("decide application", zap.Error(err))
		jsonutil.InternalError(w, "Failed to update application")
		return
	}

	notifType := models.NotifyApplicationRejected
	title := "Application rejected"
	message := "Your application to join " + repo.Name + " was rejected"
	if status == models.ApplicationAccepted {
		role := models.ParticipantReader
		if decided.Kind == models.ApplicationKindCreator {
			role = models.ParticipantCreator
		}
		if err := h.repos.AddParticipant(r.Context(), repo.ID, decided.ApplicantID, role); err != nil && err != repositorystore.ErrAlreadyParticipant {
			h.logger.Error("enroll applicant", zap.Error(err))
			jsonutil.InternalError(w, "Failed to enroll applicant")
			return
		}
		notifType = models.NotifyApplicationAccepted
		title = "Application accepted"
		message = "Your application to join " + repo.Name + " was accepted"
	}

	if _, err := h.notifications.Create(r.Context(), notificationstore.CreateInput{
		UserID:        decided.ApplicantID,
		Type:          notifType,
		Title:         title,
		Message:       message,
		RepoID:        &repo.ID,
		ApplicationID: &decided.ID,
		ActorID:       &actor.ID,
	}); err != nil {
		h.logger.Warn("notify applicant", zap.Error(err))
	}

	jsonutil.OK(w, decided)
}

// notifyOwner drops an in-app notification on the repository owner. Never
// fails the request.
func (h *Handler) notifyOwner(r *http.Request, repo *models.Repository, app *models.Application, actor auth.Actor, notifType, title, message string) {
	if repo.OwnerID == actor.ID {
		return
	}
	if _, err := h.notifications.Create(r.Context(), notificationstore.CreateInput{
		UserID:        repo.OwnerID,
		Type:          notifType,
		Title:         title,
		Message:       message,
		RepoID:        &repo.ID,
		ApplicationID: &app.ID,
		ActorID:       &actor.ID,
	}); err != nil {
		h.logger.Warn("notify repository owner", zap.Error(err))
	}
}
