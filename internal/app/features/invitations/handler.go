// Package invitations provides the emailed repository invitation
// endpoints: issue, list, revoke, and token redemption.
package invitations

import (
	"net/http"
	"strconv"
	"time"

	invitationstore "github.com/dalemusser/eduvault/internal/app/store/invitation"
	notificationstore "github.com/dalemusser/eduvault/internal/app/store/notification"
	repositorystore "github.com/dalemusser/eduvault/internal/app/store/repository"
	userstore "github.com/dalemusser/eduvault/internal/app/store/users"
	"github.com/dalemusser/eduvault/internal/app/system/auth"
	"github.com/dalemusser/eduvault/internal/app/system/authz"
	"github.com/dalemusser/eduvault/internal/app/system/inputval"
	"github.com/dalemusser/eduvault/internal/app/system/jsonutil"
	"github.com/dalemusser/eduvault/internal/app/system/mailer"
	"github.com/dalemusser/eduvault/internal/app/system/normalize"
	"github.com/dalemusser/eduvault/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles invitation requests.
type Handler struct {
	invitations   *invitationstore.Store
	repos         *repositorystore.Store
	users         *userstore.Store
	notifications *notificationstore.Store
	mail          *mailer.Mailer
	frontendURL   string
	logger        *zap.Logger
}

// NewHandler creates a new invitations handler.
func NewHandler(
	invitations *invitationstore.Store,
	repos *repositorystore.Store,
	users *userstore.Store,
	notifications *notificationstore.Store,
	mail *mailer.Mailer,
	frontendURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		invitations:   invitations,
		repos:         repos,
		users:         users,
		notifications: notifications,
		mail:          mail,
		frontendURL:   frontendURL,
		logger:        logger,
	}
}

// Create handles POST /repositories/{repositoryID}/invitations. Admin only.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, repo, ok := h.loadRepo(w, r)
	if !ok {
		return
	}
	if !authz.CanAdmin(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have permission to invite users")
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

	email := normalize.Email(req.Email)

	// If the address already belongs to a member there is nothing to invite.
	if existing, err := h.users.GetByEmail(r.Context(), email); err == nil {
		if authz.IsMember(existing.ID, repo) {
			jsonutil.BadRequest(w, "This user is already a member of the repository")
			return
		}
	} else if err != mongo.ErrNoDocuments {
		h.logger.Error("look up invitee", zap.Error(err))
		jsonutil.InternalError(w, "Failed to create invitation")
		return
	}

	inv, err := h.invitations.Create(r.Context(), invitationstore.CreateInput{
		RepoID:      repo.ID,
		Email:       email,
		Role:        req.Role,
		InvitedByID: actor.ID,
	})
	if err != nil {
		if err == invitationstore.ErrPendingExists {
			jsonutil.Error(w, http.StatusConflict, "A pending invitation for this email already exists")
			return
		}
		h.logger.Error("create invitation", zap.Error(err))
		jsonutil.InternalError(w, "Failed to create invitation")
		return
	}

	go h.sendInvitationEmail(repo, inv, actor)

	jsonutil.Created(w, inv)
}

// List handles GET /repositories/{repositoryID}/invitations. Admin only.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, repo, ok := h.loadRepo(w, r)
	if !ok {
		return
	}
	if !authz.CanAdmin(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have permission to view invitations")
		return
	}

	invs, err := h.invitations.ListByRepo(r.Context(), repo.ID)
	if err != nil {
		h.logger.Error("list invitations", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list invitations")
		return
	}
	if invs == nil {
		invs = []models.Invitation{}
	}
	jsonutil.OK(w, invs)
}

// Revoke handles DELETE /invitations/{invitationID}. Admin of the
// invitation's repository only.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	invID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "invitationID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid invitation ID")
		return
	}

	inv, err := h.invitations.GetByID(r.Context(), invID)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Invitation not found")
		return
	}
	if err != nil {
		h.logger.Error("load invitation", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load invitation")
		return
	}

	repo, err := h.repos.GetByID(r.Context(), inv.RepoID)
	if err != nil && err != mongo.ErrNoDocuments {
		h.logger.Error("load repository", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load repository")
		return
	}
	if repo != nil && !authz.CanAdmin(actor.ID, repo) {
		jsonutil.Forbidden(w, "You do not have permission to revoke invitations")
		return
	}

	if _, err := h.invitations.Delete(r.Context(), invID); err != nil {
		h.logger.Error("delete invitation", zap.Error(err))
		jsonutil.InternalError(w, "Failed to revoke invitation")
		return
	}
	jsonutil.Message(w, "Invitation revoked")
}

// Accept handles POST /invitations/accept. The token must have been
// mailed to the caller's own address.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	var req acceptRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	inv, err := h.invitations.GetByToken(r.Context(), req.Token)
	if err == mongo.ErrNoDocuments {
		jsonutil.NotFound(w, "Invitation not found")
		return
	}
	if err != nil {
		h.logger.Error("load invitation", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load invitation")
		return
	}

	caller, err := h.users.GetByID(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("load user", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load profile")
		return
	}
	if normalize.Email(caller.Email) != inv.Email {
		jsonutil.Forbidden(w, "This invitation was sent to a different email address")
		return
	}

	accepted, err := h.invitations.Accept(r.Context(), req.Token)
	if err != nil {
		switch err {
		case invitationstore.ErrExpired:
			jsonutil.Error(w, http.StatusGone, "This invitation has expired")
		case invitationstore.ErrNotPending:
			jsonutil.Error(w, http.StatusConflict, "This invitation has already been used")
		default:
			h.logger.Error("accept invitation", zap.Error(err))
			jsonutil.InternalError(w, "Failed to accept invitation")
		}
		return
	}

	if err := h.repos.AddParticipant(r.Context(), accepted.RepoID, actor.ID, accepted.Role); err != nil && err != repositorystore.ErrAlreadyParticipant {
		h.logger.Error("enroll invitee", zap.Error(err))
		jsonutil.InternalError(w, "Failed to join repository")
		return
	}

	if _, err := h.notifications.Create(r.Context(), notificationstore.CreateInput{
		UserID:  accepted.InvitedByID,
		Type:    models.NotifyInvitationAccepted,
		Title:   "Invitation accepted",
		Message: caller.Username + " accepted your invitation",
		RepoID:  &accepted.RepoID,
		ActorID: &actor.ID,
	}); err != nil {
		h.logger.Warn("notify inviter", zap.Error(err))
	}

	jsonutil.OK(w, accepted)
}

// sendInvitationEmail mails the invitation link. Runs after the response
// is written; failures are logged, not surfaced.
func (h *Handler) sendInvitationEmail(repo *models.Repository, inv *models.Invitation, actor auth.Actor) {
	ctx, cancel := mailer.SendContext()
	defer cancel()

	days := int(time.Until(inv.ExpiresAt).Hours() / 24)
	expiresIn := strconv.Itoa(days) + " days"
	if days <= 1 {
		expiresIn = "1 day"
	}

	text, html := mailer.InvitationEmail(mailer.InvitationEmailData{
		AppName:        h.mail.FromName(),
		InviterName:    actor.Username,
		RepositoryName: repo.Name,
		Role:           inv.Role,
		AcceptURL:      h.frontendURL + "/invitations/accept?token=" + inv.Token,
		ExpiresIn:      expiresIn,
	})
	if err := h.mail.Send(ctx, mailer.Email{
		To:       inv.Email,
		Subject:  "You're invited to " + repo.Name,
		TextBody: text,
		HTMLBody: html,
	}); err != nil {
		h.logger.Warn("send invitation email",
			zap.String("email", inv.Email), zap.Error(err))
	}
}

// loadRepo resolves the {repositoryID} URL parameter. On failure it writes
// the error response and returns ok=false.
func (h *Handler) loadRepo(w http.ResponseWriter, r *http.Request) (auth.Actor, *models.Repository, bool) {
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
