// Package authapi provides registration, login, and password reset
// endpoints.
//
// Endpoints (mounted under /api/auth):
//   - POST /register        - create an account, returns a token
//   - POST /login           - exchange credentials for a token
//   - POST /password/forgot - email a reset link (always 200)
//   - POST /password/reset  - set a new password with a reset token
package authapi

import (
	"net/http"
	"time"

	passwordresetstore "github.com/dalemusser/eduvault/internal/app/store/passwordreset"
	userstore "github.com/dalemusser/eduvault/internal/app/store/users"
	"github.com/dalemusser/eduvault/internal/app/system/auth"
	"github.com/dalemusser/eduvault/internal/app/system/authutil"
	"github.com/dalemusser/eduvault/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eduvault/internal/app/system/inputval"
	"github.com/dalemusser/eduvault/internal/app/system/jsonutil"
	"github.com/dalemusser/eduvault/internal/app/system/mailer"
	"github.com/dalemusser/eduvault/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles authentication requests.
type Handler struct {
	users       *userstore.Store
	resets      *passwordresetstore.Store
	tokens      *auth.TokenManager
	mail        *mailer.Mailer
	frontendURL string
	resetTTL    time.Duration
	logger      *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(users *userstore.Store, resets *passwordresetstore.Store, tokens *auth.TokenManager, mail *mailer.Mailer, frontendURL string, resetTTL time.Duration, logger *zap.Logger) *Handler {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &Handler{
		users:       users,
		resets:      resets,
		tokens:      tokens,
		mail:        mail,
		frontendURL: frontendURL,
		resetTTL:    resetTTL,
		logger:      logger,
	}
}

// tokenResponse is returned by register and login.
type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username" validate:"required,min=3,max=30"`
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required"`
		FirstName string `json:"first_name" validate:"max=50"`
		LastName  string `json:"last_name" validate:"max=50"`
		UserType  string `json:"user_type"`
		IsPublic  bool   `json:"is_public"`
	}
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if req.UserType != "" && !models.IsValidUserType(req.UserType) {
		jsonutil.BadRequest(w, "Invalid user type")
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		jsonutil.InternalError(w, "Registration failed")
		return
	}

	u, err := h.users.Create(r.Context(), userstore.CreateInput{
		Username:     htmlsanitize.Strip(req.Username),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    htmlsanitize.Strip(req.FirstName),
		LastName:     htmlsanitize.Strip(req.LastName),
		UserType:     req.UserType,
		IsPublic:     req.IsPublic,
	})
	switch err {
	case nil:
	case userstore.ErrDuplicateEmail:
		jsonutil.Error(w, http.StatusConflict, "This email is already registered")
		return
	case userstore.ErrDuplicateUsername:
		jsonutil.Error(w, http.StatusConflict, "This username is already taken")
		return
	default:
		h.logger.Error("create user", zap.Error(err))
		jsonutil.InternalError(w, "Registration failed")
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err))
		jsonutil.InternalError(w, "Registration failed")
		return
	}

	// Welcome email is best effort; registration already succeeded.
	go h.sendWelcome(u)

	h.logger.Info("user registered",
		zap.String("user_id", u.ID.Hex()),
		zap.String("username", u.Username))
	jsonutil.Created(w, tokenResponse{Token: token, User: u})
}

// Login handles POST /login. The identifier may be a username or an email.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Identifier)
	if err == mongo.ErrNoDocuments {
		u, err = h.users.GetByUsername(r.Context(), req.Identifier)
	}
	if err == mongo.ErrNoDocuments {
		// Same response as a bad password so the endpoint cannot be used
		// to probe which accounts exist.
		jsonutil.Unauthorized(w, "Invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("load user", zap.Error(err))
		jsonutil.InternalError(w, "Login failed")
		return
	}

	if !authutil.CheckPassword(req.Password, u.PasswordHash) {
		jsonutil.Unauthorized(w, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err))
		jsonutil.InternalError(w, "Login failed")
		return
	}

	h.logger.Debug("user logged in", zap.String("user_id", u.ID.Hex()))
	jsonutil.OK(w, tokenResponse{Token: token, User: u})
}

// ForgotPassword handles POST /password/forgot. The response is 200
// whether or not the address is registered.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err == mongo.ErrNoDocuments {
		jsonutil.Message(w, "If the address is registered, a reset email has been sent")
		return
	}
	if err != nil {
		h.logger.Error("load user", zap.Error(err))
		jsonutil.InternalError(w, "Password reset failed")
		return
	}

	pr, err := h.resets.Create(r.Context(), u.ID, h.resetTTL)
	if err != nil {
		h.logger.Error("create password reset", zap.Error(err))
		jsonutil.InternalError(w, "Password reset failed")
		return
	}

	resetURL := h.frontendURL + "/reset-password?token=" + pr.Token
	text, html := mailer.PasswordResetEmail(mailer.PasswordResetEmailData{
		AppName:   h.mail.FromName(),
		UserName:  u.Username,
		ResetURL:  resetURL,
		ExpiryMin: int(h.resetTTL.Minutes()),
	})
	if err := h.mail.Send(r.Context(), mailer.Email{
		To:       u.Email,
		ToName:   u.Username,
		Subject:  "Reset your password",
		TextBody: text,
		HTMLBody: html,
	}); err != nil {
		h.logger.Error("send reset email",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to send reset email")
		return
	}

	jsonutil.Message(w, "If the address is registered, a reset email has been sent")
}

// ResetPassword handles POST /password/reset.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	pr, err := h.resets.Consume(r.Context(), req.Token)
	switch err {
	case nil:
	case mongo.ErrNoDocuments, passwordresetstore.ErrNotUsable:
		jsonutil.BadRequest(w, "Invalid or expired reset token")
		return
	default:
		h.logger.Error("consume reset token", zap.Error(err))
		jsonutil.InternalError(w, "Password reset failed")
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		jsonutil.InternalError(w, "Password reset failed")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), pr.UserID, hash); err != nil {
		h.logger.Error("update password", zap.Error(err))
		jsonutil.InternalError(w, "Password reset failed")
		return
	}

	h.logger.Info("password reset", zap.String("user_id", pr.UserID.Hex()))
	jsonutil.Message(w, "Password updated")
}

func (h *Handler) sendWelcome(u *models.User) {
	ctx, cancel := mailer.SendContext()
	defer cancel()

	text, html := mailer.WelcomeEmail(mailer.WelcomeEmailData{
		AppName:  h.mail.FromName(),
		UserName: u.Username,
		LoginURL: h.frontendURL + "/login",
	})
	if err := h.mail.Send(ctx, mailer.Email{
		To:       u.Email,
		ToName:   u.Username,
		Subject:  "Welcome!",
		TextBody: text,
		HTMLBody: html,
	}); err != nil {
		h.logger.Warn("send welcome email",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
	}
}
