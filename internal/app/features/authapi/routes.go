package authapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the authentication endpoints. These are
// the only API routes that do not require a bearer token.
//
// When mounted at /api/auth:
//   - POST /api/auth/register
//   - POST /api/auth/login
//   - POST /api/auth/password/forgot
//   - POST /api/auth/password/reset
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/password/forgot", h.ForgotPassword)
	r.Post("/password/reset", h.ResetPassword)

	return r
}
