// internal/app/system/auth/auth.go

// Package auth provides stateless bearer-token authentication.
//
// Clients obtain a signed JWT from POST /api/auth/login and present it on
// every request as "Authorization: Bearer <token>". The middleware verifies
// the signature and expiry, loads the user ID into the request context, and
// downstream handlers read it back with CurrentUser.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/eduvault/internal/app/system/jsonutil"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Claims are the JWT claims this service issues. The subject is the user's
// ObjectID hex.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	logger *zap.Logger
}

// NewTokenManager creates a TokenManager. The secret must be non-empty;
// a weak secret is the operator's problem, an empty one is ours.
func NewTokenManager(secret string, expiry time.Duration, logger *zap.Logger) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), expiry: expiry, logger: logger}, nil
}

// Issue creates a signed token for the given user.
func (tm *TokenManager) Issue(userID primitive.ObjectID, username string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
		},
		Username: username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// Verify parses and validates a token string, returning its claims.
// Only HMAC signatures are accepted; anything else is rejected to prevent
// algorithm confusion.
func (tm *TokenManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return claims, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request context                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// Actor is the authenticated caller attached to the request context.
type Actor struct {
	ID       primitive.ObjectID
	Username string
}

type contextKey string

const actorKey contextKey = "eduvault.actor"

// CurrentUser returns the authenticated actor from the request context.
func CurrentUser(r *http.Request) (Actor, bool) {
	a, ok := r.Context().Value(actorKey).(Actor)
	return a, ok
}

func withActor(r *http.Request, a Actor) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), actorKey, a))
}

// WithTestUser injects an actor into the request context for handler tests,
// bypassing token verification.
func WithTestUser(r *http.Request, a Actor) *http.Request {
	return withActor(r, a)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireUser returns middleware that rejects requests without a valid
// bearer token and attaches the actor to the context otherwise.
func (tm *TokenManager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeAuthError(w, "Missing Authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeAuthError(w, "Invalid Authorization format (expected: Bearer <token>)")
			return
		}

		claims, err := tm.Verify(parts[1])
		if err != nil {
			tm.logger.Debug("token rejected",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			writeAuthError(w, "Invalid or expired token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			// Should not happen for tokens we issued; fail closed.
			tm.logger.Warn("token subject is not an ObjectID",
				zap.String("subject", claims.Subject))
			writeAuthError(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, withActor(r, Actor{ID: userID, Username: claims.Username}))
	})
}

func writeAuthError(w http.ResponseWriter, msg string) {
	jsonutil.Unauthorized(w, msg)
}
