package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// AccessCookieName is the cookie carrying the access token.
const AccessCookieName = "accessToken"

type userKey struct{}

// UserFinder loads the authenticated user referenced by a verified token.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// AccessVerifier validates an access token and returns its claims.
type AccessVerifier interface {
	VerifyAccess(tokenString string) (auth.AccessClaims, error)
}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey{}).(models.User)
	return user, ok
}

// RequireAuth verifies the access token from the accessToken cookie or the
// Authorization header, loads the user, and stores it on the request
// context. Requests without a valid token receive 401.
func RequireAuth(verifier AccessVerifier, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString := accessTokenFromRequest(r)
			if tokenString == "" {
				unauthorized(w, "unauthorized request")
				return
			}

			claims, err := verifier.VerifyAccess(tokenString)
			if err != nil {
				logging.FromContext(ctx).Warn("access token rejected", "error", err)
				unauthorized(w, "invalid access token")
				return
			}

			user, err := users.FindByID(ctx, claims.UserID)
			if err != nil {
				logging.FromContext(ctx).Warn("access token user missing", "userId", claims.UserID)
				unauthorized(w, "invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"errors":     []string{},
	})
}
