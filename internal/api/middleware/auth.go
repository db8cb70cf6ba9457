package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

// AuthenticatedUserContextKey is the request-context key under which the
// authenticated user is stored.
const AuthenticatedUserContextKey contextKey = "authenticated_user"

// AuthenticatedUser is the identity extracted from a verified bearer token.
// Token issuance (magic link, email OTP) belongs to the hosted auth provider;
// this service only verifies the resulting JWT.
type AuthenticatedUser struct {
	ID    uuid.UUID
	Email string
}

// UserFromContext returns the authenticated user set by Auth, if any.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	user, ok := ctx.Value(AuthenticatedUserContextKey).(AuthenticatedUser)
	return user, ok
}

// Auth verifies the Authorization bearer token with the shared HS256 secret
// and injects the user identity into the request context. Requests without a
// valid token get a 401.
func Auth(jwtSecret string, logger *slog.Logger) func(http.Handler) http.Handler {
	authLogger := logger.With("middleware", "auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				authLogger.WarnContext(ctx, "Rejected invalid bearer token", "error", err)
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
			subject, err := claims.GetSubject()
			if err != nil || subject == "" {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
			userID, err := uuid.Parse(subject)
			if err != nil {
				authLogger.WarnContext(ctx, "Bearer token subject is not a user id", "subject", subject)
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}

			user := AuthenticatedUser{ID: userID}
			if email, ok := claims["email"].(string); ok {
				user.Email = email
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, AuthenticatedUserContextKey, user)))
		})
	}
}
