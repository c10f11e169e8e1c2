package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/autoserve/internal/auth"
	"github.com/ukydev/autoserve/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates the bearer token and adds the caller's claims to the context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := m.authService.ExtractTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMsg(w, http.StatusUnauthorized, "No token")
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token expired"
			}
			writeMsg(w, http.StatusUnauthorized, msg)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
	})
}

// RequirePermission rejects callers whose role is not granted action
func (m *AuthMiddleware) RequirePermission(action models.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				writeMsg(w, http.StatusUnauthorized, "No token")
				return
			}

			if !models.Allowed(claims.Role, action) {
				log.WithFields(log.Fields{
					"user_id": claims.UserID,
					"role":    claims.Role,
					"action":  action,
				}).Info("Permission denied")
				writeMsg(w, http.StatusForbidden, deniedMessage(action))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func deniedMessage(action models.Action) string {
	switch action {
	case models.ActionDeleteJobCard:
		return "Only managers can delete job cards"
	case models.ActionManageInventory:
		return "Access denied. Admin or Manager only."
	default:
		return "Access denied"
	}
}

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"msg": msg}); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}
