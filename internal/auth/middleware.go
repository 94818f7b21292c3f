// internal/auth/middleware.go
// Viewer identity for every request. Tokens are issued by the account service;
// this middleware only verifies them and carries the viewer in the context.

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/common/utils"
)

type contextKey string

const viewerKey contextKey = "viewer"

// Middleware resolves the viewer from a bearer token
type Middleware struct {
	jwtSecret string
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: jwtSecret}
}

// OptionalAuthenticate attaches the viewer when a valid access token is present.
// Missing, invalid or malformed tokens leave the request anonymous.
func (m *Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := m.resolve(r)
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
	})
}

// Authenticate rejects anonymous requests
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := m.resolve(r)
		if viewer.IsAnonymous() {
			utils.ErrorResponse(w, "Missing or invalid authorization header", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
	})
}

func (m *Middleware) resolve(r *http.Request) models.Viewer {
	token := extractToken(r)
	if token == "" {
		return models.Viewer{}
	}

	claims, err := utils.ValidateJWT(token, m.jwtSecret)
	if err != nil || claims.Type != "access" {
		return models.Viewer{}
	}
	return models.NewViewer(claims.UserID, claims.IsAdmin)
}

// extractToken supports the "Bearer <token>" format
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func WithViewer(ctx context.Context, viewer models.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, viewer)
}

// ViewerFromContext returns the anonymous viewer when none was attached
func ViewerFromContext(ctx context.Context) models.Viewer {
	viewer, _ := ctx.Value(viewerKey).(models.Viewer)
	return viewer
}
