package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/junes231/funnel-editor/internal/model"
)

type contextKey string

const EditorIDKey contextKey = "editorId"

// TokenValidator checks editor tokens
type TokenValidator interface {
	ValidateEditorToken(token string) (*model.EditorClaims, error)
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	auth TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireEditor validates the editor JWT from the Authorization header
func (m *AuthMiddleware) RequireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			writeUnauthorized(w, "missing authorization header")
			return
		}

		claims, err := m.auth.ValidateEditorToken(token)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := WithEditorID(r.Context(), claims.EditorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithEditorID stores the authenticated editor in ctx
func WithEditorID(ctx context.Context, editorID string) context.Context {
	return context.WithValue(ctx, EditorIDKey, editorID)
}

// GetEditorID extracts editor ID from context
func GetEditorID(ctx context.Context) string {
	if v, ok := ctx.Value(EditorIDKey).(string); ok {
		return v
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
