package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/toolbridge-io/toolbridge/internal/auth"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// TenantIDKey is the context key for the authenticated tenant
	TenantIDKey ContextKey = "tenantID"
	// SubjectKey is the context key for the token subject
	SubjectKey ContextKey = "subject"
)

// AuthMiddleware returns a middleware that validates JWT tokens and puts the
// tenant scope on the request context. Every data access below it is keyed by
// that tenant id.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			var tokenStr string

			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					tokenStr = parts[1]
				}
			} else {
				cookie, err := r.Cookie("accessToken")
				if err == nil {
					tokenStr = cookie.Value
				}
			}

			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), TenantIDKey, claims.TenantID)
			ctx = context.WithValue(ctx, SubjectKey, claims.Subject)

			AddLogField(w, "tenant_id", claims.TenantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenantID extracts the tenant ID from the request context
func GetTenantID(r *http.Request) (int64, bool) {
	tenantID, ok := r.Context().Value(TenantIDKey).(int64)
	return tenantID, ok
}

// GetSubject extracts the token subject from the request context
func GetSubject(r *http.Request) (string, bool) {
	subject, ok := r.Context().Value(SubjectKey).(string)
	return subject, ok
}
