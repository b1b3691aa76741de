package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"paystub/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

// Can reports whether the authenticated caller holds permission. Lookup
// failures count as a denial.
func Can(r *http.Request, store PermissionStore, permission string) bool {
	user, ok := GetUser(r.Context())
	if !ok {
		return false
	}
	allowed, err := store.HasPermission(r.Context(), user.Role, permission)
	if err != nil {
		slog.Error("permission lookup failed", "role", user.Role, "permission", permission, "err", err)
		return false
	}
	return allowed
}

// RequirePermission answers 401 without a caller and 403 when the caller's
// role lacks permission.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
				return
			}
			if !Can(r, store, permission) {
				slog.Warn("permission denied", "user", user.Email, "permission", permission, "path", r.URL.Path, "requestId", reqID)
				api.Fail(w, http.StatusForbidden, "forbidden", "missing permission "+permission, reqID)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
