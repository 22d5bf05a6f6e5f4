package middleware

import (
	"log/slog"
	"net/http"

	"github.com/filevault/filevault/internal/auth"
)

// RequireRoles gates a route to actors holding one of the given roles. The
// services repeat their own authorization checks; this middleware only
// rejects the obvious cases before a request body is consumed.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			allowed := false
			for _, role := range roles {
				if user.Role == role {
					allowed = true
					break
				}
			}

			if !allowed {
				slog.Warn("access denied: role not permitted",
					"user_id", user.ID,
					"role", user.Role,
					"required_roles", roles)
				http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
