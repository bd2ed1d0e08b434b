package middleware

import (
	"log/slog"
	"net/http"

	"github.com/officeteam/office-utilities/internal/auth"
)

// RequireAction gates a route on the shared capability check. It runs
// after the auth middleware has put the user into the context.
func RequireAction(action auth.Action, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !auth.Can(user, action) {
				logger.Warn("access denied",
					"user_id", user.ID,
					"action", action)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
