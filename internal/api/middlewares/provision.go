package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/markdave123-py/Studia/internal/models"
)

type userEnsurer interface {
	Ensure(ctx context.Context, id, email string) (*models.User, error)
}

// ProvisionUser creates the authenticated user on first sight. It must run
// after JWTMiddleware.
func ProvisionUser(users userEnsurer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "user_id not found in context")
				return
			}
			if _, err := users.Ensure(r.Context(), userID, EmailFromContext(r.Context())); err != nil {
				logger.Error("provision user failed", "user_id", userID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
