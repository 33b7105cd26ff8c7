package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/cotizo-erp/cotizo/internal/platform/httpx"
	"github.com/cotizo-erp/cotizo/internal/shared"
)

// RequireAuth extracts the bearer token, verifies it and loads the
// caller's identity into the request context. Requests without a valid
// token are rejected before reaching any handler.
func RequireAuth(tokens *TokenManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			userID, email, fullName, role, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				if logger != nil {
					logger.Debug("reject bearer token", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), &shared.Identity{
				UserID:   userID,
				Email:    email,
				Role:     role,
				FullName: fullName,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
