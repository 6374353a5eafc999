package middleware

import (
	"errors"
	"net/http"

	"github.com/nzhukovskiy/fundlink-api/utils"
)

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := utils.BearerToken(r)
		if !ok {
			utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return
		}
		claims, err := utils.ValidateAccessToken(r.Context(), tokenStr)
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrTokenExpired):
				utils.WriteError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Session expired, please log in again", nil)
			case errors.Is(err, utils.ErrTokenRevoked):
				utils.WriteError(w, http.StatusUnauthorized, "TOKEN_REVOKED", "Session has been logged out", nil)
			default:
				utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", nil)
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(utils.WithClaims(r.Context(), claims)))
	})
}

// RequireRole admits only callers whose token carries one of roles. It must
// run after AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := utils.GetUserRole(r)
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteError(w, http.StatusForbidden, "FORBIDDEN", "Access denied", nil)
		})
	}
}
