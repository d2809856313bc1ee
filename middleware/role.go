package middleware

import (
	"net/http"

	"github.com/bricola/authcore/account"
)

// RequireRole admits only principals whose account has role. Wrap it inside
// Guard.
func RequireRole(role account.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if p.Account == nil || p.Account.Role != role {
				writeMessage(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
