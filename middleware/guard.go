package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bricola/authcore"
)

// Authenticator resolves an access token to a principal. *authcore.Engine
// implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*authcore.Principal, error)
}

type principalContextKey struct{}

// PrincipalFromContext returns the principal stored by Guard.
func PrincipalFromContext(ctx context.Context) (*authcore.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*authcore.Principal)
	return p, ok && p != nil
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *authcore.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// Guard rejects requests without a valid bearer access token. Inactive
// accounts get 403, every other token failure 401.
func Guard(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			p, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				switch authcore.KindOf(err) {
				case authcore.KindUserNotActive:
					writeMessage(w, http.StatusForbidden, authcore.ErrUserNotActive.Message)
				case authcore.KindTokenExpired:
					writeMessage(w, http.StatusUnauthorized, authcore.ErrTokenExpired.Message)
				case authcore.KindInternal:
					writeMessage(w, http.StatusInternalServerError, authcore.ErrInternal.Message)
				default:
					writeMessage(w, http.StatusUnauthorized, authcore.ErrInvalidToken.Message)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
