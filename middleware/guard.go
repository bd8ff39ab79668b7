package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/olympos-dev/authcore"
)

type userContextKey struct{}

// UserFromContext returns the user projection injected by a guard, if any.
func UserFromContext(ctx context.Context) (*authcore.UserProjection, bool) {
	user, ok := ctx.Value(userContextKey{}).(*authcore.UserProjection)
	return user, ok
}

// RequireSession returns middleware that rejects requests without a verifiable
// session bearer token. On success the user projection carried by the token is
// attached to the request context.
func RequireSession(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := engine.ValidateSession(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole wraps [RequireSession] and additionally rejects users whose role
// is not in the allowlist.
func RequireRole(engine *authcore.Engine, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	session := RequireSession(engine)
	return func(next http.Handler) http.Handler {
		return session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
