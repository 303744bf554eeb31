package middleware

import (
	"errors"
	"net/http"
	"strings"

	originauth "github.com/originauth/originauth"
)

// PrincipalFromRequest extracts the principal attached by [Guard].
func PrincipalFromRequest(r *http.Request) (originauth.Principal, bool) {
	return originauth.PrincipalFromContext(r.Context())
}

// Guard authenticates the request's bearer token and attaches the resulting
// principal to the request context. Terminal failures map to 401, transient
// collaborator outages to 503.
func Guard(engine *originauth.Engine) func(http.Handler) http.Handler {
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

			principal, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, originauth.ErrUnauthenticated) {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := originauth.WithPrincipal(r.Context(), *principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is [Guard] plus a role check on the verified principal.
func RequireRole(engine *originauth.Engine, role string) func(http.Handler) http.Handler {
	guard := Guard(engine)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromRequest(r)
			if !ok || principal.Role != role {
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
