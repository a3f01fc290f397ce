package http

import (
	"net/http"
	"strings"

	"github.com/openshelf/openshelf/internal/library/apperr"
	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/pkg/httpx"
)

// sessionCookieName is the cookie browsers carry the sealed session token in.
// The Authorization header takes precedence when both are present.
const sessionCookieName = "token"

func transportToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// authenticate resolves the transport token to a user and attaches it to the
// request context. Missing and invalid tokens fail identically.
func (rt *Router) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := transportToken(r)
		if token == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "not authorized")
			return
		}

		user, err := rt.AuthService.Authenticate(r.Context(), token)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), user)))
	})
}

// optionalIdentity attaches an identity when a valid token is present and
// otherwise lets the request through anonymously. The GraphQL resolvers do
// their own enforcement.
func (rt *Router) optionalIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := transportToken(r); token != "" {
			if user, err := rt.AuthService.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(domain.WithUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireCapability gates a route on the attached identity's role. It answers
// Unauthorized when no identity is attached, so a mis-ordered chain fails
// closed.
func requireCapability(c domain.Capability) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := domain.UserFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "not authorized")
				return
			}
			if !user.Role.Can(c) {
				httpx.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	httpx.WriteError(w, apperr.HTTPStatus(err), apperr.Message(err))
}
