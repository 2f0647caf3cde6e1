package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/oauth2"
	"github.com/jrsteele09/go-oauth-facade/token"
	"github.com/jrsteele09/go-oauth-facade/usercontext"
	"github.com/rs/zerolog"
)

// UserContextMiddleware resolves a Bearer access token into an
// authenticated user context. Requests without one act as anonymous. An
// invalid or expired bearer is rejected with 401. Other Authorization
// schemes are left alone.
func (s *Server) UserContextMiddleware(next http.Handler) http.Handler {
	return s.userContext(next, true)
}

// OptionalUserContextMiddleware resolves a Bearer access token like
// UserContextMiddleware but falls back to the anonymous context when the
// token cannot be resolved. The OAuth endpoints use it so a stale bearer
// never hides their own error responses.
func (s *Server) OptionalUserContextMiddleware(next http.Handler) http.Handler {
	return s.userContext(next, false)
}

func (s *Server) userContext(next http.Handler, strict bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		anonymous := func() {
			next.ServeHTTP(w, r.WithContext(usercontext.WithUserContext(ctx, usercontext.AnonymousContext)))
		}
		value, ok := bearerToken(r)
		if !ok {
			anonymous()
			return
		}

		stored, err := s.tokens.Validate(usercontext.WithUserContext(ctx, usercontext.SystemContext), value, token.KindAccess)
		if err != nil && !strict {
			zerolog.Ctx(ctx).Debug().Err(err).Msg("ignoring unresolved bearer token")
			anonymous()
			return
		}
		if errors.Is(err, errors.ErrInvalidToken) || errors.Is(err, errors.ErrTokenExpired) {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			writeAPIError(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to resolve bearer token")
			writeAPIError(w, "token lookup failed", http.StatusInternalServerError)
			return
		}
		if stored.UserID == "" {
			// Client credentials tokens carry no resource owner.
			anonymous()
			return
		}

		uc := usercontext.NewAuthenticated(stored.UserID, oauth2.AccessToken(value))
		zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", stored.UserID)
		})
		next.ServeHTTP(w, r.WithContext(usercontext.WithUserContext(ctx, uc)))
	})
}

// RequireAuth rejects requests that did not present a user's access token.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !usercontext.FromContext(r.Context()).IsAuthenticated() {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeAPIError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
