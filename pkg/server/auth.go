package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sungauge/sungauge/pkg/log"
)

// authMiddleware resolves the request's user identity. With an OIDC audience
// configured, it validates the Google ID token in the auth cookie and keys
// everything by the token subject. Without one, every request acts as the
// configured bypass user (a single-household deployment).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		if s.bypassAuth {
			ctx = context.WithValue(ctx, userIDContextKey, s.bypassUserID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authCookie, err := r.Cookie(authTokenCookie)
		if err != nil {
			if !errors.Is(err, http.ErrNoCookie) {
				log.Ctx(ctx).ErrorContext(ctx, "failed to get auth cookie", slog.Any("error", err))
			}
			writeJSONError(w, "missing auth cookie", http.StatusUnauthorized)
			return
		}

		idToken, err := s.oidcVerifier(ctx, authCookie.Value)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "auth token validation failed", slog.Any("error", err))
			writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
			return
		}

		ctx = context.WithValue(ctx, userIDContextKey, idToken.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
