package middleware

import (
	"net/http"
	"strings"

	"github.com/fabguard/storefront-backend/api/responses"
	pkgAuth "github.com/fabguard/storefront-backend/pkg/auth"
	"github.com/fabguard/storefront-backend/pkg/config"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
)

// Auth validates a bearer token from the identity provider and seeds the request
// context with the customer's id and email.
func Auth(cfg config.AuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in is not configured"))
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID())
			ctx = WithEmail(ctx, strings.ToLower(strings.TrimSpace(claims.Email)))
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
