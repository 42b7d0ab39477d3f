package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fabguard/storefront-backend/api/responses"
	"github.com/fabguard/storefront-backend/internal/sessions"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
)

// SessionHeader carries the browser session that owns a cart.
const SessionHeader = "X-Session-Id"

// Session resolves the storefront session id. A request without one is given a
// fresh id, echoed back in the response header so the client can keep it.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(SessionHeader))
			if id == "" {
				id = uuid.NewString()
			} else if !sessions.ValidID(id) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id").
					WithDetails(map[string]any{"header": SessionHeader}))
				return
			}

			w.Header().Set(SessionHeader, id)

			ctx := WithSessionID(r.Context(), id)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
