package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fabguard/storefront-backend/pkg/logger"
)

// RequestIDHeader correlates a storefront request across the API logs and the
// edge proxy.
const RequestIDHeader = "X-Request-Id"

const maxRequestIDLen = 64

// RequestID adopts the caller's X-Request-Id when it looks like an id and
// mints a uuid otherwise, so header junk never reaches the logs.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if !validRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
