package controllers

import (
	"context"
	"net/http"

	"github.com/fabguard/storefront-backend/api/middleware"
	"github.com/fabguard/storefront-backend/api/responses"
	"github.com/fabguard/storefront-backend/api/validators"
	"github.com/fabguard/storefront-backend/internal/orders"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/fabguard/storefront-backend/pkg/pagination"
)

// OrderHistory lists a customer's orders.
type OrderHistory interface {
	ListByEmail(ctx context.Context, email string, params pagination.Params) (*pagination.Page[orders.OrderDTO], error)
}

// Cursors are base64url of a timestamp and an order uuid, under 100 bytes.
const maxCursorLen = 256

// OrdersList returns the signed-in customer's orders, newest first.
func OrdersList(svc OrderHistory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := middleware.EmailFromContext(r.Context())
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view your orders"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cursor, err := validators.ParseQueryToken(r, "cursor", maxCursorLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByEmail(r.Context(), email, pagination.Params{
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
