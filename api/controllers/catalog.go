package controllers

import (
	"context"
	"net/http"

	"github.com/fabguard/storefront-backend/api/responses"
	"github.com/fabguard/storefront-backend/api/validators"
	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/catalog"
	"github.com/fabguard/storefront-backend/pkg/logger"
)

// CatalogReader is the read side served to the storefront pages.
type CatalogReader interface {
	Services(ctx context.Context) ([]cart.Service, error)
	Memberships(ctx context.Context) ([]catalog.MembershipDTO, error)
	ServiceItems(ctx context.Context, serviceID int64) (*catalog.ServiceItemsDTO, error)
}

// CatalogServices lists the bookable services.
func CatalogServices(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := svc.Services(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"services": services})
	}
}

// CatalogServiceItems lists the sub-items a customer can tick for one service.
func CatalogServiceItems(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParsePathID(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ServiceItems(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// CatalogMemberships lists the active membership plans.
func CatalogMemberships(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := svc.Memberships(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"memberships": plans})
	}
}
