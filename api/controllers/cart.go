package controllers

import (
	"net/http"

	"github.com/fabguard/storefront-backend/api/middleware"
	"github.com/fabguard/storefront-backend/api/responses"
	"github.com/fabguard/storefront-backend/api/validators"
	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/sessions"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/fabguard/storefront-backend/pkg/metrics"
)

type addLineRequest struct {
	ServiceID int64 `json:"service_id" validate:"required,gt=0"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type selectedItemPayload struct {
	Name     string `json:"name" validate:"required,max=120"`
	Selected bool   `json:"selected"`
}

type setItemsRequest struct {
	Items []selectedItemPayload `json:"items" validate:"required,dive"`
}

type cartPanelRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// CartFetch returns the caller's cart.
func CartFetch(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp cartResponse
		err := runner.Do(r.Context(), middleware.SessionIDFromContext(r.Context()), func(sess *sessions.Session) error {
			resp = newCartResponse(sess)
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// CartAddLine adds a service to the cart.
func CartAddLine(runner SessionRunner, m *metrics.CheckoutMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mutateCart(w, r, runner, m, logg, "add", payload.ServiceID, func(sess *sessions.Session) (cart.Signal, error) {
			return sess.Cart.AddLine(payload.ServiceID), nil
		})
	}
}

// CartRemoveLine drops a service from the cart.
func CartRemoveLine(runner SessionRunner, m *metrics.CheckoutMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParsePathID(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mutateCart(w, r, runner, m, logg, "remove", serviceID, func(sess *sessions.Session) (cart.Signal, error) {
			return sess.Cart.RemoveLine(serviceID), nil
		})
	}
}

// CartSetQuantity updates a line's quantity; zero or less removes it.
func CartSetQuantity(runner SessionRunner, m *metrics.CheckoutMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParsePathID(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mutateCart(w, r, runner, m, logg, "set_quantity", serviceID, func(sess *sessions.Session) (cart.Signal, error) {
			return sess.Cart.SetQuantity(serviceID, *payload.Quantity), nil
		})
	}
}

// CartSetItems replaces a line's sub-item selections. Every name must be one of
// the service's catalog sub-items.
func CartSetItems(runner SessionRunner, m *metrics.CheckoutMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParsePathID(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]cart.SelectedItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, cart.SelectedItem{Name: item.Name, Selected: item.Selected})
		}
		mutateCart(w, r, runner, m, logg, "set_items", serviceID, func(sess *sessions.Session) (cart.Signal, error) {
			if err := sess.Flow.CheckItemNames(r.Context(), serviceID, items); err != nil {
				return "", err
			}
			return sess.Cart.SetSelectedItems(serviceID, items), nil
		})
	}
}

// CartPanel opens or closes the cart panel.
func CartPanel(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartPanelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var resp cartResponse
		err := runner.Do(r.Context(), middleware.SessionIDFromContext(r.Context()), func(sess *sessions.Session) error {
			sess.Flow.SetCartOpen(*payload.Open)
			resp = newCartResponse(sess)
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// mutateCart applies op and reports its signal. Rejections such as a duplicate add
// or an absent line leave the cart untouched and still answer 200; the message is
// meant for a toast.
func mutateCart(w http.ResponseWriter, r *http.Request, runner SessionRunner, m *metrics.CheckoutMetrics, logg *logger.Logger, op string, serviceID int64, fn func(*sessions.Session) (cart.Signal, error)) {
	var resp cartMutationResponse
	err := runner.Do(r.Context(), middleware.SessionIDFromContext(r.Context()), func(sess *sessions.Session) error {
		signal, err := fn(sess)
		if err != nil {
			return err
		}
		resp.Signal = signal
		resp.Cart = newCartResponse(sess)
		return nil
	})
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	m.IncCartMutation(op, string(resp.Signal))
	if rejected := resp.Signal.Err(serviceID); rejected != nil {
		resp.Message = pkgerrors.As(rejected).Message()
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"op": op, "service_id": serviceID, "signal": resp.Signal})
			logg.Info(ctx, "cart.mutation.rejected")
		}
	}
	responses.WriteSuccess(w, resp)
}
