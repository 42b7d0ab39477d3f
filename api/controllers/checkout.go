package controllers

import (
	"net/http"

	"github.com/fabguard/storefront-backend/api/middleware"
	"github.com/fabguard/storefront-backend/api/responses"
	"github.com/fabguard/storefront-backend/api/validators"
	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/internal/sessions"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
)

const termsRequiredMessage = "you must accept the terms and conditions"

type detailsRequest struct {
	Name    string `json:"name" validate:"max=120"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Phone   string `json:"phone" validate:"max=20"`
	Address string `json:"address" validate:"max=500"`
	Note    string `json:"note" validate:"max=1000"`
}

type couponRequest struct {
	Code string `json:"code" validate:"required,max=40"`
}

type termsRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

type toggleItemRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Selected bool   `json:"selected"`
}

type submitRequest struct {
	TermsAccepted *bool `json:"terms_accepted"`
}

type expandLineResponse struct {
	ServiceID int64               `json:"service_id"`
	Items     []cart.SelectedItem `json:"items"`
}

// CheckoutFetch returns the checkout state, draft and priced totals.
func CheckoutFetch(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(runner, logg, func(*http.Request, *sessions.Session) error { return nil })
}

// CheckoutOpen enters item selection.
func CheckoutOpen(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(runner, logg, func(_ *http.Request, sess *sessions.Session) error {
		return sess.Flow.Open()
	})
}

// CheckoutCancel closes checkout and discards the draft. The cart is kept.
func CheckoutCancel(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(runner, logg, func(_ *http.Request, sess *sessions.Session) error {
		return sess.Flow.Cancel()
	})
}

// CheckoutProceed moves from item selection to customer details.
func CheckoutProceed(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(runner, logg, func(_ *http.Request, sess *sessions.Session) error {
		return sess.Flow.ProceedToDetails()
	})
}

// CheckoutDetails records the customer form. Required fields are enforced on submit.
func CheckoutDetails(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload detailsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutAction(runner, logg, func(_ *http.Request, sess *sessions.Session) error {
			return sess.Flow.SetDetails(checkout.CustomerDetails{
				Name:    payload.Name,
				Email:   payload.Email,
				Phone:   payload.Phone,
				Address: payload.Address,
				Note:    validators.SanitizeString(payload.Note, 1000),
			})
		})(w, r)
	}
}

// CheckoutApplyCoupon applies a coupon code to the draft.
func CheckoutApplyCoupon(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutAction(runner, logg, func(_ *http.Request, sess *sessions.Session) error {
			_, err := sess.Flow.ApplyCoupon(payload.Code)
			return err
		})(w, r)
	}
}

// CheckoutRemoveCoupon drops the applied coupon.
func CheckoutRemoveCoupon(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return checkoutAction(runner, logg, func(_ *http.Request, sess *sessions.Session) error {
		return sess.Flow.RemoveCoupon()
	})
}

// CheckoutTerms records the terms checkbox.
func CheckoutTerms(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload termsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutAction(runner, logg, func(_ *http.Request, sess *sessions.Session) error {
			return sess.Flow.AcceptTerms(*payload.Accepted)
		})(w, r)
	}
}

// CheckoutExpandLine loads a line's sub-items on first expansion.
func CheckoutExpandLine(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParsePathID(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := expandLineResponse{ServiceID: serviceID}
		err = runner.Do(r.Context(), middleware.SessionIDFromContext(r.Context()), func(sess *sessions.Session) error {
			items, err := sess.Flow.ExpandLine(r.Context(), serviceID)
			resp.Items = items
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if resp.Items == nil {
			resp.Items = []cart.SelectedItem{}
		}
		responses.WriteSuccess(w, resp)
	}
}

// CheckoutToggleItem ticks or unticks one sub-item on an expanded line.
func CheckoutToggleItem(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParsePathID(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload toggleItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutAction(runner, logg, func(_ *http.Request, sess *sessions.Session) error {
			return sess.Flow.ToggleItem(serviceID, payload.Name, payload.Selected)
		})(w, r)
	}
}

// CheckoutSubmit places the order. A body with terms_accepted false is rejected
// before the flow is touched; true records acceptance first.
func CheckoutSubmit(runner SessionRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload submitRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.TermsAccepted != nil && !*payload.TermsAccepted {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, termsRequiredMessage).
				WithDetails(map[string]any{"terms": termsRequiredMessage}))
			return
		}

		var result *checkout.SubmitResult
		var view checkoutResponse
		err := runner.Do(r.Context(), middleware.SessionIDFromContext(r.Context()), func(sess *sessions.Session) error {
			if payload.TermsAccepted != nil {
				if err := sess.Flow.AcceptTerms(true); err != nil {
					return err
				}
			}
			res, err := sess.Flow.Submit(r.Context())
			view = newCheckoutResponse(sess)
			result = res
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.NotificationFailed() && logg != nil {
			ctx := logg.WithOrderID(r.Context(), result.OrderID)
			logg.Warn(ctx, "checkout.submit.notification_degraded")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"result":   newSubmitResponse(result),
			"checkout": view,
		})
	}
}

func checkoutAction(runner SessionRunner, logg *logger.Logger, fn func(*http.Request, *sessions.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp checkoutResponse
		err := runner.Do(r.Context(), middleware.SessionIDFromContext(r.Context()), func(sess *sessions.Session) error {
			if err := fn(r, sess); err != nil {
				return err
			}
			resp = newCheckoutResponse(sess)
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
