package controllers

import (
	"context"
	"net/http"

	"github.com/fabguard/storefront-backend/api/responses"
	"github.com/fabguard/storefront-backend/api/validators"
	"github.com/fabguard/storefront-backend/internal/memberships"
	"github.com/fabguard/storefront-backend/pkg/logger"
)

// MembershipRegistrar signs a visitor up for a plan.
type MembershipRegistrar interface {
	Register(ctx context.Context, membershipID int64, input memberships.RegistrationInput) (*memberships.RegistrationDTO, error)
}

type membershipRegistrationRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"required,max=20"`
	Code  string `json:"code" validate:"max=40"`
}

// MembershipRegister records a pending membership registration.
func MembershipRegister(svc MembershipRegistrar, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		membershipID, err := validators.ParsePathID(r, "membershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload membershipRegistrationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Register(r.Context(), membershipID, memberships.RegistrationInput{
			Name:  payload.Name,
			Email: payload.Email,
			Phone: payload.Phone,
			Code:  payload.Code,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}
