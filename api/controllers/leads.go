package controllers

import (
	"context"
	"net/http"

	"github.com/fabguard/storefront-backend/api/responses"
	"github.com/fabguard/storefront-backend/api/validators"
	"github.com/fabguard/storefront-backend/internal/leads"
	"github.com/fabguard/storefront-backend/pkg/logger"
)

const maxMessageLength = 2000

// LeadRecorder stores partner applications and contact messages.
type LeadRecorder interface {
	RegisterPartner(ctx context.Context, in leads.PartnerInput) (*leads.SubmissionDTO, error)
	SubmitContact(ctx context.Context, in leads.ContactInput) (*leads.SubmissionDTO, error)
}

type partnerRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Email      string `json:"email" validate:"omitempty,email,max=254"`
	City       string `json:"city" validate:"required,max=80"`
	Skills     string `json:"skills" validate:"required,max=500"`
	Experience string `json:"experience" validate:"max=200"`
	Message    string `json:"message"`
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" validate:"max=20"`
	Message string `json:"message" validate:"required"`
}

// PartnerRegister records a technician's application to join.
func PartnerRegister(svc LeadRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload partnerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.RegisterPartner(r.Context(), leads.PartnerInput{
			Name:       payload.Name,
			Phone:      payload.Phone,
			Email:      payload.Email,
			City:       payload.City,
			Skills:     payload.Skills,
			Experience: payload.Experience,
			Message:    validators.SanitizeString(payload.Message, maxMessageLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// ContactSubmit stores a contact form message.
func ContactSubmit(svc LeadRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload contactRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.SubmitContact(r.Context(), leads.ContactInput{
			Name:    payload.Name,
			Email:   payload.Email,
			Phone:   payload.Phone,
			Message: validators.SanitizeString(payload.Message, maxMessageLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}
