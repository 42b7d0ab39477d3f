package leads

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/fabguard/storefront-backend/pkg/db/models"
	"github.com/fabguard/storefront-backend/pkg/enums"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerInput is a technician's application to join the network.
type PartnerInput struct {
	Name       string
	Phone      string
	Email      string
	City       string
	Skills     string
	Experience string
	Message    string
}

// ContactInput is a message from the contact form.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// SubmissionDTO acknowledges a stored lead.
type SubmissionDTO struct {
	ID      string           `json:"id"`
	Status  enums.LeadStatus `json:"status"`
	Message string           `json:"message"`
}

// ContactNotification is handed to the notifier once a contact message is stored.
type ContactNotification struct {
	SubmissionID string
	Name         string
	Email        string
	Phone        string
	Message      string
}

// ContactNotifier tells the sender and the admins about a stored contact message.
type ContactNotifier interface {
	NotifyContact(ctx context.Context, n ContactNotification) error
}

// Service stores partner applications and contact messages for admin follow-up.
type Service struct {
	db       *gorm.DB
	notifier ContactNotifier
	logg     *logger.Logger
}

// NewService binds the lead service to the provided DB. notifier may be nil.
func NewService(db *gorm.DB, notifier ContactNotifier, logg *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{db: db, notifier: notifier, logg: logg}, nil
}

// RegisterPartner stores a pending partner application.
func (s *Service) RegisterPartner(ctx context.Context, in PartnerInput) (*SubmissionDTO, error) {
	missing := required(map[string]string{"name": in.Name, "phone": in.Phone, "city": in.City, "skills": in.Skills})
	if email := strings.TrimSpace(in.Email); email != "" && !validEmail(email) {
		missing["email"] = "email is invalid"
	}
	if len(missing) > 0 {
		return nil, validationError(missing)
	}

	row := &models.PartnerRegistration{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(in.Name),
		Phone:      strings.TrimSpace(in.Phone),
		Email:      optional(in.Email),
		City:       strings.TrimSpace(in.City),
		Skills:     strings.TrimSpace(in.Skills),
		Experience: optional(in.Experience),
		Message:    optional(in.Message),
		Status:     enums.LeadStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "registration could not be saved")
	}
	s.logg.Info(s.logg.WithField(ctx, "partner_registration_id", row.ID.String()), "leads.partner.registered")
	return &SubmissionDTO{
		ID:      row.ID.String(),
		Status:  row.Status,
		Message: "Thank you for registering as a Fabguard partner. Our team will reach out to you soon.",
	}, nil
}

// SubmitContact stores a pending contact message.
func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (*SubmissionDTO, error) {
	missing := required(map[string]string{"name": in.Name, "email": in.Email, "message": in.Message})
	if _, ok := missing["email"]; !ok && !validEmail(strings.TrimSpace(in.Email)) {
		missing["email"] = "email is invalid"
	}
	if len(missing) > 0 {
		return nil, validationError(missing)
	}

	row := &models.ContactSubmission{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:   optional(in.Phone),
		Message: strings.TrimSpace(in.Message),
		Status:  enums.LeadStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "message could not be saved")
	}
	logCtx := s.logg.WithField(ctx, "contact_submission_id", row.ID.String())
	s.logg.Info(logCtx, "leads.contact.submitted")

	// the message is stored; a failed notification is logged, not returned
	if s.notifier != nil {
		err := s.notifier.NotifyContact(ctx, ContactNotification{
			SubmissionID: row.ID.String(),
			Name:         row.Name,
			Email:        row.Email,
			Phone:        strings.TrimSpace(in.Phone),
			Message:      row.Message,
		})
		if err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "leads.contact.notify_failed")
		}
	}
	return &SubmissionDTO{
		ID:      row.ID.String(),
		Status:  row.Status,
		Message: "Your message has been sent. We'll get back to you soon.",
	}, nil
}

func required(fields map[string]string) map[string]string {
	missing := map[string]string{}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing[name] = name + " is required"
		}
	}
	return missing
}

func validationError(missing map[string]string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "please fill in all required fields").
		WithDetails(map[string]any{"fields": missing})
}

func validEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	return err == nil && addr.Address == v
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
