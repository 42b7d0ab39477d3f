package memberships

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fabguard/storefront-backend/internal/catalog"
	"github.com/fabguard/storefront-backend/internal/customers"
	"github.com/fabguard/storefront-backend/pkg/db/models"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type membershipFinder interface {
	Membership(ctx context.Context, id int64) (*catalog.MembershipDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegistrationInput is what a visitor submits to sign up for a plan.
type RegistrationInput struct {
	Name  string
	Email string
	Phone string
	Code  string
}

// RegistrationDTO confirms a pending registration.
type RegistrationDTO struct {
	ID             string `json:"id"`
	MembershipID   int64  `json:"membership_id"`
	MembershipName string `json:"membership_name"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	IsActive       bool   `json:"is_active"`
	Message        string `json:"message"`
}

// Service records membership registrations. Registrations start inactive and
// are activated by an admin once payment is verified.
type Service struct {
	tx      txRunner
	catalog membershipFinder
	now     func() time.Time
	logg    *logger.Logger
}

// NewService wires the membership registration flow.
func NewService(tx txRunner, finder membershipFinder, logg *logger.Logger) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if finder == nil {
		return nil, fmt.Errorf("membership finder required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{tx: tx, catalog: finder, now: time.Now, logg: logg}, nil
}

// Register records a registration for membershipID. An existing customer with
// the same email is reused as is.
func (s *Service) Register(ctx context.Context, membershipID int64, input RegistrationInput) (*RegistrationDTO, error) {
	if missing := missingFields(input); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "please fill in all required fields").
			WithDetails(map[string]any{"fields": missing})
	}

	membership, err := s.catalog.Membership(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	start := s.now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(1, 0, 0)
	registration := &models.CustomerMembership{
		ID:           uuid.New(),
		MembershipID: membership.ID,
		StartDate:    start,
		EndDate:      end,
		IsActive:     false,
	}
	if code := strings.TrimSpace(input.Code); code != "" {
		registration.ReferralCode = &code
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customer, err := customers.NewRepository(tx).Upsert(ctx, customers.Contact{
			Name:  input.Name,
			Email: input.Email,
			Phone: input.Phone,
		}, false)
		if err != nil {
			return fmt.Errorf("upsert customer: %w", err)
		}
		registration.CustomerID = customer.ID
		return tx.WithContext(ctx).Create(registration).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "registration could not be saved")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"membership_id": membership.ID,
		"customer_id":   registration.CustomerID.String(),
	}), "memberships.registered")

	return &RegistrationDTO{
		ID:             registration.ID.String(),
		MembershipID:   membership.ID,
		MembershipName: membership.Name,
		StartDate:      start.Format(dateLayout),
		EndDate:        end.Format(dateLayout),
		IsActive:       false,
		Message:        fmt.Sprintf("Thank you for registering for %s. We'll contact you soon to complete the process.", membership.Name),
	}, nil
}

func missingFields(in RegistrationInput) map[string]string {
	missing := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		missing["name"] = "name is required"
	}
	if strings.TrimSpace(in.Email) == "" {
		missing["email"] = "email is required"
	}
	if strings.TrimSpace(in.Phone) == "" {
		missing["phone"] = "phone is required"
	}
	return missing
}
