package catalog

import (
	"fmt"

	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// MembershipDTO is the storefront view of a plan.
type MembershipDTO struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Validity string          `json:"validity"`
	Discount string          `json:"discount"`
	Services []string        `json:"services"`
	Features []string        `json:"features"`
	Popular  bool            `json:"popular"`
}

// ServiceItemsDTO lists the tickable sub-items for one service.
type ServiceItemsDTO struct {
	ServiceID int64    `json:"service_id"`
	Items     []string `json:"items"`
}

func serviceFromModel(m models.Service) cart.Service {
	svc := cart.Service{
		ID:       m.ID,
		Name:     m.Name,
		Price:    m.Price,
		Category: m.Category,
	}
	if m.Description != nil {
		svc.Description = *m.Description
	}
	if m.ImageURL != nil {
		svc.Image = *m.ImageURL
	}
	return svc
}

func membershipFromModel(m models.Membership) MembershipDTO {
	services := []string(m.ServicesIncluded)
	if services == nil {
		services = []string{}
	}
	features := []string(m.Features)
	if features == nil {
		features = []string{}
	}
	return MembershipDTO{
		ID:       m.ID,
		Name:     m.Name,
		Price:    m.Price,
		Validity: fmt.Sprintf("%d-Year Validity", m.ValidityYears),
		Discount: fmt.Sprintf("%d%% Discount", m.DiscountPercentage),
		Services: services,
		Features: features,
		Popular:  m.IsPopular,
	}
}
