package orders

import (
	"time"

	"github.com/fabguard/storefront-backend/pkg/db/models"
	"github.com/fabguard/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// OrderDTO is an order as shown in the customer's history.
type OrderDTO struct {
	ID             string              `json:"id"`
	Reference      string              `json:"reference"`
	Status         enums.OrderStatus   `json:"status"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	FinalAmount    decimal.Decimal     `json:"final_amount"`
	CouponCode     *string             `json:"coupon_code,omitempty"`
	CustomerNote   *string             `json:"customer_note,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Items          []OrderItemDTO      `json:"items"`
}

// OrderItemDTO is one booked service within an order.
type OrderItemDTO struct {
	ServiceID     int64           `json:"service_id"`
	ServiceName   string          `json:"service_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	SelectedItems []string        `json:"selected_items"`
}

func orderToDTO(o models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		selected := []string(item.SelectedItems)
		if selected == nil {
			selected = []string{}
		}
		items = append(items, OrderItemDTO{
			ServiceID:     item.ServiceID,
			ServiceName:   item.ServiceName,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			TotalPrice:    item.TotalPrice,
			SelectedItems: selected,
		})
	}
	return OrderDTO{
		ID:             o.ID.String(),
		Reference:      o.Reference,
		Status:         o.Status,
		PaymentMethod:  o.PaymentMethod,
		TotalAmount:    o.TotalAmount,
		DiscountAmount: o.DiscountAmount,
		FinalAmount:    o.FinalAmount,
		CouponCode:     o.CouponCode,
		CustomerNote:   o.CustomerNote,
		CreatedAt:      o.CreatedAt,
		Items:          items,
	}
}
