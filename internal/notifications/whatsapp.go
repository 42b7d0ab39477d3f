package notifications

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fabguard/storefront-backend/internal/checkout"
)

const ChannelWhatsApp = "whatsapp"

// WhatsAppNotifier builds a wa.me deep link carrying the order message. Opening
// the link is left to the client.
type WhatsAppNotifier struct {
	adminNumber string
}

// NewWhatsAppNotifier validates the admin number. Only digits are kept.
func NewWhatsAppNotifier(adminNumber string) (*WhatsAppNotifier, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, adminNumber)
	if digits == "" {
		return nil, fmt.Errorf("admin whatsapp number required")
	}
	return &WhatsAppNotifier{adminNumber: digits}, nil
}

func (w *WhatsAppNotifier) Channel() string { return ChannelWhatsApp }

func (w *WhatsAppNotifier) SendOrderNotification(ctx context.Context, n checkout.OrderNotification) (*checkout.NotificationReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n.OrderID == "" {
		return nil, fmt.Errorf("order id required")
	}
	return &checkout.NotificationReceipt{Link: w.Link(FormatOrderMessage(n))}, nil
}

// Link returns the wa.me URL for message.
func (w *WhatsAppNotifier) Link(message string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", w.adminNumber, encoded)
}
