package notifications

import (
	"fmt"
	"strings"

	"github.com/fabguard/storefront-backend/internal/checkout"
)

// FormatOrderMessage renders the admin message for a stored order.
func FormatOrderMessage(n checkout.OrderNotification) string {
	d := n.Draft
	var b strings.Builder

	b.WriteString("🔔 *NEW ORDER RECEIVED* 🔔\n\n")
	b.WriteString("📋 *Order Details:*\n")
	fmt.Fprintf(&b, "Order ID: %s\n", n.OrderID)
	fmt.Fprintf(&b, "Customer: %s\n", d.Customer.Name)
	fmt.Fprintf(&b, "Phone: %s\n", d.Customer.Phone)
	fmt.Fprintf(&b, "Email: %s\n", d.Customer.Email)
	fmt.Fprintf(&b, "Address: %s\n\n", d.Customer.Address)

	b.WriteString("🛍️ *Services Ordered:*\n")
	for _, line := range d.Lines {
		fmt.Fprintf(&b, "• %s - ₹%s\n", line.Service.Name, line.Service.Price.String())
		if names := line.SelectedNames(); len(names) > 0 {
			fmt.Fprintf(&b, "   Items: %s\n", strings.Join(names, ", "))
		}
	}

	b.WriteString("\n💰 *Payment Summary:*\n")
	fmt.Fprintf(&b, "Total Amount: ₹%s\n", d.Totals.Subtotal.String())
	if d.Totals.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: ₹%s\n", d.Totals.Discount.String())
	}
	if d.CouponCode != "" {
		fmt.Fprintf(&b, "Coupon Code: %s\n", d.CouponCode)
	}
	fmt.Fprintf(&b, "Final Amount: ₹%s\n", d.Totals.FinalTotal.String())

	if d.Customer.Note != "" {
		fmt.Fprintf(&b, "\n📝 *Customer Note:*\n%s\n", d.Customer.Note)
	}

	b.WriteString("\nPlease contact the customer to confirm the order.")
	return b.String()
}
