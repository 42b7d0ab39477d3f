package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/internal/leads"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	ChannelEmail = "email"

	EventEmailRequested = "email.requested"

	EmailKindOrderConfirmation = "order_confirmation"
	EmailKindOrderAdmin        = "order_admin"
	EmailKindContactReceipt    = "contact_receipt"
	EmailKindContactAdmin      = "contact_admin"
)

// EmailRequest is the data of an email.requested event. A mail relay
// subscribed to the topic renders and delivers it.
type EmailRequest struct {
	Kind    string   `json:"kind"`
	From    string   `json:"from"`
	ReplyTo string   `json:"replyTo,omitempty"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// EmailOptions configure sender and admin recipients.
type EmailOptions struct {
	From            string
	ReplyTo         string
	AdminRecipients []string
}

// EmailNotifier queues order and contact emails for the customer and the admins.
type EmailNotifier struct {
	publisher Publisher
	topic     string
	opts      EmailOptions
	now       func() time.Time
}

// NewEmailNotifier binds the notifier to the email topic.
func NewEmailNotifier(publisher Publisher, topic string, opts EmailOptions) (*EmailNotifier, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("topic required")
	}
	if strings.TrimSpace(opts.From) == "" {
		return nil, fmt.Errorf("sender address required")
	}
	admins := make([]string, 0, len(opts.AdminRecipients))
	for _, addr := range opts.AdminRecipients {
		if addr = strings.TrimSpace(addr); addr != "" {
			admins = append(admins, addr)
		}
	}
	if len(admins) == 0 {
		return nil, fmt.Errorf("at least one admin recipient required")
	}
	opts.AdminRecipients = admins
	return &EmailNotifier{publisher: publisher, topic: topic, opts: opts, now: time.Now}, nil
}

func (e *EmailNotifier) Channel() string { return ChannelEmail }

// SendOrderNotification queues the customer confirmation and the admin copy.
// Both are attempted; failures are combined.
func (e *EmailNotifier) SendOrderNotification(ctx context.Context, n checkout.OrderNotification) (*checkout.NotificationReceipt, error) {
	var errs error
	if to := strings.TrimSpace(n.Draft.Customer.Email); to != "" {
		errs = multierr.Append(errs, e.queue(ctx, "order_id", n.OrderID, EmailRequest{
			Kind:    EmailKindOrderConfirmation,
			To:      []string{to},
			Subject: fmt.Sprintf("Order Confirmation & Invoice - %s", n.OrderID),
			Text:    FormatOrderConfirmation(n),
		}))
	}
	errs = multierr.Append(errs, e.queue(ctx, "order_id", n.OrderID, EmailRequest{
		Kind:    EmailKindOrderAdmin,
		To:      e.opts.AdminRecipients,
		Subject: fmt.Sprintf("New Order Received - %s", n.OrderID),
		Text:    FormatOrderMessage(n),
	}))
	return nil, errs
}

// NotifyContact queues the acknowledgement to the sender and the admin copy.
func (e *EmailNotifier) NotifyContact(ctx context.Context, n leads.ContactNotification) error {
	var errs error
	errs = multierr.Append(errs, e.queue(ctx, "aggregate_id", n.SubmissionID, EmailRequest{
		Kind:    EmailKindContactReceipt,
		To:      []string{n.Email},
		Subject: "Thank you for contacting Fabguard!",
		Text:    FormatContactReceipt(n),
	}))
	errs = multierr.Append(errs, e.queue(ctx, "aggregate_id", n.SubmissionID, EmailRequest{
		Kind:    EmailKindContactAdmin,
		To:      e.opts.AdminRecipients,
		Subject: fmt.Sprintf("New Contact Form Submission from %s", n.Name),
		Text:    FormatContactAdmin(n, e.now()),
	}))
	return errs
}

func (e *EmailNotifier) queue(ctx context.Context, idAttr, id string, req EmailRequest) error {
	req.From = e.opts.From
	req.ReplyTo = e.opts.ReplyTo
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s email: %w", req.Kind, err)
	}
	body, err := json.Marshal(EventEnvelope{
		Version:    eventVersion,
		EventID:    uuid.NewString(),
		EventType:  EventEmailRequested,
		OccurredAt: e.now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	_, err = e.publisher.Publish(ctx, e.topic, body, map[string]string{
		"event_type": EventEmailRequested,
		"email_kind": req.Kind,
		idAttr:       id,
	})
	if err != nil {
		return fmt.Errorf("queue %s email: %w", req.Kind, err)
	}
	return nil
}

// FormatOrderConfirmation renders the customer's order confirmation.
func FormatOrderConfirmation(n checkout.OrderNotification) string {
	d := n.Draft
	var b strings.Builder

	fmt.Fprintf(&b, "Dear %s,\n\n", d.Customer.Name)
	b.WriteString("Your order has been successfully placed and is being processed. Here are the details:\n\n")
	fmt.Fprintf(&b, "Order ID: %s\n", n.OrderID)
	fmt.Fprintf(&b, "Phone: %s\n", d.Customer.Phone)
	fmt.Fprintf(&b, "Address: %s\n\n", d.Customer.Address)

	b.WriteString("Services:\n")
	for _, line := range d.Lines {
		fmt.Fprintf(&b, "• %s - ₹%s\n", line.Service.Name, line.Service.Price.String())
		if names := line.SelectedNames(); len(names) > 0 {
			fmt.Fprintf(&b, "   Items: %s\n", strings.Join(names, ", "))
		}
	}

	fmt.Fprintf(&b, "\nSubtotal: ₹%s\n", d.Totals.Subtotal.String())
	if d.Totals.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -₹%s\n", d.Totals.Discount.String())
	}
	if d.CouponCode != "" {
		fmt.Fprintf(&b, "Coupon Code: %s\n", d.CouponCode)
	}
	fmt.Fprintf(&b, "Total: ₹%s\n", d.Totals.FinalTotal.String())

	if d.Customer.Note != "" {
		fmt.Fprintf(&b, "\nYour note: %s\n", d.Customer.Note)
	}

	b.WriteString("\nOur team will contact you shortly to confirm the details and schedule the service. ")
	b.WriteString("Payment will be collected on delivery (Cash on Delivery).\n\n")
	b.WriteString("If you have any questions, feel free to contact us!\n")
	return b.String()
}

// FormatContactReceipt renders the acknowledgement sent to whoever used the contact form.
func FormatContactReceipt(n leads.ContactNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", n.Name)
	b.WriteString("We have received your message and will get back to you as soon as possible.\n\n")
	fmt.Fprintf(&b, "Your message:\n%s\n\n", n.Message)
	b.WriteString("Our team typically responds within 24 hours. If you have any urgent queries, please call us at +91 7262927177.\n\n")
	b.WriteString("Best regards,\nThe Fabguard Team\n")
	return b.String()
}

// FormatContactAdmin renders the admin copy of a contact message.
func FormatContactAdmin(n leads.ContactNotification, at time.Time) string {
	phone := n.Phone
	if phone == "" {
		phone = "Not provided"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", n.Name)
	fmt.Fprintf(&b, "Email: %s\n", n.Email)
	fmt.Fprintf(&b, "Phone: %s\n\n", phone)
	fmt.Fprintf(&b, "Message:\n%s\n\n", n.Message)
	fmt.Fprintf(&b, "Submission ID: %s\n", n.SubmissionID)
	fmt.Fprintf(&b, "Submitted at: %s\n", at.UTC().Format(time.RFC1123))
	return b.String()
}
