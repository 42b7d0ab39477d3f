package notifications

import (
	"context"
	"fmt"

	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/fabguard/storefront-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// Channel is a notifier that can be told apart in logs and metrics.
type Channel interface {
	checkout.Notifier
	Channel() string
}

// Fanout sends through every channel in order. Errors are combined; the first
// link any channel produces is returned even when another channel failed.
type Fanout struct {
	channels []Channel
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
}

// NewFanout requires at least one channel.
func NewFanout(logg *logger.Logger, m *metrics.CheckoutMetrics, channels ...Channel) (*Fanout, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("at least one notification channel required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Fanout{channels: channels, logg: logg, metrics: m}, nil
}

func (f *Fanout) SendOrderNotification(ctx context.Context, n checkout.OrderNotification) (*checkout.NotificationReceipt, error) {
	var (
		receipt *checkout.NotificationReceipt
		errs    error
	)
	for _, ch := range f.channels {
		chCtx := f.logg.WithField(ctx, "channel", ch.Channel())
		r, err := ch.SendOrderNotification(chCtx, n)
		f.metrics.IncNotification(ch.Channel(), err == nil)
		if err != nil {
			f.logg.Warn(f.logg.WithField(chCtx, "error", err.Error()), "notifications.channel.failed")
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ch.Channel(), err))
			continue
		}
		if receipt == nil && r != nil && r.Link != "" {
			receipt = r
		}
	}
	return receipt, errs
}
