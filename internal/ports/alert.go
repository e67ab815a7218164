package ports

import (
	"context"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// AlertSink delivers trade and account notifications to the user.
// Delivery is best-effort: a failing sink never blocks the decision path.
type AlertSink interface {
	// NotifyTrade reports an open/pyramid/close event.
	NotifyTrade(ctx context.Context, ev domain.TradeEvent) error

	// NotifyEmergency reports emergency-mode transitions.
	NotifyEmergency(ctx context.Context, active bool, multiplier float64) error
}
