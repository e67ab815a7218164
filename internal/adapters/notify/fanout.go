package notify

import (
	"context"
	"errors"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/ports"
)

// Fanout reparte cada alerta a varios sinks. Los errores se acumulan para que
// un sink caído no silencie al resto.
type Fanout struct {
	sinks []ports.AlertSink
}

// NewFanout crea el fanout.
func NewFanout(sinks ...ports.AlertSink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) NotifyTrade(ctx context.Context, ev domain.TradeEvent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.NotifyTrade(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) NotifyEmergency(ctx context.Context, active bool, multiplier float64) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.NotifyEmergency(ctx, active, multiplier); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
