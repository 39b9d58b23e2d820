package vending

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/vendart/internal/model"
)

// DefaultPaymentDelay is how long a simulated payment takes.
const DefaultPaymentDelay = 2500 * time.Millisecond

// PaymentGateway charges the buyer for an item and returns a payment reference.
type PaymentGateway interface {
	Charge(ctx context.Context, item model.Item) (string, error)
}

// SimulatedGateway approves every payment after Delay. No money moves.
type SimulatedGateway struct {
	Delay time.Duration
}

// Charge waits out the delay and returns a fresh payment reference.
func (g *SimulatedGateway) Charge(ctx context.Context, item model.Item) (string, error) {
	slog.Info("simulated payment started", "id", item.ID, "price", item.Price)

	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	ref := uuid.NewString()
	slog.Info("simulated payment approved", "id", item.ID, "payment_ref", ref)
	return ref, nil
}
