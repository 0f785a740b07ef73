package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.Payer = (*Simulator)(nil)

// A Simulator pretends to charge a card: it waits for the delay
// and approves with the configured probability.
type Simulator struct {
	successRate float64
	delay       time.Duration
}

func NewSimulator(successRate float64, delay time.Duration) Simulator {
	return Simulator{successRate: successRate, delay: delay}
}

func (s Simulator) Pay(
	ctx context.Context, amount decimal.Decimal, details domain.CheckoutDetails,
) error {
	const op = "Simulator.Pay"
	log := slog.With("op", op)

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	case <-timer.C:
	}

	if rand.Float64() >= s.successRate {
		log.Info("payment declined", "amount", amount, "email", details.Email)
		return fmt.Errorf("%s: %w", op, domain.ErrPaymentDeclined)
	}

	log.Info("payment approved", "amount", amount, "email", details.Email)
	return nil
}
