package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.PaymentsHistory = (*PaymentHistoryView)(nil)

// viewGetter is the part of [goka.View] used for lookups.
type viewGetter interface {
	Get(key string) (any, error)
}

// A PaymentHistoryView reads the group table
// maintained by [PaymentHistoryProcessor].
type PaymentHistoryView struct {
	gv     *goka.View
	getter viewGetter
}

func NewPaymentHistoryView(
	config PaymentHistoryConfig,
) (*PaymentHistoryView, error) {
	const op = "NewPaymentHistoryView"

	applyTLS(config.TLSConfig)

	gv, err := goka.NewView(
		config.SeedBrokers,
		goka.GroupTable(goka.Group(config.Group)),
		newPaymentHistoryCodec(),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &PaymentHistoryView{gv: gv, getter: gv}, nil
}

func (v *PaymentHistoryView) Run(ctx context.Context) {
	const op = "PaymentHistoryView.Run"
	log := slog.With("op", op)

	log.Info("running")
	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

// PaymentHistory returns the session payments, newest first.
func (v *PaymentHistoryView) PaymentHistory(
	ctx context.Context, sessionID string,
) ([]domain.Payment, error) {
	const op = "PaymentHistoryView.PaymentHistory"

	if err := ctx.Err(); err != nil {
		return nil, opErr(err, op)
	}

	value, err := v.getter.Get(sessionID)
	if err != nil {
		return nil, opErr(err, op)
	}
	return historyFromValue(value)
}

func historyFromValue(value any) ([]domain.Payment, error) {
	const op = "historyFromValue"

	if value == nil {
		return []domain.Payment{}, nil
	}

	history, ok := value.(schema.PaymentHistoryV1)
	if !ok {
		err := fmt.Errorf("%w: %T", ErrInvalidValueType, value)
		return nil, opErr(err, op)
	}

	payments := make([]domain.Payment, 0, len(history.Payments))
	for _, s := range history.Payments {
		p, err := paymentFromSchemaV1(s)
		if err != nil {
			return nil, opErr(err, op)
		}
		payments = append(payments, p)
	}
	return payments, nil
}
