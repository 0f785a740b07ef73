package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var (
	_ port.Notifier = (*Log)(nil)
	_ port.Notifier = (Multi)(nil)
)

// A Log writes notices to the default logger.
type Log struct{}

func (Log) Notify(_ context.Context, n domain.Notice) error {
	const op = "Log.Notify"
	slog.Info(n.Title,
		"op", op,
		"sessionID", n.SessionID,
		"kind", n.Kind,
		"body", n.Body,
	)
	return nil
}

// A Multi delivers every notice to all of its notifiers.
type Multi []port.Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notice) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
