package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

const PaymentMethod = "credit card (simulation)"

// Checkout charges the cart total through the payer.
//
// On success the payment is recorded and the paid lines are taken
// out of the cart; items added while the payment ran are kept.
// A declined payment leaves the cart untouched.
// One checkout per session runs at a time.
func (s *Service) Checkout(
	ctx context.Context, sessionID string, details domain.CheckoutDetails,
) (domain.Payment, error) {
	const op = "Service.Checkout"
	log := slog.With("op", op, "sessionID", sessionID)

	details, err := normalizeDetails(details)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("%s: %w", op, err)
	}

	store, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("%s: %w", op, err)
	}

	if !s.beginCheckout(sessionID) {
		return domain.Payment{}, fmt.Errorf("%s: %w", op, domain.ErrCheckoutInProgress)
	}
	defer s.endCheckout(sessionID)

	snap := store.Snapshot()
	if snap.TotalItems == 0 {
		return domain.Payment{}, fmt.Errorf("%s: %w", op, domain.ErrEmptyCart)
	}

	if err := s.payer.Pay(ctx, snap.TotalAmount, details); err != nil {
		log.Info("payment failed", "amount", snap.TotalAmount, "err", err)
		return domain.Payment{}, fmt.Errorf("%s: %w", op, err)
	}

	date := s.now().UTC()
	payment := domain.Payment{
		SessionID: sessionID,
		OrderID:   fmt.Sprintf("SIM-%d", date.UnixMilli()),
		Amount:    snap.TotalAmount,
		Method:    PaymentMethod,
		Date:      date,
		Items:     snap.Items,
	}

	if err := s.recorder.RecordPayment(ctx, payment); err != nil {
		log.Error("failed to record payment",
			"orderID", payment.OrderID, "err", err,
		)
	}

	store.Settle(ctx, snap.Items)
	log.Info("checkout completed",
		"orderID", payment.OrderID, "amount", payment.Amount,
	)
	return payment, nil
}

// Payments returns the session payment history, newest first.
func (s *Service) Payments(ctx context.Context, sessionID string) ([]domain.Payment, error) {
	const op = "Service.Payments"

	if sessionID == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNoSession)
	}

	payments, err := s.history.PaymentHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

func (s *Service) beginCheckout(sessionID string) bool {
	s.checkoutMu.Lock()
	defer s.checkoutMu.Unlock()

	if _, ok := s.checkouts[sessionID]; ok {
		return false
	}
	s.checkouts[sessionID] = struct{}{}
	return true
}

func (s *Service) endCheckout(sessionID string) {
	s.checkoutMu.Lock()
	defer s.checkoutMu.Unlock()
	delete(s.checkouts, sessionID)
}

func normalizeDetails(d domain.CheckoutDetails) (domain.CheckoutDetails, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Address = strings.TrimSpace(d.Address)

	if d.Name == "" {
		return d, fmt.Errorf("%w: name is required", domain.ErrInvalidCheckoutDetails)
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return d, fmt.Errorf("%w: email is invalid", domain.ErrInvalidCheckoutDetails)
	}
	return d, nil
}
