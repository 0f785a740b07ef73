package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
)

func (s *Service) Cart(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	const op = "Service.Cart"

	store, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return store.Snapshot(), nil
}

// AddToCart resolves the product in the catalog and adds
// its reference to the session cart.
func (s *Service) AddToCart(
	ctx context.Context, sessionID, productID string, quantity int,
) (domain.Snapshot, error) {
	const op = "Service.AddToCart"

	store, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.products.ReadProduct(ctx, productID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	snap, err := store.AddItem(ctx, p.Ref(), quantity)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return snap, nil
}

func (s *Service) UpdateCartItem(
	ctx context.Context, sessionID, productID string, quantity int,
) (domain.Snapshot, error) {
	const op = "Service.UpdateCartItem"

	store, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return store.UpdateQuantity(ctx, productID, quantity), nil
}

func (s *Service) RemoveCartItem(
	ctx context.Context, sessionID, productID string,
) (domain.Snapshot, error) {
	const op = "Service.RemoveCartItem"

	store, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return store.RemoveItem(ctx, productID), nil
}

func (s *Service) ClearCart(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	const op = "Service.ClearCart"

	store, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return store.Clear(ctx), nil
}

// EndSession drops the in-memory cart of the session.
// The persisted snapshot is kept.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	const op = "Service.EndSession"

	if sessionID == "" {
		return fmt.Errorf("%s: %w", op, domain.ErrNoSession)
	}
	s.carts.Close(sessionID)
	return nil
}
