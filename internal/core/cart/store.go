package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
)

// DefaultQuantity is the quantity added by [Store.Add].
const DefaultQuantity = 1

var (
	ErrInvalidProduct  = errors.New("invalid product reference")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// A Config used for setup [Store].
//
// Key and Storage are required.
type Config struct {
	Key       string
	SessionID string
	Storage   port.SnapshotStorage
	Notifier  port.Notifier
}

// A Store owns the line items of one cart.
//
// Every mutation is serialized, persisted under the store key
// and reported to the notifier before it returns.
// Storage and notifier failures are logged and never fail the mutation.
type Store struct {
	mu        sync.Mutex
	key       string
	sessionID string
	items     []domain.LineItem
	storage   port.SnapshotStorage
	notifier  port.Notifier
}

// New creates the store and rehydrates it from the storage key.
func New(ctx context.Context, config Config) *Store {
	const op = "cart.New"

	if config.Key == "" || config.Storage == nil {
		panic(fmt.Errorf("%s: key and storage are required", op)) // develop mistake
	}

	notifier := config.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	s := &Store{
		key:       config.Key,
		sessionID: config.SessionID,
		storage:   config.Storage,
		notifier:  notifier,
	}
	s.items = s.load(ctx)
	return s
}

// Key returns the storage key the cart is persisted under.
func (s *Store) Key() string {
	return s.key
}

// Add adds one unit of the product.
func (s *Store) Add(ctx context.Context, p domain.ProductRef) (domain.Snapshot, error) {
	return s.AddItem(ctx, p, DefaultQuantity)
}

// AddItem increments the line of the product by quantity,
// appending a new line if the product is not in the cart yet.
func (s *Store) AddItem(
	ctx context.Context, p domain.ProductRef, quantity int,
) (domain.Snapshot, error) {
	const op = "Store.AddItem"

	if !p.Valid() {
		return s.Snapshot(), fmt.Errorf("%s: %w", op, ErrInvalidProduct)
	}
	if quantity < 1 {
		return s.Snapshot(), fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	s.mu.Lock()
	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, domain.LineItem{Product: p, Quantity: quantity})
	}
	snap := s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, domain.NoticeSuccess,
		"Product added",
		fmt.Sprintf("%s has been added to your cart.", p.Name),
	)
	return snap, nil
}

// RemoveItem drops the line of the product. Unknown ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) domain.Snapshot {
	s.mu.Lock()
	snap := s.remove(ctx, productID)
	s.mu.Unlock()

	s.notifyRemoved(ctx)
	return snap
}

// UpdateQuantity sets the quantity of the product line.
//
// A quantity <= 0 removes the line.
func (s *Store) UpdateQuantity(
	ctx context.Context, productID string, quantity int,
) domain.Snapshot {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID); i >= 0 {
		s.items[i].Quantity = quantity
	}
	return s.persist(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	s.items = nil
	snap := s.persist(ctx)
	s.mu.Unlock()

	s.notifyCleared(ctx)
	return snap
}

// Settle takes the paid quantities out of the cart.
//
// Lines added or raised after the payment snapshot was taken stay
// in the cart with the unpaid remainder. Unknown ids are skipped.
func (s *Store) Settle(ctx context.Context, paid []domain.LineItem) domain.Snapshot {
	s.mu.Lock()
	for _, li := range paid {
		if i := s.indexOf(li.Product.ID); i >= 0 {
			s.items[i].Quantity -= li.Quantity
		}
	}
	s.items = slices.DeleteFunc(s.items, func(li domain.LineItem) bool {
		return li.Quantity < 1
	})
	snap := s.persist(ctx)
	s.mu.Unlock()

	if len(snap.Items) == 0 {
		s.notifyCleared(ctx)
	} else {
		s.notify(ctx, domain.NoticeInfo,
			"Cart updated",
			"Paid products have been removed from your cart.",
		)
	}
	return snap
}

// Total returns the sum of price times quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	return s.Snapshot().TotalAmount
}

// TotalItems returns the sum of quantities over all lines.
func (s *Store) TotalItems() int {
	return s.Snapshot().TotalItems
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []domain.LineItem {
	return s.Snapshot().Items
}

// Snapshot returns a copy of the lines with their aggregates.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() domain.Snapshot {
	return domain.NewSnapshot(s.items)
}

func (s *Store) indexOf(productID string) int {
	return slices.IndexFunc(s.items, func(li domain.LineItem) bool {
		return li.Product.ID == productID
	})
}

func (s *Store) remove(ctx context.Context, productID string) domain.Snapshot {
	s.items = slices.DeleteFunc(s.items, func(li domain.LineItem) bool {
		return li.Product.ID == productID
	})
	return s.persist(ctx)
}

func (s *Store) load(ctx context.Context) []domain.LineItem {
	const op = "Store.load"
	log := slog.With("op", op, "key", s.key)

	data, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		log.Error("failed to read snapshot, starting empty", "err", err)
		return nil
	}
	if !ok {
		return nil
	}

	items, err := Unmarshal([]byte(data))
	if err != nil {
		log.Warn("failed to decode snapshot, starting empty", "err", err)
		return nil
	}

	log.Debug("cart rehydrated", "nItems", len(items))
	return items
}

// persist writes the whole sequence under the store key and
// returns its snapshot. Called with the lock held, so writes
// reach the storage in mutation order.
func (s *Store) persist(ctx context.Context) domain.Snapshot {
	const op = "Store.persist"
	log := slog.With("op", op, "key", s.key)

	snap := s.snapshot()

	data, err := Marshal(s.items)
	if err != nil {
		log.Error("failed to encode snapshot", "err", err)
		return snap
	}

	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		log.Error("failed to write snapshot", "err", err)
	}
	return snap
}

// notify is called without the lock held.
func (s *Store) notify(
	ctx context.Context, kind domain.NoticeKind, title, body string,
) {
	const op = "Store.notify"

	n := domain.Notice{
		SessionID: s.sessionID,
		Kind:      kind,
		Title:     title,
		Body:      body,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		slog.Warn("failed to deliver notice", "op", op, "err", err)
	}
}

func (s *Store) notifyRemoved(ctx context.Context) {
	s.notify(ctx, domain.NoticeInfo,
		"Product removed",
		"The product has been removed from your cart.",
	)
}

func (s *Store) notifyCleared(ctx context.Context) {
	s.notify(ctx, domain.NoticeInfo,
		"Cart cleared",
		"All products have been removed from your cart.",
	)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notice) error { return nil }
