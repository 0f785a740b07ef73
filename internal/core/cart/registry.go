package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const (
	DefaultIdleTTL     = 30 * time.Minute
	DefaultMaxCarts = 10000
)

type RegistryOpt func(*registryOpts) error

type registryOpts struct {
	idleTTL     time.Duration
	maxCarts int
}

// IdleTTLOpt sets how long an untouched store stays in memory.
func IdleTTLOpt(d time.Duration) RegistryOpt {
	return func(o *registryOpts) error {
		if d <= 0 {
			return fmt.Errorf("idle ttl must be positive, got %s", d)
		}
		o.idleTTL = d
		return nil
	}
}

// MaxCartsOpt caps the number of stores kept in memory.
// The least recently used store is evicted first.
func MaxCartsOpt(n int) RegistryOpt {
	return func(o *registryOpts) error {
		if n < 1 {
			return fmt.Errorf("max carts must be positive, got %d", n)
		}
		o.maxCarts = n
		return nil
	}
}

// A Registry holds one [Store] per session.
//
// Stores are constructed on first use and evicted when idle or when
// the registry is full. Their persisted snapshots outlive them, so the
// next [Registry.Open] rehydrates an evicted cart.
type Registry struct {
	mu        sync.Mutex
	keyPrefix string
	storage   port.SnapshotStorage
	notifier  port.Notifier
	stores    *expirable.LRU[string, *Store]
}

func NewRegistry(
	keyPrefix string,
	storage port.SnapshotStorage,
	notifier port.Notifier,
	opts ...RegistryOpt,
) (*Registry, error) {
	const op = "cart.NewRegistry"

	o := registryOpts{
		idleTTL:     DefaultIdleTTL,
		maxCarts: DefaultMaxCarts,
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	onEvict := func(sessionID string, _ *Store) {
		slog.Debug("cart evicted", "op", op, "sessionID", sessionID)
	}

	return &Registry{
		keyPrefix: keyPrefix,
		storage:   storage,
		notifier:  notifier,
		stores: expirable.NewLRU[string, *Store](
			o.maxCarts, onEvict, o.idleTTL,
		),
	}, nil
}

// Key returns the storage key of the session cart.
func Key(prefix, sessionID string) string {
	return prefix + ":" + sessionID
}

// Open returns the session store, rehydrating it on first use.
// Every call extends the store idle deadline.
func (r *Registry) Open(ctx context.Context, sessionID string) (*Store, error) {
	const op = "Registry.Open"

	if sessionID == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNoSession)
	}

	if s, ok := r.touch(sessionID); ok {
		return s, nil
	}

	// storage read happens outside the registry lock
	s := New(ctx, Config{
		Key:       Key(r.keyPrefix, sessionID),
		SessionID: sessionID,
		Storage:   r.storage,
		Notifier:  r.notifier,
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.stores.Get(sessionID); ok {
		r.stores.Add(sessionID, existing)
		return existing, nil
	}
	r.stores.Add(sessionID, s)

	slog.Debug("cart opened", "op", op, "sessionID", sessionID)
	return s, nil
}

func (r *Registry) touch(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores.Get(sessionID)
	if ok {
		r.stores.Add(sessionID, s)
	}
	return s, ok
}

// Close discards the in-memory store of the session.
// It reports whether the session had an open store.
func (r *Registry) Close(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores.Remove(sessionID)
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores.Purge()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores.Len()
}
