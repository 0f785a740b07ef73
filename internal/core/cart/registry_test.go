package cart_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(
	t *testing.T, storage port.SnapshotStorage, opts ...cart.RegistryOpt,
) *cart.Registry {
	t.Helper()
	r, err := cart.NewRegistry("cart", storage, nil, opts...)
	require.NoError(t, err)
	return r
}

// gatedStorage blocks reads of one key until release is closed.
type gatedStorage struct {
	*memStorage
	key     string
	reading chan struct{}
	release chan struct{}
}

func (s *gatedStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if key == s.key {
		close(s.reading)
		<-s.release
	}
	return s.memStorage.Get(ctx, key)
}

func TestRegistry(t *testing.T) {
	t.Run("SameSessionSameStore", func(t *testing.T) {
		r := newRegistry(t, newMemStorage())

		s1, err := r.Open(t.Context(), "abc")
		require.NoError(t, err)
		s2, err := r.Open(t.Context(), "abc")
		require.NoError(t, err)
		s3, err := r.Open(t.Context(), "def")
		require.NoError(t, err)

		assert.Same(t, s1, s2)
		assert.NotSame(t, s1, s3)
		assert.Equal(t, "cart:abc", s1.Key())
		assert.Equal(t, 2, r.Len())
	})

	t.Run("EmptySession", func(t *testing.T) {
		r := newRegistry(t, newMemStorage())
		_, err := r.Open(t.Context(), "")
		assert.ErrorIs(t, err, domain.ErrNoSession)
		assert.Equal(t, 0, r.Len())
	})

	t.Run("InvalidOpts", func(t *testing.T) {
		_, err := cart.NewRegistry("cart", newMemStorage(), nil, cart.IdleTTLOpt(0))
		assert.Error(t, err)
		_, err = cart.NewRegistry("cart", newMemStorage(), nil, cart.MaxCartsOpt(0))
		assert.Error(t, err)
	})

	t.Run("ReopenRehydrates", func(t *testing.T) {
		ctx := t.Context()
		storage := newMemStorage()
		r := newRegistry(t, storage)

		s, err := r.Open(ctx, "abc")
		require.NoError(t, err)
		_, err = s.AddItem(ctx, product("p1", 10), 2)
		require.NoError(t, err)

		assert.True(t, r.Close("abc"))
		assert.False(t, r.Close("abc"))
		assert.Equal(t, 0, r.Len())

		reopened, err := r.Open(ctx, "abc")
		require.NoError(t, err)
		assert.NotSame(t, s, reopened)
		assertLines(t, []line{{"p1", 2}}, reopened.Items())
	})

	t.Run("FullRegistryEvictsLeastRecent", func(t *testing.T) {
		ctx := t.Context()
		r := newRegistry(t, newMemStorage(), cart.MaxCartsOpt(2))

		a, err := r.Open(ctx, "a")
		require.NoError(t, err)
		_, err = a.AddItem(ctx, product("p1", 10), 3)
		require.NoError(t, err)
		_, err = r.Open(ctx, "b")
		require.NoError(t, err)
		_, err = r.Open(ctx, "b")
		require.NoError(t, err)
		_, err = r.Open(ctx, "c")
		require.NoError(t, err)
		assert.Equal(t, 2, r.Len())

		reopened, err := r.Open(ctx, "a")
		require.NoError(t, err)
		assert.NotSame(t, a, reopened)
		assertLines(t, []line{{"p1", 3}}, reopened.Items())
	})

	t.Run("IdleStoreExpires", func(t *testing.T) {
		ctx := t.Context()
		r := newRegistry(t, newMemStorage(), cart.IdleTTLOpt(50*time.Millisecond))

		s, err := r.Open(ctx, "abc")
		require.NoError(t, err)
		_, err = s.Add(ctx, product("p1", 10))
		require.NoError(t, err)

		time.Sleep(100 * time.Millisecond)

		reopened, err := r.Open(ctx, "abc")
		require.NoError(t, err)
		assert.NotSame(t, s, reopened)
		assertLines(t, []line{{"p1", 1}}, reopened.Items())
	})

	t.Run("OpenExtendsIdleDeadline", func(t *testing.T) {
		ctx := t.Context()
		r := newRegistry(t, newMemStorage(), cart.IdleTTLOpt(time.Second))

		s, err := r.Open(ctx, "abc")
		require.NoError(t, err)
		for range 3 {
			time.Sleep(400 * time.Millisecond)
			got, err := r.Open(ctx, "abc")
			require.NoError(t, err)
			require.Same(t, s, got)
		}
	})

	t.Run("ConcurrentOpenSameStore", func(t *testing.T) {
		ctx := t.Context()
		r := newRegistry(t, newMemStorage())

		const n = 32
		stores := make([]*cart.Store, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, err := r.Open(ctx, "abc")
				assert.NoError(t, err)
				stores[i] = s
			}()
		}
		wg.Wait()

		for _, s := range stores[1:] {
			assert.Same(t, stores[0], s)
		}
		assert.Equal(t, 1, r.Len())
	})

	t.Run("SlowReadDoesNotBlockOtherSessions", func(t *testing.T) {
		ctx := t.Context()
		storage := &gatedStorage{
			memStorage: newMemStorage(),
			key:        cart.Key("cart", "slow"),
			reading:    make(chan struct{}),
			release:    make(chan struct{}),
		}
		r := newRegistry(t, storage)

		done := make(chan *cart.Store)
		go func() {
			s, err := r.Open(ctx, "slow")
			assert.NoError(t, err)
			done <- s
		}()
		<-storage.reading

		fast, err := r.Open(ctx, "fast")
		require.NoError(t, err)
		assert.Equal(t, "cart:fast", fast.Key())

		close(storage.release)
		slow := <-done
		assert.Equal(t, "cart:slow", slow.Key())
		assert.Equal(t, 2, r.Len())
	})

	t.Run("SessionsAreIsolated", func(t *testing.T) {
		ctx := t.Context()
		r := newRegistry(t, newMemStorage())

		a, err := r.Open(ctx, "a")
		require.NoError(t, err)
		b, err := r.Open(ctx, "b")
		require.NoError(t, err)

		_, err = a.Add(ctx, product("p1", 10))
		require.NoError(t, err)

		assert.Empty(t, b.Items())
		r.CloseAll()
		assert.Equal(t, 0, r.Len())
	})
}
