package cart_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKey = "cart:test"

type memStorage struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string]string)}
}

func (s *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.sets++
	return nil
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStorage) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, v domain.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, v)
	return n.err
}

func product(id string, price int64) domain.ProductRef {
	return domain.ProductRef{
		ID:    id,
		Name:  "product " + id,
		Price: decimal.NewFromInt(price),
		Image: "/uploads/" + id + ".png",
	}
}

func newStore(t *testing.T, storage *memStorage) *cart.Store {
	t.Helper()
	return cart.New(t.Context(), cart.Config{Key: testKey, Storage: storage})
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.NewFromInt(want).Equal(got),
		"amount: want %d, got %s", want, got)
}

type line struct {
	id  string
	qty int
}

func assertLines(t *testing.T, want []line, got []domain.LineItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].id, got[i].Product.ID)
		assert.Equal(t, want[i].qty, got[i].Quantity)
	}
}

func TestStoreScenario(t *testing.T) {
	ctx := t.Context()
	s := newStore(t, newMemStorage())

	snap, err := s.AddItem(ctx, product("p1", 10), 2)
	require.NoError(t, err)
	assertLines(t, []line{{"p1", 2}}, snap.Items)
	assert.Equal(t, 2, snap.TotalItems)
	assertAmount(t, 20, snap.TotalAmount)

	snap, err = s.AddItem(ctx, product("p1", 10), 1)
	require.NoError(t, err)
	assertLines(t, []line{{"p1", 3}}, snap.Items)
	assert.Equal(t, 3, snap.TotalItems)
	assertAmount(t, 30, snap.TotalAmount)

	snap, err = s.Add(ctx, product("p2", 5))
	require.NoError(t, err)
	assertLines(t, []line{{"p1", 3}, {"p2", 1}}, snap.Items)
	assert.Equal(t, 4, snap.TotalItems)
	assertAmount(t, 35, snap.TotalAmount)

	snap = s.UpdateQuantity(ctx, "p1", 0)
	assertLines(t, []line{{"p2", 1}}, snap.Items)
	assert.Equal(t, 1, snap.TotalItems)
	assertAmount(t, 5, snap.TotalAmount)

	snap = s.Clear(ctx)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.TotalItems)
	assertAmount(t, 0, snap.TotalAmount)
	assert.Equal(t, 0, s.TotalItems())
	assertAmount(t, 0, s.Total())
}

func TestStoreAddItem(t *testing.T) {
	t.Run("DuplicateAddsMergeIntoOneLine", func(t *testing.T) {
		ctx := t.Context()
		s := newStore(t, newMemStorage())

		quantities := []int{1, 4, 2, 7}
		var want int
		for _, q := range quantities {
			_, err := s.AddItem(ctx, product("p1", 3), q)
			require.NoError(t, err)
			want += q
		}
		_, err := s.Add(ctx, product("p1", 3))
		require.NoError(t, err)
		want++

		assertLines(t, []line{{"p1", want}}, s.Items())
	})

	t.Run("KeepsFirstAdditionOrder", func(t *testing.T) {
		ctx := t.Context()
		s := newStore(t, newMemStorage())

		for _, id := range []string{"a", "b", "c", "a", "b"} {
			_, err := s.Add(ctx, product(id, 1))
			require.NoError(t, err)
		}
		assertLines(t, []line{{"a", 2}, {"b", 2}, {"c", 1}}, s.Items())
	})

	t.Run("InvalidInputLeavesCartUntouched", func(t *testing.T) {
		ctx := t.Context()
		storage := newMemStorage()
		s := newStore(t, storage)
		_, err := s.AddItem(ctx, product("p1", 10), 2)
		require.NoError(t, err)
		setsBefore := storage.sets

		_, err = s.Add(ctx, domain.ProductRef{Name: "no id", Price: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, cart.ErrInvalidProduct)

		_, err = s.Add(ctx, product("p2", 0))
		assert.ErrorIs(t, err, cart.ErrInvalidProduct)

		_, err = s.Add(ctx, product("p3", -4))
		assert.ErrorIs(t, err, cart.ErrInvalidProduct)

		_, err = s.AddItem(ctx, product("p1", 10), 0)
		assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

		_, err = s.AddItem(ctx, product("p1", 10), -3)
		assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

		assertLines(t, []line{{"p1", 2}}, s.Items())
		assert.Equal(t, setsBefore, storage.sets)
	})
}

func TestStoreRemoveItem(t *testing.T) {
	t.Run("UnknownIDIsNoop", func(t *testing.T) {
		ctx := t.Context()
		s := newStore(t, newMemStorage())
		_, err := s.AddItem(ctx, product("p1", 10), 2)
		require.NoError(t, err)

		snap := s.RemoveItem(ctx, "missing")
		assertLines(t, []line{{"p1", 2}}, snap.Items)

		snap = s.RemoveItem(ctx, "")
		assertLines(t, []line{{"p1", 2}}, snap.Items)
	})

	t.Run("RemovesOnlyThatLine", func(t *testing.T) {
		ctx := t.Context()
		s := newStore(t, newMemStorage())
		for _, id := range []string{"a", "b", "c"} {
			_, err := s.Add(ctx, product(id, 2))
			require.NoError(t, err)
		}

		snap := s.RemoveItem(ctx, "b")
		assertLines(t, []line{{"a", 1}, {"c", 1}}, snap.Items)
		assertAmount(t, 4, snap.TotalAmount)
	})
}

func TestStoreUpdateQuantity(t *testing.T) {
	for _, q := range []int{0, -1} {
		ctx := t.Context()
		byUpdate := newStore(t, newMemStorage())
		byRemove := newStore(t, newMemStorage())
		for _, s := range []*cart.Store{byUpdate, byRemove} {
			_, err := s.AddItem(ctx, product("p1", 10), 3)
			require.NoError(t, err)
			_, err = s.Add(ctx, product("p2", 1))
			require.NoError(t, err)
		}

		got := byUpdate.UpdateQuantity(ctx, "p1", q)
		want := byRemove.RemoveItem(ctx, "p1")
		assert.Equal(t, want.Items, got.Items, "quantity %d", q)
		assertLines(t, []line{{"p2", 1}}, got.Items)
	}

	t.Run("SetsOnlyThatLine", func(t *testing.T) {
		ctx := t.Context()
		s := newStore(t, newMemStorage())
		_, err := s.AddItem(ctx, product("p1", 10), 3)
		require.NoError(t, err)
		_, err = s.Add(ctx, product("p2", 5))
		require.NoError(t, err)

		snap := s.UpdateQuantity(ctx, "p2", 4)
		assertLines(t, []line{{"p1", 3}, {"p2", 4}}, snap.Items)
		assert.Equal(t, 7, snap.TotalItems)
		assertAmount(t, 50, snap.TotalAmount)
	})

	t.Run("UnknownIDIsNoop", func(t *testing.T) {
		ctx := t.Context()
		s := newStore(t, newMemStorage())
		_, err := s.Add(ctx, product("p1", 10))
		require.NoError(t, err)

		snap := s.UpdateQuantity(ctx, "missing", 5)
		assertLines(t, []line{{"p1", 1}}, snap.Items)
	})
}

func TestStoreAggregates(t *testing.T) {
	ctx := t.Context()
	s := newStore(t, newMemStorage())
	rnd := rand.New(rand.NewPCG(7, 11))
	ids := []string{"a", "b", "c", "d"}
	prices := map[string]int64{"a": 3, "b": 7, "c": 11, "d": 13}

	for range 500 {
		id := ids[rnd.IntN(len(ids))]
		switch rnd.IntN(4) {
		case 0, 1:
			_, err := s.AddItem(ctx, product(id, prices[id]), rnd.IntN(5)+1)
			require.NoError(t, err)
		case 2:
			s.UpdateQuantity(ctx, id, rnd.IntN(6)-1)
		case 3:
			s.RemoveItem(ctx, id)
		}

		items := s.Items()
		var wantItems int
		var wantAmount int64
		for _, li := range items {
			wantItems += li.Quantity
			wantAmount += prices[li.Product.ID] * int64(li.Quantity)
		}
		require.Equal(t, wantItems, s.TotalItems())
		require.True(t, decimal.NewFromInt(wantAmount).Equal(s.Total()))
	}
}

func TestStoreItemsIsACopy(t *testing.T) {
	ctx := t.Context()
	s := newStore(t, newMemStorage())
	_, err := s.AddItem(ctx, product("p1", 10), 2)
	require.NoError(t, err)

	items := s.Items()
	items[0].Quantity = 100

	assertLines(t, []line{{"p1", 2}}, s.Items())
}

func TestStorePersistence(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		ctx := t.Context()
		storage := newMemStorage()
		s := newStore(t, storage)
		_, err := s.AddItem(ctx, product("p2", 5), 4)
		require.NoError(t, err)
		_, err = s.AddItem(ctx, product("p1", 10), 2)
		require.NoError(t, err)
		_, err = s.Add(ctx, product("p3", 1))
		require.NoError(t, err)

		reloaded := newStore(t, storage)
		assert.Equal(t, s.Items(), reloaded.Items())
		assert.Equal(t, s.TotalItems(), reloaded.TotalItems())
		assert.True(t, s.Total().Equal(reloaded.Total()))
	})

	t.Run("EveryMutationWritesSnapshot", func(t *testing.T) {
		ctx := t.Context()
		storage := newMemStorage()
		s := newStore(t, storage)

		_, err := s.Add(ctx, product("p1", 10))
		require.NoError(t, err)
		s.UpdateQuantity(ctx, "p1", 3)
		s.RemoveItem(ctx, "p1")
		s.Clear(ctx)

		assert.Equal(t, 4, storage.sets)
		v, ok, _ := storage.Get(ctx, testKey)
		require.True(t, ok)
		assert.Equal(t, "[]", v)
	})

	t.Run("MalformedSnapshotFallsBackToEmpty", func(t *testing.T) {
		for _, data := range []string{
			"{not json",
			`{"id":"p1"}`,
			`[{"id":"","price":"1","quantity":1}]`,
			`[{"id":"p1","price":"1","quantity":0}]`,
			`[{"id":"p1","price":"1","quantity":1},{"id":"p1","price":"1","quantity":2}]`,
		} {
			storage := newMemStorage()
			storage.data[testKey] = data

			var s *cart.Store
			require.NotPanics(t, func() { s = newStore(t, storage) })
			assert.Empty(t, s.Items(), data)
			assert.Equal(t, 0, s.TotalItems())
		}
	})

	t.Run("NullSnapshotIsEmpty", func(t *testing.T) {
		storage := newMemStorage()
		storage.data[testKey] = "null"
		assert.Empty(t, newStore(t, storage).Items())
	})

	t.Run("StorageFailuresKeepInMemoryState", func(t *testing.T) {
		ctx := t.Context()
		storage := new(MockStorage)
		storage.On("Get", mock.Anything, testKey).
			Return("", false, errors.New("connection refused"))
		storage.On("Set", mock.Anything, testKey, mock.Anything).
			Return(errors.New("quota exceeded"))

		s := cart.New(ctx, cart.Config{Key: testKey, Storage: storage})
		snap, err := s.AddItem(ctx, product("p1", 10), 2)
		require.NoError(t, err)
		assertLines(t, []line{{"p1", 2}}, snap.Items)

		snap = s.UpdateQuantity(ctx, "p1", 5)
		assertLines(t, []line{{"p1", 5}}, snap.Items)
		storage.AssertNumberOfCalls(t, "Set", 2)
	})
}

func TestStoreSettle(t *testing.T) {
	t.Run("KeepsUnpaidRemainder", func(t *testing.T) {
		ctx := t.Context()
		storage := newMemStorage()
		s := newStore(t, storage)

		_, err := s.AddItem(ctx, product("p1", 10), 2)
		require.NoError(t, err)
		paid := s.Snapshot().Items

		_, err = s.Add(ctx, product("p1", 10))
		require.NoError(t, err)
		_, err = s.Add(ctx, product("p2", 5))
		require.NoError(t, err)

		snap := s.Settle(ctx, paid)
		assertLines(t, []line{{"p1", 1}, {"p2", 1}}, snap.Items)
		assertAmount(t, 15, snap.TotalAmount)

		reopened := newStore(t, storage)
		assertLines(t, []line{{"p1", 1}, {"p2", 1}}, reopened.Items())
	})

	t.Run("EmptiesWhenNothingChanged", func(t *testing.T) {
		ctx := t.Context()
		notifier := new(recordingNotifier)
		s := cart.New(ctx, cart.Config{
			Key: testKey, Storage: newMemStorage(), Notifier: notifier,
		})

		_, err := s.AddItem(ctx, product("p1", 10), 2)
		require.NoError(t, err)

		snap := s.Settle(ctx, s.Snapshot().Items)
		assert.Empty(t, snap.Items)
		require.Len(t, notifier.notices, 2)
		assert.Equal(t, "Cart cleared", notifier.notices[1].Title)
	})

	t.Run("RemovedLineIsSkipped", func(t *testing.T) {
		ctx := t.Context()
		notifier := new(recordingNotifier)
		s := cart.New(ctx, cart.Config{
			Key: testKey, Storage: newMemStorage(), Notifier: notifier,
		})

		_, err := s.AddItem(ctx, product("p1", 10), 2)
		require.NoError(t, err)
		paid := s.Snapshot().Items
		s.RemoveItem(ctx, "p1")
		_, err = s.Add(ctx, product("p2", 5))
		require.NoError(t, err)

		snap := s.Settle(ctx, paid)
		assertLines(t, []line{{"p2", 1}}, snap.Items)
		last := notifier.notices[len(notifier.notices)-1]
		assert.Equal(t, domain.NoticeInfo, last.Kind)
		assert.Equal(t, "Cart updated", last.Title)
	})
}

// readingNotifier reads the store back while delivering a notice.
type readingNotifier struct {
	store *cart.Store
	seen  []int
}

func (n *readingNotifier) Notify(context.Context, domain.Notice) error {
	n.seen = append(n.seen, n.store.TotalItems())
	return nil
}

func TestStoreNotifiesOutsideLock(t *testing.T) {
	ctx := t.Context()
	notifier := new(readingNotifier)
	s := cart.New(ctx, cart.Config{
		Key: testKey, Storage: newMemStorage(), Notifier: notifier,
	})
	notifier.store = s

	_, err := s.AddItem(ctx, product("p1", 10), 2)
	require.NoError(t, err)
	s.RemoveItem(ctx, "p1")
	s.Clear(ctx)

	assert.Equal(t, []int{2, 0, 0}, notifier.seen)
}

func TestStoreNotices(t *testing.T) {
	ctx := t.Context()
	notifier := new(recordingNotifier)
	s := cart.New(ctx, cart.Config{
		Key:       testKey,
		SessionID: "s1",
		Storage:   newMemStorage(),
		Notifier:  notifier,
	})

	_, err := s.Add(ctx, product("p1", 10))
	require.NoError(t, err)
	s.UpdateQuantity(ctx, "p1", 2)
	s.UpdateQuantity(ctx, "p1", 0)
	s.Clear(ctx)

	require.Len(t, notifier.notices, 3)
	assert.Equal(t, domain.NoticeSuccess, notifier.notices[0].Kind)
	assert.Contains(t, notifier.notices[0].Body, "product p1")
	assert.Equal(t, domain.NoticeInfo, notifier.notices[1].Kind)
	assert.Equal(t, "Product removed", notifier.notices[1].Title)
	assert.Equal(t, domain.NoticeInfo, notifier.notices[2].Kind)
	assert.Equal(t, "Cart cleared", notifier.notices[2].Title)
	for _, n := range notifier.notices {
		assert.Equal(t, "s1", n.SessionID)
	}

	t.Run("FailingNotifierDoesNotFailMutation", func(t *testing.T) {
		notifier := &recordingNotifier{err: errors.New("unreachable")}
		s := cart.New(ctx, cart.Config{
			Key: testKey, Storage: newMemStorage(), Notifier: notifier,
		})
		snap, err := s.Add(ctx, product("p1", 10))
		require.NoError(t, err)
		assertLines(t, []line{{"p1", 1}}, snap.Items)
	})
}

func TestStoreConcurrentAdds(t *testing.T) {
	ctx := t.Context()
	s := newStore(t, newMemStorage())

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			_, err := s.Add(ctx, product("p1", 2))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assertLines(t, []line{{"p1", n}}, s.Items())
	assertAmount(t, 2*n, s.Total())
}

func TestNewPanicsWithoutStorage(t *testing.T) {
	assert.Panics(t, func() {
		cart.New(context.Background(), cart.Config{Key: testKey})
	})
}
