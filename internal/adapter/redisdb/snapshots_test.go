package redisdb_test

import (
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/niksmo/storefront/internal/adapter/redisdb"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStorageGet(t *testing.T) {
	t.Run("Present", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := redisdb.NewSnapshotStorage(db)

		mock.ExpectGet("cart:s1").SetVal(`[{"id":"p1"}]`)

		v, ok, err := s.Get(t.Context(), "cart:s1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"id":"p1"}]`, v)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Absent", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := redisdb.NewSnapshotStorage(db)

		mock.ExpectGet("cart:s1").RedisNil()

		v, ok, err := s.Get(t.Context(), "cart:s1")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := redisdb.NewSnapshotStorage(db)

		mock.ExpectGet("cart:s1").SetErr(errors.New("connection refused"))

		_, ok, err := s.Get(t.Context(), "cart:s1")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestSnapshotStorageSet(t *testing.T) {
	fastRetry := retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.LinearBackoff(time.Millisecond),
	}

	t.Run("WritesWithTTL", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := redisdb.NewSnapshotStorage(db, redisdb.TTLOpt(time.Hour))

		mock.ExpectSet("cart:s1", "[]", time.Hour).SetVal("OK")

		require.NoError(t, s.Set(t.Context(), "cart:s1", "[]"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RetriesTransientFailure", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := redisdb.NewSnapshotStorage(db,
			redisdb.TTLOpt(0), redisdb.RetryOpt(fastRetry),
		)

		mock.ExpectSet("cart:s1", "[]", 0).SetErr(errors.New("loading"))
		mock.ExpectSet("cart:s1", "[]", 0).SetVal("OK")

		require.NoError(t, s.Set(t.Context(), "cart:s1", "[]"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GivesUp", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := redisdb.NewSnapshotStorage(db,
			redisdb.TTLOpt(0), redisdb.RetryOpt(fastRetry),
		)

		for range fastRetry.MaxAttempts {
			mock.ExpectSet("cart:s1", "[]", 0).SetErr(errors.New("OOM"))
		}

		assert.Error(t, s.Set(t.Context(), "cart:s1", "[]"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
