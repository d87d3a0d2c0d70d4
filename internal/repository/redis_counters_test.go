package repository

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/goredirect/internal/models"
	"go.uber.org/zap"
)

func newRedisStore(t *testing.T) (*RedisCounterStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisCounterStore(mr.Addr(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisCounterStore_Increment(t *testing.T) {
	store, _ := newRedisStore(t)

	// Первый инкремент создаёт счётчик с нуля
	require.NoError(t, store.Increment("link-1", models.AggregateTotal))
	require.NoError(t, store.Increment("link-1", models.AggregateTotal))
	require.NoError(t, store.Increment("link-1#2024-06-15", models.AggregateDaily))

	total, ok := store.Get("link-1", models.AggregateTotal)
	require.True(t, ok)
	assert.Equal(t, int64(2), total.Clicks)
	assert.Equal(t, "link-1", total.ScopeID)
	assert.Equal(t, models.AggregateTotal, total.Kind)
	assert.False(t, total.LastUpdated.IsZero())

	daily, ok := store.Get("link-1#2024-06-15", models.AggregateDaily)
	require.True(t, ok)
	assert.Equal(t, int64(1), daily.Clicks)
}

func TestRedisCounterStore_Get_Missing(t *testing.T) {
	store, _ := newRedisStore(t)

	_, ok := store.Get("missing", models.AggregateTotal)
	assert.False(t, ok)
}

func TestRedisCounterStore_KindsAreIsolated(t *testing.T) {
	store, mr := newRedisStore(t)

	// Одинаковый scope_id у разных видов счётчиков даёт разные ключи
	require.NoError(t, store.Increment("link-1", models.AggregateTotal))
	require.NoError(t, store.Increment("link-1", models.AggregateDaily))

	total, ok := store.Get("link-1", models.AggregateTotal)
	require.True(t, ok)
	assert.Equal(t, int64(1), total.Clicks)

	assert.True(t, mr.Exists("agg:total:link-1"))
	assert.True(t, mr.Exists("agg:daily:link-1"))
}

func TestRedisCounterStore_Increment_AfterServerGone(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	err := store.Increment("link-1", models.AggregateTotal)
	assert.Error(t, err)

	_, ok := store.Get("link-1", models.AggregateTotal)
	assert.False(t, ok)
}
