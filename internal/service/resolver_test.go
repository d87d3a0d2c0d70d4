package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/goredirect/internal/models"
	"github.com/tempizhere/goredirect/internal/repository"
	"go.uber.org/zap"
)

// brokenIndexStore имитирует расхождение индекса: slug-запись есть,
// а полной записи ссылки нет
type brokenIndexStore struct {
	*repository.MemoryStore
}

func (s *brokenIndexStore) GetLink(userID, linkID string) (models.Link, bool) {
	return models.Link{}, false
}

func TestResolver_Resolve(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.SaveLink(models.Link{
		LinkID:         "link-1",
		UserID:         "user-1",
		Slug:           "promo",
		DestinationURL: "https://example.com/landing",
		Enabled:        true,
	}))

	resolver := NewResolver(store, zap.NewNop())

	t.Run("существующий slug", func(t *testing.T) {
		link, ok := resolver.Resolve("promo")
		require.True(t, ok)
		assert.Equal(t, "link-1", link.LinkID)
		assert.Equal(t, "user-1", link.UserID)
		assert.Equal(t, "https://example.com/landing", link.DestinationURL)
	})

	t.Run("неизвестный slug", func(t *testing.T) {
		_, ok := resolver.Resolve("missing")
		assert.False(t, ok)
	})
}

func TestResolver_Resolve_DeletedLink(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.SaveLink(models.Link{
		LinkID:         "link-1",
		UserID:         "user-1",
		Slug:           "old",
		DestinationURL: "https://example.com",
		Enabled:        true,
	}))
	require.NoError(t, store.BatchDelete("user-1", []string{"old"}))

	resolver := NewResolver(store, zap.NewNop())

	// Мягко удалённая ссылка недоступна для резолва
	_, ok := resolver.Resolve("old")
	assert.False(t, ok)
}

func TestResolver_Resolve_IndexDivergence(t *testing.T) {
	inner := repository.NewMemoryStore()
	require.NoError(t, inner.SaveLink(models.Link{
		LinkID:         "link-1",
		UserID:         "user-1",
		Slug:           "ghost",
		DestinationURL: "https://example.com",
		Enabled:        true,
	}))

	resolver := NewResolver(&brokenIndexStore{MemoryStore: inner}, zap.NewNop())

	// Индекс указывает на отсутствующую запись, это трактуется как промах
	_, ok := resolver.Resolve("ghost")
	assert.False(t, ok)
}
