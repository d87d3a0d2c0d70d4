package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/goredirect/internal/models"
	"github.com/tempizhere/goredirect/internal/repository"
	"go.uber.org/zap"
)

// failingEventStore всегда возвращает ошибку на запись события
type failingEventStore struct{}

func (failingEventStore) AppendEvent(models.ClickEvent) error { return errors.New("disk full") }
func (failingEventStore) EventsByLinkMonth(string, string) ([]models.ClickEvent, error) {
	return nil, nil
}

// panickingEventStore паникует на запись события
type panickingEventStore struct{}

func (panickingEventStore) AppendEvent(models.ClickEvent) error { panic("boom") }
func (panickingEventStore) EventsByLinkMonth(string, string) ([]models.ClickEvent, error) {
	return nil, nil
}

func testClick(at time.Time) models.Click {
	return models.Click{
		Link: models.Link{
			LinkID:         "link-1",
			UserID:         "user-1",
			Slug:           "promo",
			DestinationURL: "https://example.com",
			Enabled:        true,
		},
		Referrer:  "https://referrer.example",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) Mobile/15E148",
		Country:   "DE",
		IPHash:    "abcdef0123456789",
		At:        at,
	}
}

func TestRecorder_Record_WriteSet(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.SaveLink(testClick(time.Time{}).Link))

	at := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	recorder := NewRecorder(store, store, store, zap.NewNop(), 2, 16)
	recorder.Record(testClick(at))
	recorder.Close()

	// Одно событие в партиции ссылки и месяца
	events, err := store.EventsByLinkMonth("link-1", "2024-06")
	require.NoError(t, err)
	require.Len(t, events, 1)
	event := events[0]
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "link-1", event.LinkID)
	assert.Equal(t, "promo", event.Slug)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, at.UnixMilli(), event.Timestamp)
	assert.Equal(t, "https://referrer.example", event.Referrer)
	assert.Equal(t, "DE", event.Country)
	assert.Equal(t, models.DeviceMobile, event.Device)
	assert.Equal(t, at.Add(eventRetention), event.ExpiresAt)

	// Три агрегатных счётчика, каждый со значением 1
	daily, ok := store.Get("link-1#2024-06-15", models.AggregateDaily)
	require.True(t, ok)
	assert.Equal(t, int64(1), daily.Clicks)

	total, ok := store.Get("link-1", models.AggregateTotal)
	require.True(t, ok)
	assert.Equal(t, int64(1), total.Clicks)

	monthly, ok := store.Get("user-1#2024-06", models.AggregateMonthly)
	require.True(t, ok)
	assert.Equal(t, int64(1), monthly.Clicks)

	// Счётчик кликов на самой записи ссылки
	link, ok := store.GetLink("user-1", "link-1")
	require.True(t, ok)
	assert.Equal(t, int64(1), link.ClickCount)
}

func TestRecorder_Record_Concurrent(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.SaveLink(testClick(time.Time{}).Link))

	const clicks = 50
	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	recorder := NewRecorder(store, store, store, zap.NewNop(), 4, clicks)

	var wg sync.WaitGroup
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Record(testClick(at))
		}()
	}
	wg.Wait()
	recorder.Close()

	// Ни один инкремент не потерян при конкурентной записи
	total, ok := store.Get("link-1", models.AggregateTotal)
	require.True(t, ok)
	assert.Equal(t, int64(clicks), total.Clicks)

	link, ok := store.GetLink("user-1", "link-1")
	require.True(t, ok)
	assert.Equal(t, int64(clicks), link.ClickCount)

	events, err := store.EventsByLinkMonth("link-1", "2024-06")
	require.NoError(t, err)
	assert.Len(t, events, clicks)
}

func TestRecorder_Record_FailureIsolation(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.SaveLink(testClick(time.Time{}).Link))

	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	recorder := NewRecorder(failingEventStore{}, store, store, zap.NewNop(), 1, 4)
	recorder.Record(testClick(at))
	recorder.Close()

	// Отказ журнала событий не мешает счётчикам
	total, ok := store.Get("link-1", models.AggregateTotal)
	require.True(t, ok)
	assert.Equal(t, int64(1), total.Clicks)

	daily, ok := store.Get("link-1#2024-06-15", models.AggregateDaily)
	require.True(t, ok)
	assert.Equal(t, int64(1), daily.Clicks)

	link, ok := store.GetLink("user-1", "link-1")
	require.True(t, ok)
	assert.Equal(t, int64(1), link.ClickCount)
}

func TestRecorder_Record_PanicIsolation(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.SaveLink(testClick(time.Time{}).Link))

	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	recorder := NewRecorder(panickingEventStore{}, store, store, zap.NewNop(), 1, 4)
	recorder.Record(testClick(at))
	recorder.Record(testClick(at))
	recorder.Close()

	// Паника одной записи не роняет воркера и не мешает следующим кликам
	total, ok := store.Get("link-1", models.AggregateTotal)
	require.True(t, ok)
	assert.Equal(t, int64(2), total.Clicks)
}

func TestRecorder_Record_QueueOverflow(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.SaveLink(testClick(time.Time{}).Link))

	recorder := &Recorder{
		events:   store,
		counters: store,
		links:    store,
		logger:   zap.NewNop(),
		queue:    make(chan models.Click, 1),
	}

	// Воркеры не запущены: второй клик не помещается и отбрасывается
	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	recorder.Record(testClick(at))
	recorder.Record(testClick(at))
	assert.Len(t, recorder.queue, 1)

	recorder.wg.Add(1)
	go recorder.worker()
	recorder.Close()

	total, ok := store.Get("link-1", models.AggregateTotal)
	require.True(t, ok)
	assert.Equal(t, int64(1), total.Clicks)
}
