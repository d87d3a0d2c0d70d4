package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tempizhere/goredirect/internal/models"
	"github.com/tempizhere/goredirect/internal/repository"
	"go.uber.org/zap"
)

// eventRetention задаёт срок хранения сырых событий кликов
const eventRetention = 2 * 365 * 24 * time.Hour

// Recorder асинхронно записывает события кликов через буферизованную
// очередь и пул воркеров. Record не блокируется и не возвращает ошибок.
type Recorder struct {
	events   repository.ClickEventRepository
	counters repository.CounterRepository
	links    repository.LinkRepository
	logger   *zap.Logger
	queue    chan models.Click
	wg       sync.WaitGroup
}

// NewRecorder создаёт рекордер и запускает воркеров
func NewRecorder(events repository.ClickEventRepository, counters repository.CounterRepository, links repository.LinkRepository, logger *zap.Logger, workers, queueSize int) *Recorder {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	r := &Recorder{
		events:   events,
		counters: counters,
		links:    links,
		logger:   logger,
		queue:    make(chan models.Click, queueSize),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Record ставит клик в очередь. При переполненной очереди событие
// отбрасывается с записью в лог.
func (r *Recorder) Record(click models.Click) {
	select {
	case r.queue <- click:
	default:
		r.logger.Warn("Click queue is full, event dropped",
			zap.String("slug", click.Link.Slug),
			zap.String("link_id", click.Link.LinkID))
	}
}

// Close останавливает воркеров, дождавшись обработки всей очереди
func (r *Recorder) Close() {
	close(r.queue)
	r.wg.Wait()
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for click := range r.queue {
		r.process(click)
	}
}

// process выполняет пять независимых атомарных записей одного клика.
// Записи уходят параллельно, отказ любой из них не мешает остальным.
func (r *Recorder) process(click models.Click) {
	at := click.At
	if at.IsZero() {
		at = time.Now()
	}
	event := buildEvent(click, at)
	link := click.Link

	writes := []struct {
		name string
		fn   func() error
	}{
		{"append_event", func() error { return r.events.AppendEvent(event) }},
		{"daily_counter", func() error {
			return r.counters.Increment(models.DailyScopeID(link.LinkID, at), models.AggregateDaily)
		}},
		{"total_counter", func() error {
			return r.counters.Increment(models.TotalScopeID(link.LinkID), models.AggregateTotal)
		}},
		{"monthly_counter", func() error {
			return r.counters.Increment(models.MonthlyScopeID(link.UserID, at), models.AggregateMonthly)
		}},
		{"link_click_count", func() error { return r.links.IncrementClickCount(link.UserID, link.LinkID) }},
	}

	var wg sync.WaitGroup
	for _, write := range writes {
		wg.Add(1)
		go func(name string, fn func() error) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					r.logger.Error("Click write panicked",
						zap.String("write", name),
						zap.String("slug", link.Slug),
						zap.String("link_id", link.LinkID),
						zap.Any("panic", p))
				}
			}()
			if err := fn(); err != nil {
				r.logger.Error("Click write failed",
					zap.String("write", name),
					zap.String("slug", link.Slug),
					zap.String("link_id", link.LinkID),
					zap.Error(err))
			}
		}(write.name, write.fn)
	}
	wg.Wait()
}

// buildEvent собирает неизменяемое событие клика из контекста запроса
func buildEvent(click models.Click, at time.Time) models.ClickEvent {
	return models.ClickEvent{
		EventID:   uuid.NewString(),
		LinkID:    click.Link.LinkID,
		Slug:      click.Link.Slug,
		UserID:    click.Link.UserID,
		MonthKey:  models.MonthKey(at),
		Timestamp: at.UnixMilli(),
		Referrer:  click.Referrer,
		UserAgent: click.UserAgent,
		Country:   click.Country,
		Device:    ClassifyDevice(click.UserAgent),
		IPHash:    click.IPHash,
		ExpiresAt: at.Add(eventRetention),
	}
}
