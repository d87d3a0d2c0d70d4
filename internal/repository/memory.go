package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/tempizhere/goredirect/internal/models"
)

// MemoryStore реализует все интерфейсы хранилищ в памяти.
// Используется в тестах и при запуске без настроенной базы данных.
type MemoryStore struct {
	mu       sync.RWMutex
	slugs    map[string]models.SlugRef          // slug -> идентичность
	links    map[string]models.Link             // user_id + "/" + link_id -> запись
	events   map[string][]models.ClickEvent     // link_id + "#" + month_key -> события
	counters map[string]models.AggregateCounter // scope_id + "#" + kind -> счётчик
}

// NewMemoryStore создаёт новый экземпляр MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slugs:    make(map[string]models.SlugRef),
		links:    make(map[string]models.Link),
		events:   make(map[string][]models.ClickEvent),
		counters: make(map[string]models.AggregateCounter),
	}
}

func linkKey(userID, linkID string) string {
	return userID + "/" + linkID
}

// SaveLink сохраняет slug-индекс и полную запись ссылки
func (s *MemoryStore) SaveLink(link models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, exists := s.slugs[link.Slug]; exists {
		if full, ok := s.links[linkKey(ref.UserID, ref.LinkID)]; ok && !full.DeletedFlag {
			return ErrSlugExists
		}
	}
	s.slugs[link.Slug] = models.SlugRef{Slug: link.Slug, LinkID: link.LinkID, UserID: link.UserID}
	s.links[linkKey(link.UserID, link.LinkID)] = link
	return nil
}

// GetSlugRef возвращает запись slug-индекса
func (s *MemoryStore) GetSlugRef(slug string) (models.SlugRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, exists := s.slugs[slug]
	return ref, exists
}

// GetLink возвращает полную запись ссылки
func (s *MemoryStore) GetLink(userID, linkID string) (models.Link, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, exists := s.links[linkKey(userID, linkID)]
	return link, exists
}

// GetLinksByUserID возвращает все не удалённые ссылки пользователя
func (s *MemoryStore) GetLinksByUserID(userID string) ([]models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []models.Link
	for _, link := range s.links {
		if link.UserID == userID && !link.DeletedFlag {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Slug < links[j].Slug })
	return links, nil
}

// BatchDelete помечает ссылки пользователя как удалённые
func (s *MemoryStore) BatchDelete(userID string, slugs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slug := range slugs {
		ref, exists := s.slugs[slug]
		if !exists || ref.UserID != userID {
			continue
		}
		key := linkKey(ref.UserID, ref.LinkID)
		if link, ok := s.links[key]; ok {
			link.DeletedFlag = true
			link.UpdatedAt = time.Now()
			s.links[key] = link
		}
	}
	return nil
}

// IncrementClickCount увеличивает счётчик кликов на записи ссылки
func (s *MemoryStore) IncrementClickCount(userID, linkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := linkKey(userID, linkID)
	link, exists := s.links[key]
	if !exists {
		return nil
	}
	link.ClickCount++
	s.links[key] = link
	return nil
}

// Stats возвращает количество ссылок и уникальных пользователей
func (s *MemoryStore) Stats() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]struct{})
	links := 0
	for _, link := range s.links {
		if link.DeletedFlag {
			continue
		}
		links++
		users[link.UserID] = struct{}{}
	}
	return links, len(users), nil
}

// AppendEvent дописывает событие клика в партицию ссылки и месяца
func (s *MemoryStore) AppendEvent(event models.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := event.LinkID + "#" + event.MonthKey
	s.events[key] = append(s.events[key], event)
	return nil
}

// EventsByLinkMonth возвращает события ссылки за месяц, упорядоченные
// по времени и идентификатору события
func (s *MemoryStore) EventsByLinkMonth(linkID, monthKey string) ([]models.ClickEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]models.ClickEvent, len(s.events[linkID+"#"+monthKey]))
	copy(events, s.events[linkID+"#"+monthKey])
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].EventID < events[j].EventID
	})
	return events, nil
}

// Increment атомарно увеличивает счётчик, создавая его при первом обращении
func (s *MemoryStore) Increment(scopeID string, kind models.AggregateKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopeID + "#" + string(kind)
	counter, exists := s.counters[key]
	if !exists {
		counter = models.AggregateCounter{ScopeID: scopeID, Kind: kind}
	}
	counter.Clicks++
	counter.LastUpdated = time.Now()
	s.counters[key] = counter
	return nil
}

// Get возвращает счётчик по ключу
func (s *MemoryStore) Get(scopeID string, kind models.AggregateKind) (models.AggregateCounter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counter, exists := s.counters[scopeID+"#"+string(kind)]
	return counter, exists
}

// Clear очищает все данные в хранилище
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slugs = make(map[string]models.SlugRef)
	s.links = make(map[string]models.Link)
	s.events = make(map[string][]models.ClickEvent)
	s.counters = make(map[string]models.AggregateCounter)
}
