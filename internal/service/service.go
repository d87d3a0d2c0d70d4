// Package service содержит бизнес-логику сервиса редиректов: резолвер slug,
// политику ссылок, рекордер кликов и операции управления ссылками.
package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/tempizhere/goredirect/internal/models"
	"github.com/tempizhere/goredirect/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrEmptyDestination   = errors.New("empty destination URL")
	ErrInvalidDestination = errors.New("invalid destination URL")
	ErrUniqueSlugFailed   = errors.New("failed to generate unique slug")
	ErrNotOwner           = errors.New("link belongs to another user")
	ErrLinkNotFound       = errors.New("link not found")
)

// Service реализует операции управления ссылками и выдачу токенов
type Service struct {
	links     repository.LinkRepository
	counters  repository.CounterRepository
	events    repository.ClickEventRepository
	baseURL   string
	jwtSecret string
	logger    *zap.Logger
}

// NewService создаёт новый экземпляр Service
func NewService(links repository.LinkRepository, counters repository.CounterRepository, events repository.ClickEventRepository, baseURL, jwtSecret string, logger *zap.Logger) *Service {
	return &Service{
		links:     links,
		counters:  counters,
		events:    events,
		baseURL:   baseURL,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// CreateLinkParams содержит параметры создания ссылки
type CreateLinkParams struct {
	DestinationURL string
	Slug           string
	PrivacyMode    bool
	RedirectKind   models.RedirectKind
	ExpiresAt      string
}

// GenerateSlug генерирует короткий slug
func (s *Service) GenerateSlug() (string, error) {
	bytes := make([]byte, 8)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	encoded := base64.URLEncoding.EncodeToString(bytes)
	return encoded[:8], nil
}

// CreateLink создаёт ссылку. Пустой slug в параметрах означает
// автогенерацию, занятый пользовательский slug возвращает ErrSlugExists.
func (s *Service) CreateLink(userID string, params CreateLinkParams) (models.Link, error) {
	destination := strings.TrimSpace(params.DestinationURL)
	if destination == "" {
		return models.Link{}, ErrEmptyDestination
	}
	parsed, err := url.ParseRequestURI(destination)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return models.Link{}, ErrInvalidDestination
	}

	link := models.Link{
		LinkID:         uuid.NewString(),
		UserID:         userID,
		DestinationURL: destination,
		Enabled:        true,
		PrivacyMode:    params.PrivacyMode,
		RedirectKind:   params.RedirectKind,
		ExpiresAt:      params.ExpiresAt,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if params.Slug != "" {
		link.Slug = params.Slug
		if err := s.links.SaveLink(link); err != nil {
			return models.Link{}, err
		}
		return link, nil
	}

	for i := 0; i < 5; i++ {
		slug, err := s.GenerateSlug()
		if err != nil {
			return models.Link{}, err
		}
		link.Slug = slug
		err = s.links.SaveLink(link)
		if err == nil {
			return link, nil
		}
		if errors.Is(err, repository.ErrSlugExists) {
			continue
		}
		return models.Link{}, err
	}
	return models.Link{}, ErrUniqueSlugFailed
}

// ShortURL возвращает полный короткий URL для slug
func (s *Service) ShortURL(slug string) string {
	return strings.TrimRight(s.baseURL, "/") + "/" + slug
}

// GetLinksByUserID возвращает все ссылки пользователя
func (s *Service) GetLinksByUserID(userID string) ([]models.Link, error) {
	return s.links.GetLinksByUserID(userID)
}

// BatchDeleteAsync помечает ссылки пользователя удалёнными в фоне.
// Ошибка удаления логируется и не возвращается вызывающему.
func (s *Service) BatchDeleteAsync(userID string, slugs []string) {
	go func() {
		if err := s.links.BatchDelete(userID, slugs); err != nil {
			s.logger.Error("Failed to batch delete links",
				zap.String("user_id", userID), zap.Int("count", len(slugs)), zap.Error(err))
		}
	}()
}

// LinkStats содержит показания счётчиков одной ссылки
type LinkStats struct {
	Slug            string `json:"slug"`
	ClickCount      int64  `json:"click_count"`
	TotalClicks     int64  `json:"total_clicks"`
	TodayClicks     int64  `json:"today_clicks"`
	UserMonthClicks int64  `json:"user_month_clicks"`
	MonthEvents     int    `json:"month_events"`
}

// GetLinkStats возвращает агрегаты ссылки. Ссылка должна принадлежать
// запрашивающему пользователю.
func (s *Service) GetLinkStats(userID, slug string, now time.Time) (LinkStats, error) {
	ref, exists := s.links.GetSlugRef(slug)
	if !exists {
		return LinkStats{}, ErrLinkNotFound
	}
	if ref.UserID != userID {
		return LinkStats{}, ErrNotOwner
	}
	link, exists := s.links.GetLink(ref.UserID, ref.LinkID)
	if !exists || link.DeletedFlag {
		return LinkStats{}, ErrLinkNotFound
	}

	stats := LinkStats{
		Slug:       slug,
		ClickCount: link.ClickCount,
	}
	if counter, ok := s.counters.Get(models.TotalScopeID(link.LinkID), models.AggregateTotal); ok {
		stats.TotalClicks = counter.Clicks
	}
	if counter, ok := s.counters.Get(models.DailyScopeID(link.LinkID, now), models.AggregateDaily); ok {
		stats.TodayClicks = counter.Clicks
	}
	if counter, ok := s.counters.Get(models.MonthlyScopeID(userID, now), models.AggregateMonthly); ok {
		stats.UserMonthClicks = counter.Clicks
	}
	events, err := s.events.EventsByLinkMonth(link.LinkID, models.MonthKey(now))
	if err != nil {
		return LinkStats{}, err
	}
	stats.MonthEvents = len(events)
	return stats, nil
}

// GetStats возвращает количество ссылок и пользователей сервиса
func (s *Service) GetStats() (int, int, error) {
	return s.links.Stats()
}

// GenerateUserID генерирует новый идентификатор пользователя
func (s *Service) GenerateUserID() (string, error) {
	return uuid.NewString(), nil
}

// GenerateJWT создаёт подписанный токен с идентификатором пользователя
func (s *Service) GenerateJWT(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseJWT проверяет токен и возвращает идентификатор пользователя
func (s *Service) ParseJWT(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}
