// Package app содержит HTTP-обработчики сервиса редиректов.
package app

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tempizhere/goredirect/internal/middleware"
	"github.com/tempizhere/goredirect/internal/models"
	"github.com/tempizhere/goredirect/internal/repository"
	"github.com/tempizhere/goredirect/internal/service"
	"go.uber.org/zap"
)

// ClickSink принимает события кликов для асинхронной записи
type ClickSink interface {
	Record(click models.Click)
}

// CreateLinkRequest описывает тело запроса создания ссылки
type CreateLinkRequest struct {
	DestinationURL string `json:"destination_url"`
	Slug           string `json:"slug,omitempty"`
	PrivacyMode    bool   `json:"privacy_mode,omitempty"`
	RedirectKind   string `json:"redirect_kind,omitempty"`
	ExpiresAt      string `json:"expires_at,omitempty"`
}

// LinkResponse описывает представление ссылки в ответах API
type LinkResponse struct {
	LinkID         string `json:"link_id"`
	Slug           string `json:"slug"`
	ShortURL       string `json:"short_url"`
	DestinationURL string `json:"destination_url"`
	Enabled        bool   `json:"enabled"`
	PrivacyMode    bool   `json:"privacy_mode"`
	ClickCount     int64  `json:"click_count"`
}

// InternalStatsResponse описывает ответ служебного эндпоинта статистики
type InternalStatsResponse struct {
	LinksCount int `json:"links_count"`
	UsersCount int `json:"users_count"`
}

// App содержит хендлеры и зависимости
type App struct {
	svc       *service.Service
	resolver  *service.Resolver
	recorder  ClickSink
	db        repository.Database
	logger    *zap.Logger
	geoHeader string
}

// NewApp создаёт новое приложение
func NewApp(svc *service.Service, resolver *service.Resolver, recorder ClickSink, db repository.Database, logger *zap.Logger, geoHeader string) *App {
	return &App{
		svc:       svc,
		resolver:  resolver,
		recorder:  recorder,
		db:        db,
		logger:    logger,
		geoHeader: geoHeader,
	}
}

// HandleRedirect обрабатывает GET-запросы на "/{slug}": резолвит ссылку,
// проверяет политику, отвечает редиректом и ставит клик в очередь записи.
// Ответ не ждёт записи аналитики.
func (a *App) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		writeHTMLError(w, http.StatusBadRequest, "Bad Request", "The requested address is missing a link identifier.")
		return
	}

	link, exists := a.resolver.Resolve(slug)
	if !exists {
		writeHTMLError(w, http.StatusNotFound, "Link Not Found", "The short link you followed does not exist.")
		return
	}

	decision := service.Evaluate(link, time.Now())
	switch decision.Outcome {
	case service.OutcomeDisabled:
		writeHTMLError(w, http.StatusGone, "Link Disabled", "This short link has been disabled by its owner.")
		return
	case service.OutcomeExpired:
		writeHTMLError(w, http.StatusGone, "Link Expired", "This short link has expired.")
		return
	case service.OutcomeMissingDestination:
		a.logger.Error("Link record has no destination URL",
			zap.String("slug", slug), zap.String("link_id", link.LinkID))
		writeHTMLError(w, http.StatusInternalServerError, "Server Error", "This short link is misconfigured.")
		return
	}

	// Решение редиректа не кэшируется
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Location", link.DestinationURL)
	w.WriteHeader(decision.StatusCode)

	if !decision.PrivacyMode {
		a.recorder.Record(models.Click{
			Link:      link,
			Referrer:  referrer(r),
			UserAgent: r.Header.Get("User-Agent"),
			Country:   service.NormalizeCountry(r.Header.Get(a.geoHeader)),
			IPHash:    service.HashIP(clientIP(r)),
			At:        time.Now(),
		})
	}
}

// HandleCreateLink обрабатывает POST-запросы на "/api/links"
func (a *App) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var reqBody CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	link, err := a.svc.CreateLink(userID, service.CreateLinkParams{
		DestinationURL: reqBody.DestinationURL,
		Slug:           reqBody.Slug,
		PrivacyMode:    reqBody.PrivacyMode,
		RedirectKind:   models.RedirectKind(reqBody.RedirectKind),
		ExpiresAt:      reqBody.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			http.Error(w, "Slug already exists", http.StatusConflict)
			return
		}
		if errors.Is(err, service.ErrEmptyDestination) || errors.Is(err, service.ErrInvalidDestination) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a.writeJSONResponse(w, http.StatusCreated, a.linkResponse(link))
}

// HandleListLinks обрабатывает GET-запросы на "/api/links"
func (a *App) HandleListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	links, err := a.svc.GetLinksByUserID(userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if len(links) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]LinkResponse, len(links))
	for i, link := range links {
		resp[i] = a.linkResponse(link)
	}
	a.writeJSONResponse(w, http.StatusOK, resp)
}

// HandleBatchDelete обрабатывает DELETE-запросы на "/api/links"
func (a *App) HandleBatchDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var slugs []string
	if err := json.NewDecoder(r.Body).Decode(&slugs); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(slugs) == 0 {
		http.Error(w, "Empty batch", http.StatusBadRequest)
		return
	}

	a.svc.BatchDeleteAsync(userID, slugs)
	w.WriteHeader(http.StatusAccepted)
}

// HandleLinkStats обрабатывает GET-запросы на "/api/links/{slug}/stats"
func (a *App) HandleLinkStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	slug := chi.URLParam(r, "slug")
	stats, err := a.svc.GetLinkStats(userID, slug, time.Now())
	if err != nil {
		// Чужая ссылка не отличается от несуществующей
		if errors.Is(err, service.ErrLinkNotFound) || errors.Is(err, service.ErrNotOwner) {
			http.Error(w, "Link not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, stats)
}

// HandleInternalStats обрабатывает GET-запросы на "/api/internal/stats"
func (a *App) HandleInternalStats(w http.ResponseWriter, r *http.Request) {
	links, users, err := a.svc.GetStats()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, InternalStatsResponse{
		LinksCount: links,
		UsersCount: users,
	})
}

// HandlePing обрабатывает GET-запросы на "/ping"
func (a *App) HandlePing(w http.ResponseWriter, r *http.Request) {
	if a.db == nil {
		http.Error(w, "Database not configured", http.StatusInternalServerError)
		return
	}
	if err := a.db.Ping(); err != nil {
		http.Error(w, "Database connection failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// linkResponse собирает представление ссылки для API
func (a *App) linkResponse(link models.Link) LinkResponse {
	return LinkResponse{
		LinkID:         link.LinkID,
		Slug:           link.Slug,
		ShortURL:       a.svc.ShortURL(link.Slug),
		DestinationURL: link.DestinationURL,
		Enabled:        link.Enabled,
		PrivacyMode:    link.PrivacyMode,
		ClickCount:     link.ClickCount,
	}
}

// writeJSONResponse пишет JSON-ответ с проверкой ошибок
func (a *App) writeJSONResponse(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		a.logger.Error("Failed to write response", zap.Error(err))
	}
}

// referrer возвращает значение заголовка Referer с учётом обоих написаний
func referrer(r *http.Request) string {
	if ref := r.Header.Get("Referer"); ref != "" {
		return ref
	}
	return r.Header.Get("Referrer")
}

// clientIP возвращает IP клиента: X-Real-IP, иначе адрес соединения
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
