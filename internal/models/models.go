// Package models содержит доменные типы сервиса редиректов.
package models

import "time"

// RedirectKind определяет тип HTTP-редиректа для ссылки
type RedirectKind string

const (
	// RedirectPermanent соответствует HTTP 301
	RedirectPermanent RedirectKind = "permanent"
	// RedirectTemporary соответствует HTTP 302
	RedirectTemporary RedirectKind = "temporary"
)

// DeviceClass определяет класс устройства, вычисленный по User-Agent
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceBot     DeviceClass = "bot"
	DeviceUnknown DeviceClass = "unknown"
)

// AggregateKind определяет тип денормализованного счётчика кликов
type AggregateKind string

const (
	// AggregateDaily считает клики по ссылке за один день (UTC)
	AggregateDaily AggregateKind = "daily"
	// AggregateTotal считает клики по ссылке за всё время
	AggregateTotal AggregateKind = "total"
	// AggregateMonthly считает клики по всем ссылкам пользователя за месяц
	AggregateMonthly AggregateKind = "monthly"
)

// Link представляет правило сокращения: slug, адрес назначения и политика редиректа
type Link struct {
	LinkID         string       `json:"link_id"`
	UserID         string       `json:"user_id"`
	Slug           string       `json:"slug"`
	DestinationURL string       `json:"destination_url"`
	Enabled        bool         `json:"enabled"`
	PrivacyMode    bool         `json:"privacy_mode"`
	RedirectKind   RedirectKind `json:"redirect_kind,omitempty"`
	// ExpiresAt хранится как исходная строка: unix-секунды, unix-миллисекунды
	// или ISO-8601. Нормализуется при проверке политики.
	ExpiresAt   string    `json:"expires_at,omitempty"`
	ClickCount  int64     `json:"click_count"`
	DeletedFlag bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SlugRef представляет запись slug-индекса: slug -> идентичность ссылки
type SlugRef struct {
	Slug   string `json:"slug"`
	LinkID string `json:"link_id"`
	UserID string `json:"user_id"`
}

// ClickEvent представляет одну неизменяемую запись о состоявшемся редиректе
type ClickEvent struct {
	EventID   string      `json:"event_id"`
	LinkID    string      `json:"link_id"`
	Slug      string      `json:"slug"`
	UserID    string      `json:"user_id"`
	MonthKey  string      `json:"month_key"`
	Timestamp int64       `json:"timestamp_ms"`
	Referrer  string      `json:"referrer,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	Country   string      `json:"country,omitempty"`
	Device    DeviceClass `json:"device"`
	IPHash    string      `json:"ip_hash,omitempty"`
	// ExpiresAt задаёт момент, после которого запись может быть удалена при очистке
	ExpiresAt time.Time `json:"expires_at"`
}

// AggregateCounter представляет денормализованный счётчик кликов
type AggregateCounter struct {
	ScopeID     string        `json:"scope_id"`
	Kind        AggregateKind `json:"kind"`
	Clicks      int64         `json:"clicks"`
	LastUpdated time.Time     `json:"last_updated"`
}

// Click представляет контекст одного клика, передаваемый рекордеру
type Click struct {
	Link      Link
	Referrer  string
	UserAgent string
	Country   string
	IPHash    string
	At        time.Time
}

// DayKey возвращает ключ дня в UTC в формате YYYY-MM-DD
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKey возвращает ключ месяца в UTC в формате YYYY-MM
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// DailyScopeID возвращает ключ суточного счётчика ссылки
func DailyScopeID(linkID string, t time.Time) string {
	return linkID + "#" + DayKey(t)
}

// TotalScopeID возвращает ключ счётчика ссылки за всё время
func TotalScopeID(linkID string) string {
	return linkID
}

// MonthlyScopeID возвращает ключ месячного счётчика пользователя
func MonthlyScopeID(userID string, t time.Time) string {
	return userID + "#" + MonthKey(t)
}
