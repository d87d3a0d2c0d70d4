// Package proto содержит определения типов для gRPC сервиса редиректов
package proto

// ResolveLinkRequest представляет запрос на резолв ссылки по slug
type ResolveLinkRequest struct {
	Slug string `json:"slug"`
}

// ResolveLinkResponse представляет результат резолва и проверки политики
type ResolveLinkResponse struct {
	DestinationURL string `json:"destination_url"`
	Found          bool   `json:"found"`
	Permanent      bool   `json:"permanent"`
	Blocked        bool   `json:"blocked"`
	BlockedReason  string `json:"blocked_reason,omitempty"`
}

// GetLinkStatsRequest представляет запрос статистики ссылки
type GetLinkStatsRequest struct {
	Slug   string `json:"slug"`
	UserID string `json:"user_id"`
}

// GetLinkStatsResponse представляет показания счётчиков ссылки
type GetLinkStatsResponse struct {
	Slug            string `json:"slug"`
	ClickCount      int64  `json:"click_count"`
	TotalClicks     int64  `json:"total_clicks"`
	TodayClicks     int64  `json:"today_clicks"`
	UserMonthClicks int64  `json:"user_month_clicks"`
	Found           bool   `json:"found"`
}

// GetServiceStatsRequest представляет запрос общей статистики сервиса
type GetServiceStatsRequest struct{}

// GetServiceStatsResponse представляет общую статистику сервиса
type GetServiceStatsResponse struct {
	LinksCount int32 `json:"links_count"`
	UsersCount int32 `json:"users_count"`
}

// PingRequest представляет запрос проверки состояния
type PingRequest struct{}

// PingResponse представляет ответ проверки состояния
type PingResponse struct {
	DatabaseAvailable bool `json:"database_available"`
}
