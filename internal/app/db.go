package app

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/tempizhere/goredirect/internal/repository"
)

// NewDB создаёт подключение к базе данных и готовит схему хранилища:
// slug-индекс, записи ссылок, журнал событий кликов и агрегатные счётчики
func NewDB(dsn string) (repository.Database, error) {
	if dsn == "" {
		return nil, nil
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS slug_index (
			slug VARCHAR(64) PRIMARY KEY,
			link_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS links (
			user_id VARCHAR(36) NOT NULL,
			link_id VARCHAR(36) NOT NULL,
			slug VARCHAR(64) NOT NULL,
			destination_url TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT true,
			privacy_mode BOOLEAN NOT NULL DEFAULT false,
			redirect_kind VARCHAR(16) NOT NULL DEFAULT '',
			expires_at VARCHAR(64) NOT NULL DEFAULT '',
			click_count BIGINT NOT NULL DEFAULT 0,
			is_deleted BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, link_id)
		)`,
		`CREATE TABLE IF NOT EXISTS click_events (
			link_id VARCHAR(36) NOT NULL,
			month_key VARCHAR(7) NOT NULL,
			timestamp_ms BIGINT NOT NULL,
			event_id VARCHAR(36) NOT NULL,
			slug VARCHAR(64) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			referrer TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			country VARCHAR(16) NOT NULL DEFAULT '',
			device VARCHAR(16) NOT NULL DEFAULT '',
			ip_hash VARCHAR(32) NOT NULL DEFAULT '',
			expires_at TIMESTAMP NOT NULL,
			PRIMARY KEY (link_id, month_key, timestamp_ms, event_id)
		)`,
		// Вторичный путь доступа: выборки событий по пользователю и месяцу
		`CREATE INDEX IF NOT EXISTS idx_click_events_user_month ON click_events (user_id, month_key)`,
		`CREATE TABLE IF NOT EXISTS click_aggregates (
			scope_id VARCHAR(96) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			clicks BIGINT NOT NULL DEFAULT 0,
			last_updated TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope_id, kind)
		)`,
	}
	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return conn, nil
}
