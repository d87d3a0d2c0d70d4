package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tempizhere/goredirect/internal/models"
	"go.uber.org/zap"
)

// uniqueViolationCode соответствует SQLSTATE 23505 (unique_violation)
const uniqueViolationCode = "23505"

// PostgresStore реализует интерфейсы хранилищ поверх PostgreSQL.
// Каждая запись рекордера выполняется отдельной атомарной операцией,
// транзакции между ключами не используются.
type PostgresStore struct {
	db     Database
	logger *zap.Logger
}

// NewPostgresStore создаёт новый экземпляр PostgresStore
func NewPostgresStore(db Database, logger *zap.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, nil
	}
	return &PostgresStore{
		db:     db,
		logger: logger,
	}, nil
}

// SaveLink сохраняет slug-индекс и полную запись ссылки
func (s *PostgresStore) SaveLink(link models.Link) error {
	tx, err := s.db.Begin()
	if err != nil {
		s.logger.Error("Failed to start transaction", zap.Error(err))
		return err
	}
	_, err = tx.Exec(
		"INSERT INTO slug_index (slug, link_id, user_id) VALUES ($1, $2, $3)",
		link.Slug, link.LinkID, link.UserID,
	)
	if err != nil {
		tx.Rollback()
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrSlugExists
		}
		s.logger.Error("Failed to save slug index", zap.String("slug", link.Slug), zap.Error(err))
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO links
		 (user_id, link_id, slug, destination_url, enabled, privacy_mode, redirect_kind, expires_at, click_count, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, false, $9, $9)`,
		link.UserID, link.LinkID, link.Slug, link.DestinationURL,
		link.Enabled, link.PrivacyMode, string(link.RedirectKind), link.ExpiresAt, link.CreatedAt,
	)
	if err != nil {
		tx.Rollback()
		s.logger.Error("Failed to save link record", zap.String("slug", link.Slug), zap.Error(err))
		return err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", zap.Error(err))
		return err
	}
	return nil
}

// GetSlugRef возвращает запись slug-индекса
func (s *PostgresStore) GetSlugRef(slug string) (models.SlugRef, bool) {
	var ref models.SlugRef
	err := s.db.QueryRow(
		"SELECT slug, link_id, user_id FROM slug_index WHERE slug = $1", slug,
	).Scan(&ref.Slug, &ref.LinkID, &ref.UserID)
	if err == sql.ErrNoRows {
		return models.SlugRef{}, false
	}
	if err != nil {
		s.logger.Error("Failed to get slug index record", zap.String("slug", slug), zap.Error(err))
		return models.SlugRef{}, false
	}
	return ref, true
}

// GetLink возвращает полную запись ссылки по ключу {user_id, link_id}
func (s *PostgresStore) GetLink(userID, linkID string) (models.Link, bool) {
	var link models.Link
	var kind string
	err := s.db.QueryRow(
		`SELECT user_id, link_id, slug, destination_url, enabled, privacy_mode, redirect_kind, expires_at, click_count, is_deleted, created_at, updated_at
		 FROM links WHERE user_id = $1 AND link_id = $2`,
		userID, linkID,
	).Scan(&link.UserID, &link.LinkID, &link.Slug, &link.DestinationURL,
		&link.Enabled, &link.PrivacyMode, &kind, &link.ExpiresAt,
		&link.ClickCount, &link.DeletedFlag, &link.CreatedAt, &link.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Link{}, false
	}
	if err != nil {
		s.logger.Error("Failed to get link record",
			zap.String("user_id", userID), zap.String("link_id", linkID), zap.Error(err))
		return models.Link{}, false
	}
	link.RedirectKind = models.RedirectKind(kind)
	return link, true
}

// GetLinksByUserID возвращает все не удалённые ссылки пользователя
func (s *PostgresStore) GetLinksByUserID(userID string) ([]models.Link, error) {
	rows, err := s.db.Query(
		`SELECT user_id, link_id, slug, destination_url, enabled, privacy_mode, redirect_kind, expires_at, click_count, is_deleted, created_at, updated_at
		 FROM links WHERE user_id = $1 AND is_deleted = false ORDER BY created_at`,
		userID,
	)
	if err != nil {
		s.logger.Error("Failed to query user links", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var link models.Link
		var kind string
		if err := rows.Scan(&link.UserID, &link.LinkID, &link.Slug, &link.DestinationURL,
			&link.Enabled, &link.PrivacyMode, &kind, &link.ExpiresAt,
			&link.ClickCount, &link.DeletedFlag, &link.CreatedAt, &link.UpdatedAt); err != nil {
			return nil, err
		}
		link.RedirectKind = models.RedirectKind(kind)
		links = append(links, link)
	}
	return links, rows.Err()
}

// BatchDelete помечает ссылки пользователя как удалённые
func (s *PostgresStore) BatchDelete(userID string, slugs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		s.logger.Error("Failed to start transaction", zap.Error(err))
		return err
	}
	for _, slug := range slugs {
		_, err := tx.Exec(
			"UPDATE links SET is_deleted = true, updated_at = now() WHERE user_id = $1 AND slug = $2",
			userID, slug,
		)
		if err != nil {
			tx.Rollback()
			s.logger.Error("Failed to delete link", zap.String("slug", slug), zap.Error(err))
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", zap.Error(err))
		return err
	}
	return nil
}

// IncrementClickCount атомарно увеличивает счётчик кликов на записи ссылки
func (s *PostgresStore) IncrementClickCount(userID, linkID string) error {
	_, err := s.db.Exec(
		"UPDATE links SET click_count = click_count + 1 WHERE user_id = $1 AND link_id = $2",
		userID, linkID,
	)
	if err != nil {
		s.logger.Error("Failed to increment link click count",
			zap.String("user_id", userID), zap.String("link_id", linkID), zap.Error(err))
		return err
	}
	return nil
}

// Stats возвращает количество ссылок и уникальных пользователей
func (s *PostgresStore) Stats() (int, int, error) {
	var links, users int
	err := s.db.QueryRow(
		"SELECT COUNT(*), COUNT(DISTINCT user_id) FROM links WHERE is_deleted = false",
	).Scan(&links, &users)
	if err != nil {
		s.logger.Error("Failed to get stats", zap.Error(err))
		return 0, 0, err
	}
	return links, users, nil
}

// AppendEvent дописывает событие клика в партицию ссылки и месяца
func (s *PostgresStore) AppendEvent(event models.ClickEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO click_events
		 (link_id, month_key, timestamp_ms, event_id, slug, user_id, referrer, user_agent, country, device, ip_hash, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		event.LinkID, event.MonthKey, event.Timestamp, event.EventID,
		event.Slug, event.UserID, event.Referrer, event.UserAgent,
		event.Country, string(event.Device), event.IPHash, event.ExpiresAt,
	)
	if err != nil {
		s.logger.Error("Failed to append click event",
			zap.String("link_id", event.LinkID), zap.String("event_id", event.EventID), zap.Error(err))
		return err
	}
	return nil
}

// EventsByLinkMonth возвращает события ссылки за месяц в стабильном порядке
func (s *PostgresStore) EventsByLinkMonth(linkID, monthKey string) ([]models.ClickEvent, error) {
	rows, err := s.db.Query(
		`SELECT link_id, month_key, timestamp_ms, event_id, slug, user_id, referrer, user_agent, country, device, ip_hash, expires_at
		 FROM click_events WHERE link_id = $1 AND month_key = $2
		 ORDER BY timestamp_ms, event_id`,
		linkID, monthKey,
	)
	if err != nil {
		s.logger.Error("Failed to query click events", zap.String("link_id", linkID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []models.ClickEvent
	for rows.Next() {
		var event models.ClickEvent
		var device string
		if err := rows.Scan(&event.LinkID, &event.MonthKey, &event.Timestamp, &event.EventID,
			&event.Slug, &event.UserID, &event.Referrer, &event.UserAgent,
			&event.Country, &device, &event.IPHash, &event.ExpiresAt); err != nil {
			return nil, err
		}
		event.Device = models.DeviceClass(device)
		events = append(events, event)
	}
	return events, rows.Err()
}

// Increment атомарно увеличивает счётчик через upsert с нулевым значением
// по умолчанию: первый клик по новому ключу создаёт счётчик
func (s *PostgresStore) Increment(scopeID string, kind models.AggregateKind) error {
	_, err := s.db.Exec(
		`INSERT INTO click_aggregates (scope_id, kind, clicks, last_updated)
		 VALUES ($1, $2, 1, now())
		 ON CONFLICT (scope_id, kind)
		 DO UPDATE SET clicks = click_aggregates.clicks + 1, last_updated = now()`,
		scopeID, string(kind),
	)
	if err != nil {
		s.logger.Error("Failed to increment aggregate counter",
			zap.String("scope_id", scopeID), zap.String("kind", string(kind)), zap.Error(err))
		return err
	}
	return nil
}

// Get возвращает счётчик по ключу {scope_id, kind}
func (s *PostgresStore) Get(scopeID string, kind models.AggregateKind) (models.AggregateCounter, bool) {
	counter := models.AggregateCounter{ScopeID: scopeID, Kind: kind}
	err := s.db.QueryRow(
		"SELECT clicks, last_updated FROM click_aggregates WHERE scope_id = $1 AND kind = $2",
		scopeID, string(kind),
	).Scan(&counter.Clicks, &counter.LastUpdated)
	if err == sql.ErrNoRows {
		return models.AggregateCounter{}, false
	}
	if err != nil {
		s.logger.Error("Failed to get aggregate counter",
			zap.String("scope_id", scopeID), zap.String("kind", string(kind)), zap.Error(err))
		return models.AggregateCounter{}, false
	}
	return counter, true
}
