// Package repository определяет интерфейсы хранилищ сервиса редиректов
// и их реализации: in-memory, файловый журнал, PostgreSQL и Redis.
package repository

import (
	"database/sql"
	"errors"

	"github.com/tempizhere/goredirect/internal/models"
)

// ErrSlugExists возвращается при попытке сохранить ссылку с занятым slug
var ErrSlugExists = errors.New("slug already exists")

// LinkRepository определяет интерфейс хранилища ссылок.
// Данные ссылки хранятся двумя записями: slug-индекс (slug -> идентичность)
// и полная запись по ключу {user_id, link_id}.
type LinkRepository interface {
	// SaveLink сохраняет обе записи ссылки: slug-индекс и полную запись
	SaveLink(link models.Link) error
	// GetSlugRef возвращает запись slug-индекса и флаг существования
	GetSlugRef(slug string) (models.SlugRef, bool)
	// GetLink возвращает полную запись ссылки и флаг существования
	GetLink(userID, linkID string) (models.Link, bool)
	// GetLinksByUserID возвращает все не удалённые ссылки пользователя
	GetLinksByUserID(userID string) ([]models.Link, error)
	// BatchDelete помечает ссылки пользователя как удалённые
	BatchDelete(userID string, slugs []string) error
	// IncrementClickCount атомарно увеличивает счётчик кликов на записи ссылки
	IncrementClickCount(userID, linkID string) error
	// Stats возвращает количество ссылок и уникальных пользователей
	Stats() (links int, users int, err error)
}

// ClickEventRepository определяет интерфейс журнала событий кликов.
// Записи неизменяемы и партиционированы по ссылке и месяцу.
type ClickEventRepository interface {
	// AppendEvent дописывает одно событие клика
	AppendEvent(event models.ClickEvent) error
	// EventsByLinkMonth возвращает события ссылки за месяц
	EventsByLinkMonth(linkID, monthKey string) ([]models.ClickEvent, error)
}

// CounterRepository определяет интерфейс хранилища агрегатных счётчиков.
// Increment обязан быть атомарным на уровне хранилища и создавать счётчик
// с нуля при первом инкременте.
type CounterRepository interface {
	// Increment атомарно увеличивает счётчик на единицу
	Increment(scopeID string, kind models.AggregateKind) error
	// Get возвращает счётчик и флаг существования
	Get(scopeID string, kind models.AggregateKind) (models.AggregateCounter, bool)
}

// Database определяет интерфейс для работы с базой данных
type Database interface {
	// Ping проверяет соединение с базой данных
	Ping() error
	// Close закрывает соединение с базой данных
	Close() error
	// Exec выполняет SQL-команду без возврата результатов
	Exec(query string, args ...interface{}) (sql.Result, error)
	// Query выполняет SQL-запрос и возвращает результаты
	Query(query string, args ...interface{}) (*sql.Rows, error)
	// QueryRow выполняет SQL-запрос и возвращает одну строку результата
	QueryRow(query string, args ...interface{}) *sql.Row
	// Begin начинает новую транзакцию
	Begin() (*sql.Tx, error)
}
