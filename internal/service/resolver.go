package service

import (
	"github.com/tempizhere/goredirect/internal/models"
	"github.com/tempizhere/goredirect/internal/repository"
	"go.uber.org/zap"
)

// Resolver выполняет двухшаговый поиск ссылки по slug: сначала slug-индекс,
// затем полная запись по ключу {user_id, link_id}. Ретраев нет, промах
// окончателен для запроса.
type Resolver struct {
	links  repository.LinkRepository
	logger *zap.Logger
}

// NewResolver создаёт новый экземпляр Resolver
func NewResolver(links repository.LinkRepository, logger *zap.Logger) *Resolver {
	return &Resolver{
		links:  links,
		logger: logger,
	}
}

// Resolve возвращает живую запись ссылки по slug. Расхождение между
// slug-индексом и записью ссылки логируется и трактуется как
// отсутствие ссылки.
func (r *Resolver) Resolve(slug string) (models.Link, bool) {
	ref, exists := r.links.GetSlugRef(slug)
	if !exists {
		return models.Link{}, false
	}

	link, exists := r.links.GetLink(ref.UserID, ref.LinkID)
	if !exists {
		r.logger.Warn("Slug index points to a missing link record",
			zap.String("slug", slug),
			zap.String("link_id", ref.LinkID),
			zap.String("user_id", ref.UserID))
		return models.Link{}, false
	}
	if link.DeletedFlag {
		return models.Link{}, false
	}
	return link, true
}
