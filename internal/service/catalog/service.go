package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/internal/repository"
)

const (
	cacheTTL        = 15 * time.Minute
	cleanupInterval = 30 * time.Minute
	listCacheKey    = "templates:all"
)

// Service is the read-only template catalog. Templates are immutable
// reference data, so a read-through cache in front of the repository is
// always safe.
type Service struct {
	repo  repository.TemplateRepository
	cache *cache.Cache
}

func NewService(repo repository.TemplateRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, cleanupInterval),
	}
}

func (s *Service) List(ctx context.Context) ([]*model.Template, error) {
	if cached, ok := s.cache.Get(listCacheKey); ok {
		return cached.([]*model.Template), nil
	}

	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	s.cache.Set(listCacheKey, templates, cache.DefaultExpiration)
	return templates, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	key := id.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Template), nil
	}

	tmpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	s.cache.Set(key, tmpl, cache.DefaultExpiration)
	return tmpl, nil
}
