package gifs

import (
	"context"

	"github.com/dropnote/dropnote/internal/common"
	"github.com/dropnote/dropnote/internal/logging"
	"github.com/dropnote/dropnote/internal/server/models"
)

// Service fans queries out to all configured providers and interleaves
// their results so no single catalogue dominates a page.
type Service struct {
	providers []Provider
	logger    logging.Logger
}

func NewService(logger logging.Logger, providers ...Provider) *Service {
	return &Service{
		providers: providers,
		logger:    logger.With("module", "gif_service"),
	}
}

func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.GifRecord, error) {
	return s.collect(ctx, limit, func(p Provider, perProvider int) ([]models.GifRecord, error) {
		return p.Search(ctx, query, perProvider)
	})
}

func (s *Service) Trending(ctx context.Context, limit int) ([]models.GifRecord, error) {
	return s.collect(ctx, limit, func(p Provider, perProvider int) ([]models.GifRecord, error) {
		return p.Trending(ctx, perProvider)
	})
}

// Find routes a namespaced gif ID to its provider.
func (s *Service) Find(ctx context.Context, gifID string) (*models.GifRecord, error) {
	letter := serviceLetterOf(gifID)
	for _, p := range s.providers {
		if p.ServiceLetter() == letter {
			return p.Find(ctx, gifID)
		}
	}
	return nil, common.ErrorNotFound
}

// Ping reports per-provider upstream health.
func (s *Service) Ping(ctx context.Context) map[string]bool {
	health := make(map[string]bool, len(s.providers))
	for _, p := range s.providers {
		health[p.ServiceLetter()] = p.Ping(ctx)
	}
	return health
}

// collect asks every provider for its share of limit and interleaves the
// answers. A failing provider is logged and skipped, not fatal.
func (s *Service) collect(ctx context.Context, limit int, fetch func(Provider, int) ([]models.GifRecord, error)) ([]models.GifRecord, error) {
	if len(s.providers) == 0 {
		return nil, nil
	}
	perProvider := (limit + len(s.providers) - 1) / len(s.providers)

	batches := make([][]models.GifRecord, 0, len(s.providers))
	for _, p := range s.providers {
		batch, err := fetch(p, perProvider)
		if err != nil {
			s.logger.Warn(ctx, "gif provider failed", "provider", p.ServiceLetter(), "error", err.Error())
			continue
		}
		batches = append(batches, batch)
	}

	var result []models.GifRecord
	for i := 0; len(result) < limit; i++ {
		advanced := false
		for _, batch := range batches {
			if i < len(batch) && len(result) < limit {
				result = append(result, batch[i])
				advanced = true
			}
		}
		if !advanced {
			break
		}
	}
	return result, nil
}
