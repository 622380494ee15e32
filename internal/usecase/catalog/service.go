// Package catalog serves catalog search, name suggestions and bulk import.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	domaincatalog "appreview/internal/domain/catalog"
	"appreview/internal/errs"
	"appreview/internal/ports"
)

const (
	DefaultPageSize           = 20
	DefaultSuggestionLimit    = 10
	DefaultMinSuggestionChars = 3
	DefaultSuggestionTTL      = 5 * time.Minute
)

type Options struct {
	PageSize           int
	SuggestionLimit    int
	MinSuggestionChars int
	SuggestionTTL      time.Duration
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.SuggestionLimit <= 0 {
		o.SuggestionLimit = DefaultSuggestionLimit
	}
	if o.MinSuggestionChars <= 0 {
		o.MinSuggestionChars = DefaultMinSuggestionChars
	}
	if o.SuggestionTTL <= 0 {
		o.SuggestionTTL = DefaultSuggestionTTL
	}
	return o
}

type Service struct {
	repo    ports.CatalogRepository
	uow     ports.UnitOfWork
	ranker  ports.Ranker
	cache   ports.Cache
	metrics ports.Metrics
	opts    Options
}

// NewService wires catalog usecases. ranker and cache are optional: without a
// ranker results keep the repository's rating order, without a cache every
// suggestion hits the database.
func NewService(
	repo ports.CatalogRepository,
	uow ports.UnitOfWork,
	ranker ports.Ranker,
	cache ports.Cache,
	metrics ports.Metrics,
	opts Options,
) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Service{
		repo:    repo,
		uow:     uow,
		ranker:  ranker,
		cache:   cache,
		metrics: metrics,
		opts:    opts.withDefaults(),
	}
}

func (s *Service) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("catalog repository is required")
	}
	return nil
}

// FindEntry resolves an entry by its exact name.
func (s *Service) FindEntry(ctx context.Context, name string) (domaincatalog.Entry, error) {
	if err := s.check(ctx); err != nil {
		return domaincatalog.Entry{}, err
	}
	return s.repo.FindEntryByName(ctx, strings.TrimSpace(name))
}
