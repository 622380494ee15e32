package catalog

import (
	"context"
	"log/slog"
	"strings"

	"appreview/internal/bootstrap/logging"
	domaincatalog "appreview/internal/domain/catalog"
	"appreview/internal/errs"
	"appreview/internal/ports"
)

type SearchInput struct {
	Query string
	// Page is 1-based. Values below 1 select the first page and values past
	// the end select the last one.
	Page int
}

type SearchPage struct {
	Query     string
	Entries   []domaincatalog.Entry
	Page      int
	PageCount int
	Total     int
}

func (p SearchPage) HasPrevious() bool { return p.Page > 1 }
func (p SearchPage) HasNext() bool     { return p.Page < p.PageCount }

// Search matches name, category or genres, re-ranks the matches by textual
// relevance and returns one page. An empty query yields an empty first page.
func (s *Service) Search(ctx context.Context, input SearchInput) (SearchPage, error) {
	if err := s.check(ctx); err != nil {
		return SearchPage{}, err
	}

	query := strings.TrimSpace(input.Query)
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.catalog.search"),
		slog.String("query", query),
	)

	var matches []domaincatalog.Entry
	if query != "" {
		found, err := s.repo.SearchEntries(ctx, ports.CatalogSearchFilter{Query: query})
		if err != nil {
			return SearchPage{}, errs.Wrap(err, "search catalog")
		}
		matches = s.rerank(query, found)
	}

	page := paginate(matches, input.Page, s.opts.PageSize)
	page.Query = query

	s.metrics.SearchServed("results", page.Total)
	logging.Debug(logCtx, "catalog search served", slog.Int("total", page.Total), slog.Int("page", page.Page))
	return page, nil
}

func (s *Service) rerank(query string, entries []domaincatalog.Entry) []domaincatalog.Entry {
	if s.ranker == nil || len(entries) < 2 {
		return entries
	}

	documents := make([]string, len(entries))
	for i, entry := range entries {
		documents[i] = entry.Document()
	}

	order := s.ranker.Rank(query, documents)
	if len(order) != len(entries) {
		return entries
	}
	ranked := make([]domaincatalog.Entry, 0, len(entries))
	for _, idx := range order {
		ranked = append(ranked, entries[idx])
	}
	return ranked
}

func paginate(entries []domaincatalog.Entry, page int, size int) SearchPage {
	total := len(entries)
	pageCount := (total + size - 1) / size
	if pageCount == 0 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * size
	end := min(start+size, total)
	items := []domaincatalog.Entry{}
	if start < end {
		items = append(items, entries[start:end]...)
	}
	return SearchPage{
		Entries:   items,
		Page:      page,
		PageCount: pageCount,
		Total:     total,
	}
}
