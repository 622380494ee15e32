package ports

import (
	"context"

	"appreview/internal/domain/catalog"
)

type CatalogSearchFilter struct {
	// Query matches name, category or genres case-insensitively.
	Query string
	Limit int
}

// CatalogRepository reads the catalog; the write methods are used by the bulk importer only.
type CatalogRepository interface {
	GetEntry(ctx context.Context, entryID uint64) (catalog.Entry, error)
	FindEntryByName(ctx context.Context, name string) (catalog.Entry, error)
	// SearchEntries returns matches ordered by rating, highest first, unrated last.
	SearchEntries(ctx context.Context, filter CatalogSearchFilter) ([]catalog.Entry, error)
	SuggestNames(ctx context.Context, fragment string, limit int) ([]string, error)
	ListImportedReviews(ctx context.Context, entryID uint64) ([]catalog.ImportedReview, error)
	CountEntries(ctx context.Context) (int64, error)

	GetOrCreateEntry(ctx context.Context, entry catalog.Entry) (catalog.Entry, bool, error)
	GetOrCreateImportedReview(ctx context.Context, item catalog.ImportedReview) (bool, error)
}
