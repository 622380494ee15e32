package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"appreview/internal/domain/catalog"
	"appreview/internal/errs"
	"appreview/internal/infrastructure/persistence/sqlite/model"
	"appreview/internal/ports"
)

type CatalogRepository struct {
	db *gorm.DB
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetEntry(ctx context.Context, entryID uint64) (catalog.Entry, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return catalog.Entry{}, err
	}

	var row model.CatalogEntry
	if err := db.Where("entry_id = ?", entryID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Entry{}, fmt.Errorf("%w: catalog entry %d", ports.ErrNotFound, entryID)
		}
		return catalog.Entry{}, errs.Wrap(err, "query catalog entry")
	}
	return mapCatalogEntry(row), nil
}

func (r *CatalogRepository) FindEntryByName(ctx context.Context, name string) (catalog.Entry, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return catalog.Entry{}, err
	}

	var row model.CatalogEntry
	if err := db.Where("name = ?", name).Order("entry_id asc").Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Entry{}, fmt.Errorf("%w: catalog entry %q", ports.ErrNotFound, name)
		}
		return catalog.Entry{}, errs.Wrap(err, "query catalog entry by name")
	}
	return mapCatalogEntry(row), nil
}

func (r *CatalogRepository) SearchEntries(ctx context.Context, filter ports.CatalogSearchFilter) ([]catalog.Entry, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.CatalogEntry{})
	if strings.TrimSpace(filter.Query) != "" {
		pattern := containsPattern(filter.Query)
		query = query.Where(
			"LOWER(name) LIKE ? ESCAPE '!' OR LOWER(category) LIKE ? ESCAPE '!' OR LOWER(genres) LIKE ? ESCAPE '!'",
			pattern, pattern, pattern,
		)
	}
	query = query.Order("CASE WHEN rating IS NULL THEN 1 ELSE 0 END").Order("rating desc").Order("entry_id asc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.CatalogEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "search catalog entries")
	}

	items := make([]catalog.Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapCatalogEntry(row))
	}
	return items, nil
}

func (r *CatalogRepository) SuggestNames(ctx context.Context, fragment string, limit int) ([]string, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.CatalogEntry{}).
		Where("LOWER(name) LIKE ? ESCAPE '!'", containsPattern(fragment)).
		Order("entry_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var names []string
	if err := query.Pluck("name", &names).Error; err != nil {
		return nil, errs.Wrap(err, "query name suggestions")
	}
	return names, nil
}

func (r *CatalogRepository) ListImportedReviews(ctx context.Context, entryID uint64) ([]catalog.ImportedReview, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.ImportedReview
	if err := db.Where("entry_id = ?", entryID).Order("imported_review_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query imported reviews")
	}

	items := make([]catalog.ImportedReview, 0, len(rows))
	for _, row := range rows {
		items = append(items, catalog.ImportedReview{
			ID:           row.ImportedReviewID,
			EntryID:      row.EntryID,
			Text:         row.Text,
			Sentiment:    row.Sentiment,
			Polarity:     row.Polarity,
			Subjectivity: row.Subjectivity,
		})
	}
	return items, nil
}

func (r *CatalogRepository) CountEntries(ctx context.Context) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.CatalogEntry{}).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count catalog entries")
	}
	return count, nil
}

// GetOrCreateEntry matches on the exact name; an existing row is returned unchanged.
func (r *CatalogRepository) GetOrCreateEntry(ctx context.Context, entry catalog.Entry) (catalog.Entry, bool, error) {
	existing, err := r.FindEntryByName(ctx, entry.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return catalog.Entry{}, false, err
	}

	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return catalog.Entry{}, false, err
	}

	row := model.CatalogEntry{
		Name:           entry.Name,
		Category:       entry.Category,
		Rating:         entry.Rating,
		ReviewCount:    entry.ReviewCount,
		Size:           entry.Size,
		Installs:       entry.Installs,
		Type:           entry.Type,
		Price:          entry.Price,
		ContentRating:  entry.ContentRating,
		Genres:         entry.Genres,
		LastUpdated:    entry.LastUpdated,
		CurrentVersion: entry.CurrentVersion,
		AndroidVersion: entry.AndroidVersion,
	}
	if err := db.Create(&row).Error; err != nil {
		return catalog.Entry{}, false, errs.Wrap(err, "create catalog entry")
	}
	return mapCatalogEntry(row), true, nil
}

// GetOrCreateImportedReview matches on (entry, text).
func (r *CatalogRepository) GetOrCreateImportedReview(ctx context.Context, item catalog.ImportedReview) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&model.ImportedReview{}).
		Where("entry_id = ? AND text = ?", item.EntryID, item.Text).
		Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "query imported review")
	}
	if count > 0 {
		return false, nil
	}

	row := model.ImportedReview{
		EntryID:      item.EntryID,
		Text:         item.Text,
		Sentiment:    item.Sentiment,
		Polarity:     item.Polarity,
		Subjectivity: item.Subjectivity,
	}
	if err := db.Create(&row).Error; err != nil {
		return false, errs.Wrap(err, "create imported review")
	}
	return true, nil
}

func mapCatalogEntry(row model.CatalogEntry) catalog.Entry {
	return catalog.Entry{
		ID:             row.EntryID,
		Name:           row.Name,
		Category:       row.Category,
		Rating:         row.Rating,
		ReviewCount:    row.ReviewCount,
		Size:           row.Size,
		Installs:       row.Installs,
		Type:           row.Type,
		Price:          row.Price,
		ContentRating:  row.ContentRating,
		Genres:         row.Genres,
		LastUpdated:    row.LastUpdated,
		CurrentVersion: row.CurrentVersion,
		AndroidVersion: row.AndroidVersion,
	}
}
