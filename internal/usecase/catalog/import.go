package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"appreview/internal/bootstrap/logging"
	domaincatalog "appreview/internal/domain/catalog"
	"appreview/internal/errs"
	"appreview/internal/ports"
)

type ImportInput struct {
	Entries []domaincatalog.Entry
	Reviews []domaincatalog.NamedReview
}

type ImportResult struct {
	EntriesCreated  int
	EntriesExisting int
	ReviewsCreated  int
	ReviewsExisting int
	// ReviewsOrphaned counts reviews naming an entry that is not in the catalog.
	ReviewsOrphaned int
}

// Import loads entries then reviews with get-or-create semantics, so running
// it twice over the same data set changes nothing. Existing entries keep
// their stored fields.
func (s *Service) Import(ctx context.Context, input ImportInput) (ImportResult, error) {
	if err := s.check(ctx); err != nil {
		return ImportResult{}, err
	}
	if s.uow == nil {
		return ImportResult{}, errors.New("catalog unit of work is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.catalog.import"))

	var result ImportResult
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		ids := make(map[string]uint64, len(input.Entries))
		for _, entry := range input.Entries {
			entry.Name = strings.TrimSpace(entry.Name)
			if entry.Name == "" {
				continue
			}
			stored, created, err := s.repo.GetOrCreateEntry(txCtx, entry)
			if err != nil {
				return errs.Wrapf(err, "import entry %q", entry.Name)
			}
			ids[stored.Name] = stored.ID
			if created {
				result.EntriesCreated++
			} else {
				result.EntriesExisting++
			}
		}

		for _, item := range input.Reviews {
			name := strings.TrimSpace(item.EntryName)
			entryID, ok := ids[name]
			if !ok {
				stored, err := s.repo.FindEntryByName(txCtx, name)
				if errors.Is(err, ports.ErrNotFound) {
					result.ReviewsOrphaned++
					continue
				}
				if err != nil {
					return err
				}
				entryID = stored.ID
				ids[name] = entryID
			}

			imported := item.Review
			imported.EntryID = entryID
			created, err := s.repo.GetOrCreateImportedReview(txCtx, imported)
			if err != nil {
				return errs.Wrapf(err, "import review for %q", name)
			}
			if created {
				result.ReviewsCreated++
			} else {
				result.ReviewsExisting++
			}
		}
		return nil
	})
	if err != nil {
		logging.Error(logCtx, "catalog import failed", slog.Any("err", errs.Loggable(err)))
		return ImportResult{}, err
	}

	logging.Info(logCtx, "catalog imported",
		slog.Int("entries_created", result.EntriesCreated),
		slog.Int("entries_existing", result.EntriesExisting),
		slog.Int("reviews_created", result.ReviewsCreated),
		slog.Int("reviews_existing", result.ReviewsExisting),
		slog.Int("reviews_orphaned", result.ReviewsOrphaned),
	)
	return result, nil
}
