package moderation

import (
	"context"
	"errors"
	"fmt"

	"appreview/internal/domain/directory"
	"appreview/internal/domain/review"
	"appreview/internal/errs"
	"appreview/internal/ports"
)

// Dashboard lists pending reviews written by the supervisor's reports, newest first.
func (s *Service) Dashboard(ctx context.Context, supervisorID uint64) (Dashboard, error) {
	if err := s.check(ctx); err != nil {
		return Dashboard{}, err
	}

	entry, found, err := s.directory.Entry(ctx, supervisorID)
	if err != nil {
		return Dashboard{}, err
	}
	if !found || !entry.IsSupervisor {
		return Dashboard{}, fmt.Errorf("%w: dashboard requires supervisor privileges", review.ErrUnauthorizedApprover)
	}

	supervised, err := s.directory.SupervisedSet(ctx, supervisorID)
	if err != nil {
		return Dashboard{}, err
	}

	authors := make(map[uint64]directory.User, len(supervised))
	authorIDs := make([]uint64, 0, len(supervised))
	for _, user := range supervised {
		authors[user.ID] = user
		authorIDs = append(authorIDs, user.ID)
	}

	pending, err := s.reviews.ListPendingForAuthors(ctx, authorIDs)
	if err != nil {
		return Dashboard{}, errs.Wrap(err, "list pending reviews")
	}

	entryNames := make(map[uint64]string)
	items := make([]PendingReview, 0, len(pending))
	for _, rec := range pending {
		name, ok := entryNames[rec.EntryID]
		if !ok && s.catalog != nil {
			entry, err := s.catalog.GetEntry(ctx, rec.EntryID)
			if err != nil && !errors.Is(err, ports.ErrNotFound) {
				return Dashboard{}, err
			}
			name = entry.Name
			entryNames[rec.EntryID] = name
		}
		items = append(items, PendingReview{
			Review:    rec,
			Author:    authors[rec.AuthorID],
			EntryName: name,
		})
	}

	return Dashboard{
		Pending:         items,
		SupervisedCount: len(supervised),
	}, nil
}

// EntryDetail gathers everything shown for one catalog entry. viewerID 0 means anonymous.
func (s *Service) EntryDetail(ctx context.Context, entryID uint64, viewerID uint64) (EntryDetail, error) {
	if err := s.check(ctx); err != nil {
		return EntryDetail{}, err
	}
	if s.catalog == nil {
		return EntryDetail{}, errors.New("catalog repository is required")
	}

	entry, err := s.catalog.GetEntry(ctx, entryID)
	if err != nil {
		return EntryDetail{}, err
	}
	imported, err := s.catalog.ListImportedReviews(ctx, entryID)
	if err != nil {
		return EntryDetail{}, err
	}
	approved, err := s.ApprovedReviews(ctx, entryID)
	if err != nil {
		return EntryDetail{}, err
	}

	detail := EntryDetail{
		Entry:           entry,
		ImportedReviews: imported,
		ApprovedReviews: approved,
	}
	if viewerID != 0 {
		supervisor, found, err := s.directory.GetSupervisor(ctx, viewerID)
		if err != nil {
			return EntryDetail{}, err
		}
		if found {
			detail.ViewerHasSupervisor = true
			detail.SupervisorName = supervisor.DisplayName()
		}
	}
	return detail, nil
}

// ApprovedReviews is the public read path: approved reviews only, newest first.
func (s *Service) ApprovedReviews(ctx context.Context, entryID uint64) ([]ApprovedReview, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	records, err := s.reviews.ListApprovedForEntry(ctx, entryID)
	if err != nil {
		return nil, errs.Wrap(err, "list approved reviews")
	}
	records = review.FilterVisible(records)

	names := make(map[uint64]string)
	items := make([]ApprovedReview, 0, len(records))
	for _, rec := range records {
		name, ok := names[rec.AuthorID]
		if !ok {
			name = s.authorName(ctx, rec.AuthorID)
			names[rec.AuthorID] = name
		}
		items = append(items, ApprovedReview{Review: rec, AuthorName: name})
	}
	return items, nil
}

func (s *Service) authorName(ctx context.Context, userID uint64) string {
	if s.users == nil {
		return ""
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return ""
	}
	return user.DisplayName()
}
