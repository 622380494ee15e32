package moderation

import (
	"context"

	"appreview/internal/domain/review"
	"appreview/internal/errs"
)

// ReviewHistory returns the audit trail of one review, oldest first.
func (s *Service) ReviewHistory(ctx context.Context, reviewID uint64) ([]review.Event, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if _, err := s.reviews.GetReview(ctx, reviewID); err != nil {
		return nil, err
	}
	events, err := s.reviews.ListReviewEvents(ctx, reviewID)
	if err != nil {
		return nil, errs.Wrap(err, "list review events")
	}
	return events, nil
}

// EventsAfter pages the moderation trail across all reviews. Callers keep the
// last event id as their cursor.
func (s *Service) EventsAfter(ctx context.Context, afterEventID uint64, limit int) ([]review.Event, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	events, err := s.reviews.ListEventsAfter(ctx, afterEventID, limit)
	if err != nil {
		return nil, errs.Wrap(err, "list events")
	}
	return events, nil
}

// EventCursor is the id of the newest trail event, a starting point for EventsAfter.
func (s *Service) EventCursor(ctx context.Context) (uint64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	latest, err := s.reviews.LatestEventID(ctx)
	if err != nil {
		return 0, errs.Wrap(err, "load event cursor")
	}
	return latest, nil
}
