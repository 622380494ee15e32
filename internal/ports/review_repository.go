package ports

import (
	"context"

	"appreview/internal/domain/review"
	"appreview/internal/domain/sentiment"
)

type ReviewRepository interface {
	CreateReview(ctx context.Context, record review.Record) (review.Record, error)
	GetReview(ctx context.Context, reviewID uint64) (review.Record, error)
	// Decide persists status, approver and decision time in one conditional
	// write that only matches pending rows. A lost race yields review.ErrAlreadyDecided.
	Decide(ctx context.Context, decided review.Record) error
	// ListPendingForAuthors returns pending reviews by any of authorIDs, newest first.
	ListPendingForAuthors(ctx context.Context, authorIDs []uint64) ([]review.Record, error)
	// ListApprovedForEntry returns approved reviews of an entry, newest first.
	ListApprovedForEntry(ctx context.Context, entryID uint64) ([]review.Record, error)
	ListForRescore(ctx context.Context, onlyUnscored bool, limit int) ([]review.Record, error)
	UpdateSentiment(ctx context.Context, reviewID uint64, result sentiment.Result) error

	AppendEvent(ctx context.Context, event review.Event) error
	// ListReviewEvents returns one review's trail, oldest first.
	ListReviewEvents(ctx context.Context, reviewID uint64) ([]review.Event, error)
	// ListEventsAfter pages the global trail by event id; limit <= 0 means no limit.
	ListEventsAfter(ctx context.Context, afterEventID uint64, limit int) ([]review.Event, error)
	// LatestEventID is zero while the trail is empty.
	LatestEventID(ctx context.Context) (uint64, error)
}
