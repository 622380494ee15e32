// Package moderation implements review intake and the supervisor approval workflow.
package moderation

import (
	"context"
	"errors"
	"time"

	"appreview/internal/domain/catalog"
	"appreview/internal/domain/directory"
	"appreview/internal/domain/review"
	"appreview/internal/domain/sentiment"
	"appreview/internal/errs"
	"appreview/internal/ports"
)

// Directory is the slice of the organisational directory moderation relies on.
type Directory interface {
	Entry(ctx context.Context, userID uint64) (directory.Entry, bool, error)
	GetSupervisor(ctx context.Context, userID uint64) (directory.User, bool, error)
	SupervisedSet(ctx context.Context, userID uint64) ([]directory.User, error)
}

type Scorer interface {
	Score(text string, rating int) sentiment.Result
}

type Service struct {
	catalog   ports.CatalogRepository
	reviews   ports.ReviewRepository
	users     ports.UserRepository
	directory Directory
	uow       ports.UnitOfWork
	scorer    Scorer
	metrics   ports.Metrics
	now       func() time.Time
}

// NewService wires moderation usecases. A nil scorer uses the default lexicon
// scorer and nil metrics are discarded.
func NewService(
	catalogRepo ports.CatalogRepository,
	reviews ports.ReviewRepository,
	users ports.UserRepository,
	dir Directory,
	uow ports.UnitOfWork,
	scorer Scorer,
	metrics ports.Metrics,
) *Service {
	if scorer == nil {
		scorer = sentiment.NewScorer(nil)
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Service{
		catalog:   catalogRepo,
		reviews:   reviews,
		users:     users,
		directory: dir,
		uow:       uow,
		scorer:    scorer,
		metrics:   metrics,
		now:       time.Now,
	}
}

type SubmitReviewInput struct {
	AuthorID uint64
	EntryID  uint64
	Body     string
	Rating   int
}

type SubmittedReview struct {
	Review         review.Record
	SupervisorName string
}

type ActInput struct {
	ActorID  uint64
	ReviewID uint64
	Action   string
}

type PendingReview struct {
	Review    review.Record
	Author    directory.User
	EntryName string
}

type Dashboard struct {
	Pending         []PendingReview
	SupervisedCount int
}

type ApprovedReview struct {
	Review     review.Record
	AuthorName string
}

type EntryDetail struct {
	Entry           catalog.Entry
	ImportedReviews []catalog.ImportedReview
	ApprovedReviews []ApprovedReview
	// Viewer fields are zero for anonymous viewers.
	ViewerHasSupervisor bool
	SupervisorName      string
}

type RescoreInput struct {
	OnlyUnscored bool
	Limit        int
}

func (s *Service) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.reviews == nil {
		return errors.New("review repository is required")
	}
	if s.directory == nil {
		return errors.New("directory is required")
	}
	return nil
}

// reasonOf maps a refusal to a stable metrics label.
func reasonOf(err error) string {
	switch {
	case errors.Is(err, review.ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, review.ErrNoSupervisorAssigned):
		return "no_supervisor"
	case errors.Is(err, review.ErrInvalidRating):
		return "invalid_rating"
	case errors.Is(err, review.ErrUnauthorizedApprover):
		return "unauthorized"
	case errors.Is(err, review.ErrAlreadyDecided):
		return "already_decided"
	case errors.Is(err, review.ErrInvalidAction):
		return "invalid_action"
	case errors.Is(err, ports.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
