package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/domain/review"
	"appreview/internal/errs"
)

// SubmitReview accepts a review into the pending queue of the author's
// supervisor. Checks run in a fixed order and the first failure wins; a
// refused submission persists nothing.
func (s *Service) SubmitReview(ctx context.Context, input SubmitReviewInput) (SubmittedReview, error) {
	if err := s.check(ctx); err != nil {
		return SubmittedReview{}, err
	}
	if s.catalog == nil {
		return SubmittedReview{}, errors.New("catalog repository is required")
	}
	if s.uow == nil {
		return SubmittedReview{}, errors.New("moderation unit of work is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.moderation.submit"),
		slog.Uint64("author_id", input.AuthorID),
		slog.Uint64("entry_id", input.EntryID),
	)

	submitted, err := s.submit(ctx, input)
	if err != nil {
		s.metrics.OperationRejected("submit", reasonOf(err))
		logging.Warn(logCtx, "review submission refused", slog.Any("err", errs.Loggable(err)))
		return SubmittedReview{}, err
	}

	result := submitted.Review.Sentiment
	s.metrics.ReviewSubmitted(string(result.Label), result.Contradiction)
	logging.Info(logCtx, "review submitted",
		slog.Uint64("review_id", submitted.Review.ID),
		slog.String("sentiment", string(result.Label)),
		slog.Bool("contradiction", result.Contradiction),
	)
	return submitted, nil
}

func (s *Service) submit(ctx context.Context, input SubmitReviewInput) (SubmittedReview, error) {
	if input.AuthorID == 0 {
		return SubmittedReview{}, review.ErrNotAuthenticated
	}

	supervisor, found, err := s.directory.GetSupervisor(ctx, input.AuthorID)
	if err != nil {
		return SubmittedReview{}, errs.Wrap(err, "resolve supervisor")
	}
	if !found {
		return SubmittedReview{}, review.ErrNoSupervisorAssigned
	}

	if err := review.ValidateRating(input.Rating); err != nil {
		return SubmittedReview{}, err
	}

	body := strings.TrimSpace(input.Body)
	result := s.scorer.Score(body, input.Rating)
	record := review.Record{
		EntryID:   input.EntryID,
		AuthorID:  input.AuthorID,
		Body:      body,
		Rating:    input.Rating,
		Status:    review.StatusPending,
		CreatedAt: s.now().UTC(),
		Sentiment: &result,
	}

	var stored review.Record
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.catalog.GetEntry(txCtx, input.EntryID); err != nil {
			return err
		}
		created, err := s.reviews.CreateReview(txCtx, record)
		if err != nil {
			return err
		}
		stored = created
		return s.reviews.AppendEvent(txCtx, review.Event{
			ReviewID:  created.ID,
			ActorID:   created.AuthorID,
			Kind:      review.EventSubmitted,
			Note:      "sent to " + supervisor.Username,
			CreatedAt: created.CreatedAt,
		})
	}); err != nil {
		return SubmittedReview{}, err
	}

	return SubmittedReview{
		Review:         stored,
		SupervisorName: supervisor.DisplayName(),
	}, nil
}
