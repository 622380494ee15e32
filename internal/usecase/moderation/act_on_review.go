package moderation

import (
	"context"
	"errors"
	"log/slog"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/domain/review"
	"appreview/internal/errs"
)

// ActOnReview approves or rejects a pending review on behalf of the author's
// supervisor. Authorization is checked before the review's state, so an
// outsider learns nothing about already-decided reviews.
func (s *Service) ActOnReview(ctx context.Context, input ActInput) (review.Record, error) {
	if err := s.check(ctx); err != nil {
		return review.Record{}, err
	}
	if s.uow == nil {
		return review.Record{}, errors.New("moderation unit of work is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.moderation.act"),
		slog.Uint64("actor_id", input.ActorID),
		slog.Uint64("review_id", input.ReviewID),
		slog.String("action", input.Action),
	)

	decided, err := s.act(ctx, input)
	if err != nil {
		s.metrics.OperationRejected("act", reasonOf(err))
		logging.Warn(logCtx, "review action refused", slog.Any("err", errs.Loggable(err)))
		return review.Record{}, err
	}

	s.metrics.ReviewDecided(string(decided.Status))
	logging.Info(logCtx, "review decided", slog.String("status", string(decided.Status)))
	return decided, nil
}

func (s *Service) act(ctx context.Context, input ActInput) (review.Record, error) {
	if input.ActorID == 0 {
		return review.Record{}, review.ErrNotAuthenticated
	}
	action, err := review.ParseAction(input.Action)
	if err != nil {
		return review.Record{}, err
	}

	var decided review.Record
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.reviews.GetReview(txCtx, input.ReviewID)
		if err != nil {
			return err
		}

		actor, _, err := s.directory.Entry(txCtx, input.ActorID)
		if err != nil {
			return errs.Wrap(err, "load actor directory entry")
		}
		author, _, err := s.directory.Entry(txCtx, current.AuthorID)
		if err != nil {
			return errs.Wrap(err, "load author directory entry")
		}
		if err := review.Authorize(input.ActorID, actor.IsSupervisor, author.SupervisorID); err != nil {
			return err
		}

		next, err := review.Decide(current, action, input.ActorID, s.now())
		if err != nil {
			return err
		}
		if err := s.reviews.Decide(txCtx, next); err != nil {
			return err
		}
		decided = next
		return s.reviews.AppendEvent(txCtx, review.DecisionEvent(next))
	})
	return decided, err
}
