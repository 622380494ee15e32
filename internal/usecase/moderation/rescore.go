package moderation

import (
	"context"
	"log/slog"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
)

// RescoreReviews recomputes stored sentiment with the current scorer. Status
// and decision fields are never touched.
func (s *Service) RescoreReviews(ctx context.Context, input RescoreInput) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.moderation.rescore"))

	records, err := s.reviews.ListForRescore(ctx, input.OnlyUnscored, input.Limit)
	if err != nil {
		return 0, errs.Wrap(err, "list reviews for rescore")
	}

	updated := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return updated, errs.Wrap(err, "check context")
		}
		if err := s.reviews.UpdateSentiment(ctx, rec.ID, s.scorer.Score(rec.Body, rec.Rating)); err != nil {
			return updated, errs.Wrapf(err, "rescore review %d", rec.ID)
		}
		updated++
	}

	logging.Info(logCtx, "reviews rescored", slog.Int("count", updated), slog.Bool("only_unscored", input.OnlyUnscored))
	return updated, nil
}
