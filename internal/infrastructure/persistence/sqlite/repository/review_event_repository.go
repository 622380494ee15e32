package repository

import (
	"context"

	"appreview/internal/domain/review"
	"appreview/internal/errs"
	"appreview/internal/infrastructure/persistence/sqlite/model"
)

func (r *ReviewRepository) AppendEvent(ctx context.Context, event review.Event) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.ReviewEvent{
		ReviewID:  event.ReviewID,
		ActorID:   event.ActorID,
		Kind:      string(event.Kind),
		Note:      event.Note,
		CreatedAt: formatTime(event.CreatedAt),
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert review event")
	}
	return nil
}

func (r *ReviewRepository) ListReviewEvents(ctx context.Context, reviewID uint64) ([]review.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.ReviewEvent
	if err := db.Where("review_id = ?", reviewID).Order("event_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query review events")
	}
	return mapEvents(rows)
}

func (r *ReviewRepository) ListEventsAfter(ctx context.Context, afterEventID uint64, limit int) ([]review.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ReviewEvent{}).Where("event_id > ?", afterEventID).Order("event_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.ReviewEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query review events")
	}
	return mapEvents(rows)
}

func (r *ReviewRepository) LatestEventID(ctx context.Context) (uint64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var latest uint64
	if err := db.Model(&model.ReviewEvent{}).Select("COALESCE(MAX(event_id), 0)").Scan(&latest).Error; err != nil {
		return 0, errs.Wrap(err, "query latest review event")
	}
	return latest, nil
}

func mapEvents(rows []model.ReviewEvent) ([]review.Event, error) {
	items := make([]review.Event, 0, len(rows))
	for _, row := range rows {
		createdAt, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, review.Event{
			ID:        row.EventID,
			ReviewID:  row.ReviewID,
			ActorID:   row.ActorID,
			Kind:      review.EventKind(row.Kind),
			Note:      row.Note,
			CreatedAt: createdAt,
		})
	}
	return items, nil
}
