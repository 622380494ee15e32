package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"appreview/internal/domain/review"
	"appreview/internal/domain/sentiment"
	"appreview/internal/errs"
	"appreview/internal/infrastructure/persistence/sqlite/model"
	"appreview/internal/ports"
)

type ReviewRepository struct {
	db *gorm.DB
}

var _ ports.ReviewRepository = (*ReviewRepository)(nil)

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) CreateReview(ctx context.Context, record review.Record) (review.Record, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return review.Record{}, err
	}

	row := model.UserReview{
		EntryID:    record.EntryID,
		AuthorID:   record.AuthorID,
		Body:       record.Body,
		Rating:     record.Rating,
		Status:     string(record.Status),
		CreatedAt:  formatTime(record.CreatedAt),
		ApprovedBy: record.ApprovedBy,
		ApprovedAt: formatTimePtr(record.ApprovedAt),
	}
	applySentiment(&row, record.Sentiment)

	if err := db.Create(&row).Error; err != nil {
		return review.Record{}, errs.Wrap(err, "create user review")
	}
	return mapReview(row)
}

func (r *ReviewRepository) GetReview(ctx context.Context, reviewID uint64) (review.Record, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return review.Record{}, err
	}
	return getReviewByID(db, reviewID)
}

func (r *ReviewRepository) Decide(ctx context.Context, decided review.Record) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	if decided.ApprovedBy == nil || decided.ApprovedAt == nil {
		return errors.New("decided review requires approver and decision time")
	}

	result := db.Model(&model.UserReview{}).
		Where("review_id = ? AND status = ?", decided.ID, string(review.StatusPending)).
		Updates(map[string]any{
			"status":      string(decided.Status),
			"approved_by": *decided.ApprovedBy,
			"approved_at": formatTime(*decided.ApprovedAt),
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update review decision")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	current, err := getReviewByID(db, decided.ID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: review %d is %s", review.ErrAlreadyDecided, current.ID, current.Status)
}

func (r *ReviewRepository) ListPendingForAuthors(ctx context.Context, authorIDs []uint64) ([]review.Record, error) {
	if len(authorIDs) == 0 {
		return []review.Record{}, nil
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.UserReview
	if err := db.
		Where("author_id IN ? AND status = ?", authorIDs, string(review.StatusPending)).
		Order("created_at desc").
		Order("review_id desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query pending reviews")
	}
	return mapReviews(rows)
}

func (r *ReviewRepository) ListApprovedForEntry(ctx context.Context, entryID uint64) ([]review.Record, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.UserReview
	if err := db.
		Where("entry_id = ? AND status = ?", entryID, string(review.StatusApproved)).
		Order("created_at desc").
		Order("review_id desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query approved reviews")
	}
	return mapReviews(rows)
}

func (r *ReviewRepository) ListForRescore(ctx context.Context, onlyUnscored bool, limit int) ([]review.Record, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.UserReview{}).Order("review_id asc")
	if onlyUnscored {
		query = query.Where("sentiment_label IS NULL")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.UserReview
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query reviews for rescore")
	}
	return mapReviews(rows)
}

func (r *ReviewRepository) UpdateSentiment(ctx context.Context, reviewID uint64, result sentiment.Result) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	var row model.UserReview
	applySentiment(&row, &result)
	update := db.Model(&model.UserReview{}).
		Where("review_id = ?", reviewID).
		Updates(map[string]any{
			"sentiment_label":           row.SentimentLabel,
			"sentiment_polarity":        row.SentimentPolarity,
			"sentiment_subjectivity":    row.SentimentSubjectivity,
			"confidence_score":          row.ConfidenceScore,
			"has_contradiction":         row.HasContradiction,
			"text_sentiment_polarity":   row.TextSentimentPolarity,
			"rating_sentiment_polarity": row.RatingSentimentPolarity,
		})
	if update.Error != nil {
		return errs.Wrap(update.Error, "update review sentiment")
	}
	if update.RowsAffected == 0 {
		return fmt.Errorf("%w: review %d", ports.ErrNotFound, reviewID)
	}
	return nil
}

func getReviewByID(db *gorm.DB, reviewID uint64) (review.Record, error) {
	var row model.UserReview
	if err := db.Where("review_id = ?", reviewID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return review.Record{}, fmt.Errorf("%w: review %d", ports.ErrNotFound, reviewID)
		}
		return review.Record{}, errs.Wrap(err, "query review")
	}
	return mapReview(row)
}

func applySentiment(row *model.UserReview, result *sentiment.Result) {
	if result == nil {
		return
	}
	label := string(result.Label)
	polarity := result.Polarity
	subjectivity := result.Subjectivity
	confidence := result.Confidence
	textPolarity := result.TextPolarity
	ratingPolarity := result.RatingPolarity

	row.SentimentLabel = &label
	row.SentimentPolarity = &polarity
	row.SentimentSubjectivity = &subjectivity
	row.ConfidenceScore = &confidence
	row.HasContradiction = result.Contradiction
	row.TextSentimentPolarity = &textPolarity
	row.RatingSentimentPolarity = &ratingPolarity
}

func mapReviews(rows []model.UserReview) ([]review.Record, error) {
	items := make([]review.Record, 0, len(rows))
	for _, row := range rows {
		item, err := mapReview(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func mapReview(row model.UserReview) (review.Record, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return review.Record{}, err
	}
	approvedAt, err := parseTimePtr(row.ApprovedAt)
	if err != nil {
		return review.Record{}, err
	}

	record := review.Record{
		ID:         row.ReviewID,
		EntryID:    row.EntryID,
		AuthorID:   row.AuthorID,
		Body:       row.Body,
		Rating:     row.Rating,
		Status:     review.Status(row.Status),
		CreatedAt:  createdAt,
		ApprovedBy: row.ApprovedBy,
		ApprovedAt: approvedAt,
	}

	if row.SentimentLabel != nil {
		record.Sentiment = &sentiment.Result{
			Label:          sentiment.Label(*row.SentimentLabel),
			Polarity:       derefFloat(row.SentimentPolarity),
			Subjectivity:   derefFloat(row.SentimentSubjectivity),
			Confidence:     derefFloat(row.ConfidenceScore),
			Contradiction:  row.HasContradiction,
			TextPolarity:   derefFloat(row.TextSentimentPolarity),
			RatingPolarity: derefFloat(row.RatingSentimentPolarity),
		}
	}
	return record, nil
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
