package model

// UserReview stores a moderated review. The sentiment columns are all null
// until the review is scored.
type UserReview struct {
	ReviewID   uint64  `gorm:"column:review_id;primaryKey;autoIncrement"`
	EntryID    uint64  `gorm:"column:entry_id;not null;index:idx_user_reviews_entry_status,priority:1"`
	AuthorID   uint64  `gorm:"column:author_id;not null;index:idx_user_reviews_author_status,priority:1"`
	Body       string  `gorm:"column:body;type:text;not null"`
	Rating     int     `gorm:"column:rating;not null"`
	Status     string  `gorm:"column:status;size:20;not null;index:idx_user_reviews_entry_status,priority:2;index:idx_user_reviews_author_status,priority:2"`
	CreatedAt  string  `gorm:"column:created_at;size:40;not null"`
	ApprovedBy *uint64 `gorm:"column:approved_by"`
	ApprovedAt *string `gorm:"column:approved_at;size:40"`

	SentimentLabel          *string  `gorm:"column:sentiment_label;size:20"`
	SentimentPolarity       *float64 `gorm:"column:sentiment_polarity"`
	SentimentSubjectivity   *float64 `gorm:"column:sentiment_subjectivity"`
	ConfidenceScore         *float64 `gorm:"column:confidence_score"`
	HasContradiction        bool     `gorm:"column:has_contradiction;not null;default:false"`
	TextSentimentPolarity   *float64 `gorm:"column:text_sentiment_polarity"`
	RatingSentimentPolarity *float64 `gorm:"column:rating_sentiment_polarity"`
}

func (UserReview) TableName() string {
	return "user_reviews"
}
