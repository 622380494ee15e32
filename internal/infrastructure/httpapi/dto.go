package httpapi

import (
	"time"

	"appreview/internal/domain/catalog"
	"appreview/internal/domain/directory"
	"appreview/internal/domain/review"
	"appreview/internal/domain/sentiment"
	catalogusecase "appreview/internal/usecase/catalog"
	"appreview/internal/usecase/moderation"
)

type entryDTO struct {
	ID             uint64   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Rating         *float64 `json:"rating"`
	ReviewCount    int64    `json:"review_count"`
	Size           string   `json:"size,omitempty"`
	Installs       string   `json:"installs,omitempty"`
	Type           string   `json:"type,omitempty"`
	Price          string   `json:"price,omitempty"`
	ContentRating  string   `json:"content_rating,omitempty"`
	Genres         string   `json:"genres,omitempty"`
	LastUpdated    string   `json:"last_updated,omitempty"`
	CurrentVersion string   `json:"current_version,omitempty"`
	AndroidVersion string   `json:"android_version,omitempty"`
}

func toEntryDTO(e catalog.Entry) entryDTO {
	return entryDTO{
		ID:             e.ID,
		Name:           e.Name,
		Category:       e.Category,
		Rating:         e.Rating,
		ReviewCount:    e.ReviewCount,
		Size:           e.Size,
		Installs:       e.Installs,
		Type:           e.Type,
		Price:          e.Price,
		ContentRating:  e.ContentRating,
		Genres:         e.Genres,
		LastUpdated:    e.LastUpdated,
		CurrentVersion: e.CurrentVersion,
		AndroidVersion: e.AndroidVersion,
	}
}

type searchPageDTO struct {
	Query       string     `json:"query"`
	Results     []entryDTO `json:"results"`
	Page        int        `json:"page"`
	PageCount   int        `json:"page_count"`
	Total       int        `json:"total"`
	HasNext     bool       `json:"has_next"`
	HasPrevious bool       `json:"has_previous"`
}

func toSearchPageDTO(page catalogusecase.SearchPage) searchPageDTO {
	results := make([]entryDTO, 0, len(page.Entries))
	for _, entry := range page.Entries {
		results = append(results, toEntryDTO(entry))
	}
	return searchPageDTO{
		Query:       page.Query,
		Results:     results,
		Page:        page.Page,
		PageCount:   page.PageCount,
		Total:       page.Total,
		HasNext:     page.HasNext(),
		HasPrevious: page.HasPrevious(),
	}
}

type sentimentDTO struct {
	Label           string  `json:"label"`
	Polarity        float64 `json:"polarity"`
	Subjectivity    float64 `json:"subjectivity"`
	Confidence      float64 `json:"confidence"`
	ConfidenceLevel string  `json:"confidence_level"`
	Contradiction   bool    `json:"contradiction"`
	TextPolarity    float64 `json:"text_polarity"`
	RatingPolarity  float64 `json:"rating_polarity"`
}

func toSentimentDTO(result *sentiment.Result) *sentimentDTO {
	if result == nil {
		return nil
	}
	confidence := result.Confidence
	return &sentimentDTO{
		Label:           string(result.Label),
		Polarity:        result.Polarity,
		Subjectivity:    result.Subjectivity,
		Confidence:      result.Confidence,
		ConfidenceLevel: string(sentiment.LevelOf(&confidence)),
		Contradiction:   result.Contradiction,
		TextPolarity:    result.TextPolarity,
		RatingPolarity:  result.RatingPolarity,
	}
}

type reviewDTO struct {
	ID         uint64        `json:"id"`
	EntryID    uint64        `json:"entry_id"`
	AuthorID   uint64        `json:"author_id"`
	AuthorName string        `json:"author_name,omitempty"`
	Body       string        `json:"body"`
	Rating     int           `json:"rating"`
	Status     string        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ApprovedBy *uint64       `json:"approved_by,omitempty"`
	ApprovedAt *time.Time    `json:"approved_at,omitempty"`
	Sentiment  *sentimentDTO `json:"sentiment,omitempty"`
}

func toReviewDTO(r review.Record) reviewDTO {
	return reviewDTO{
		ID:         r.ID,
		EntryID:    r.EntryID,
		AuthorID:   r.AuthorID,
		Body:       r.Body,
		Rating:     r.Rating,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		ApprovedBy: r.ApprovedBy,
		ApprovedAt: r.ApprovedAt,
		Sentiment:  toSentimentDTO(r.Sentiment),
	}
}

type importedReviewDTO struct {
	Text         string   `json:"text"`
	Sentiment    string   `json:"sentiment,omitempty"`
	Polarity     *float64 `json:"polarity"`
	Subjectivity *float64 `json:"subjectivity"`
}

type entryDetailDTO struct {
	Entry               entryDTO            `json:"entry"`
	ImportedReviews     []importedReviewDTO `json:"imported_reviews"`
	Reviews             []reviewDTO         `json:"reviews"`
	ViewerHasSupervisor bool                `json:"viewer_has_supervisor"`
	SupervisorName      string              `json:"supervisor_name,omitempty"`
}

func toEntryDetailDTO(detail moderation.EntryDetail) entryDetailDTO {
	imported := make([]importedReviewDTO, 0, len(detail.ImportedReviews))
	for _, item := range detail.ImportedReviews {
		imported = append(imported, importedReviewDTO{
			Text:         item.Text,
			Sentiment:    item.Sentiment,
			Polarity:     item.Polarity,
			Subjectivity: item.Subjectivity,
		})
	}
	reviews := make([]reviewDTO, 0, len(detail.ApprovedReviews))
	for _, item := range detail.ApprovedReviews {
		dto := toReviewDTO(item.Review)
		dto.AuthorName = item.AuthorName
		reviews = append(reviews, dto)
	}
	return entryDetailDTO{
		Entry:               toEntryDTO(detail.Entry),
		ImportedReviews:     imported,
		Reviews:             reviews,
		ViewerHasSupervisor: detail.ViewerHasSupervisor,
		SupervisorName:      detail.SupervisorName,
	}
}

type pendingReviewDTO struct {
	reviewDTO
	EntryName string `json:"entry_name"`
}

type dashboardDTO struct {
	Pending         []pendingReviewDTO `json:"pending"`
	SupervisedCount int                `json:"supervised_count"`
}

func toDashboardDTO(dashboard moderation.Dashboard) dashboardDTO {
	pending := make([]pendingReviewDTO, 0, len(dashboard.Pending))
	for _, item := range dashboard.Pending {
		dto := toReviewDTO(item.Review)
		dto.AuthorName = item.Author.DisplayName()
		pending = append(pending, pendingReviewDTO{reviewDTO: dto, EntryName: item.EntryName})
	}
	return dashboardDTO{Pending: pending, SupervisedCount: dashboard.SupervisedCount}
}

type userDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

func toUserDTO(u directory.User) userDTO {
	return userDTO{ID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName}
}
