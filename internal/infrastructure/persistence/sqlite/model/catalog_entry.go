package model

type CatalogEntry struct {
	EntryID        uint64   `gorm:"column:entry_id;primaryKey;autoIncrement"`
	Name           string   `gorm:"column:name;size:255;not null;index"`
	Category       string   `gorm:"column:category;size:100;not null;default:''"`
	Rating         *float64 `gorm:"column:rating"`
	ReviewCount    int64    `gorm:"column:review_count;not null;default:0"`
	Size           string   `gorm:"column:size;size:50;not null;default:''"`
	Installs       string   `gorm:"column:installs;size:50;not null;default:''"`
	Type           string   `gorm:"column:type;size:20;not null;default:''"`
	Price          string   `gorm:"column:price;size:20;not null;default:''"`
	ContentRating  string   `gorm:"column:content_rating;size:50;not null;default:''"`
	Genres         string   `gorm:"column:genres;size:200;not null;default:''"`
	LastUpdated    string   `gorm:"column:last_updated;size:50;not null;default:''"`
	CurrentVersion string   `gorm:"column:current_version;size:50;not null;default:''"`
	AndroidVersion string   `gorm:"column:android_version;size:50;not null;default:''"`
}

func (CatalogEntry) TableName() string {
	return "catalog_entries"
}

type ImportedReview struct {
	ImportedReviewID uint64   `gorm:"column:imported_review_id;primaryKey;autoIncrement"`
	EntryID          uint64   `gorm:"column:entry_id;not null;index"`
	Text             string   `gorm:"column:text;type:text;not null"`
	Sentiment        string   `gorm:"column:sentiment;size:20;not null;default:''"`
	Polarity         *float64 `gorm:"column:polarity"`
	Subjectivity     *float64 `gorm:"column:subjectivity"`
}

func (ImportedReview) TableName() string {
	return "imported_reviews"
}
