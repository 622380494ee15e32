// Package catalog describes the read-only application catalog and the reference
// reviews imported alongside it.
package catalog

import (
	"math"
	"strconv"
	"strings"
)

type Entry struct {
	ID             uint64
	Name           string
	Category       string
	Rating         *float64
	ReviewCount    int64
	Size           string
	Installs       string
	Type           string
	Price          string
	ContentRating  string
	Genres         string
	LastUpdated    string
	CurrentVersion string
	AndroidVersion string
}

// Document is the text the search ranker compares a query against.
func (e Entry) Document() string {
	return strings.TrimSpace(e.Name + " " + e.Category + " " + e.Genres)
}

// ImportedReview is third-party reference data shown next to moderated reviews.
type ImportedReview struct {
	ID           uint64
	EntryID      uint64
	Text         string
	Sentiment    string
	Polarity     *float64
	Subjectivity *float64
}

// ParseOptionalFloat coerces raw CSV values; blanks, "NaN" and garbage yield nil.
func ParseOptionalFloat(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

// ParseCount coerces a review count, falling back to zero.
func ParseCount(raw string) int64 {
	value := ParseOptionalFloat(strings.ReplaceAll(raw, ",", ""))
	if value == nil || *value < 0 {
		return 0
	}
	return int64(*value)
}

// NamedReview is an imported review that still refers to its entry by name,
// as it does in the source data set.
type NamedReview struct {
	EntryName string
	Review    ImportedReview
}
