// Package catalogcsv reads the Play Store apps and user reviews CSV exports.
// Columns are located by header name, so extra or reordered columns are fine.
package catalogcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"appreview/internal/domain/catalog"
	"appreview/internal/errs"
)

var (
	appColumns    = []string{"App"}
	reviewColumns = []string{"App", "Translated_Review"}
)

type header map[string]int

func readHeader(r *csv.Reader, required []string) (header, error) {
	names, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, errs.Wrap(err, "read csv header")
	}

	h := make(header, len(names))
	for i, name := range names {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := h[name]; !seen {
			h[name] = i
		}
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", name)
		}
	}
	return h, nil
}

func (h header) get(record []string, name string) string {
	idx, ok := h[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func newReader(src io.Reader) *csv.Reader {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true
	return r
}

// ReadApps parses the apps export. Rows without a name are skipped.
func ReadApps(src io.Reader) ([]catalog.Entry, error) {
	r := newReader(src)
	h, err := readHeader(r, appColumns)
	if err != nil {
		return nil, err
	}

	var entries []catalog.Entry
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Wrapf(err, "read apps csv line %d", line)
		}

		name := h.get(record, "App")
		if name == "" {
			continue
		}
		entries = append(entries, catalog.Entry{
			Name:           name,
			Category:       h.get(record, "Category"),
			Rating:         catalog.ParseOptionalFloat(h.get(record, "Rating")),
			ReviewCount:    catalog.ParseCount(h.get(record, "Reviews")),
			Size:           h.get(record, "Size"),
			Installs:       h.get(record, "Installs"),
			Type:           h.get(record, "Type"),
			Price:          h.get(record, "Price"),
			ContentRating:  h.get(record, "Content Rating"),
			Genres:         h.get(record, "Genres"),
			LastUpdated:    h.get(record, "Last Updated"),
			CurrentVersion: h.get(record, "Current Ver"),
			AndroidVersion: h.get(record, "Android Ver"),
		})
	}
	return entries, nil
}

// ReadReviews parses the user reviews export. Rows whose review text is
// blank or the literal "nan" carry no review and are skipped.
func ReadReviews(src io.Reader) ([]catalog.NamedReview, error) {
	r := newReader(src)
	h, err := readHeader(r, reviewColumns)
	if err != nil {
		return nil, err
	}

	var reviews []catalog.NamedReview
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Wrapf(err, "read reviews csv line %d", line)
		}

		name := h.get(record, "App")
		text := h.get(record, "Translated_Review")
		if name == "" || isMissing(text) {
			continue
		}
		sentiment := h.get(record, "Sentiment")
		if isMissing(sentiment) {
			sentiment = ""
		}
		reviews = append(reviews, catalog.NamedReview{
			EntryName: name,
			Review: catalog.ImportedReview{
				Text:         text,
				Sentiment:    sentiment,
				Polarity:     catalog.ParseOptionalFloat(h.get(record, "Sentiment_Polarity")),
				Subjectivity: catalog.ParseOptionalFloat(h.get(record, "Sentiment_Subjectivity")),
			},
		})
	}
	return reviews, nil
}

func isMissing(value string) bool {
	return value == "" || strings.EqualFold(value, "nan")
}
