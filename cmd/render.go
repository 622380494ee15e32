package cmd

import (
	"fmt"
	"io"
	"strings"

	"appreview/internal/usecase/moderation"
)

func writeEntryDetail(w io.Writer, detail moderation.EntryDetail, signedIn bool) error {
	entry := detail.Entry
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", entry.Name)
	fmt.Fprintf(&b, "category: %s  genres: %s\n", entry.Category, entry.Genres)
	fmt.Fprintf(&b, "rating: %s  reviews: %d  installs: %s\n", formatOptionalFloat(entry.Rating), entry.ReviewCount, entry.Installs)
	fmt.Fprintf(&b, "type: %s  price: %s  content rating: %s\n", entry.Type, entry.Price, entry.ContentRating)
	if entry.CurrentVersion != "" || entry.AndroidVersion != "" {
		fmt.Fprintf(&b, "version: %s  android: %s\n", entry.CurrentVersion, entry.AndroidVersion)
	}

	switch {
	case !signedIn:
		b.WriteString("\nsign in to write a review\n")
	case detail.ViewerHasSupervisor:
		fmt.Fprintf(&b, "\nreviews you write go to %s for approval\n", detail.SupervisorName)
	default:
		b.WriteString("\nyou have no supervisor assigned and cannot submit reviews\n")
	}

	fmt.Fprintf(&b, "\napproved reviews (%d)\n", len(detail.ApprovedReviews))
	for _, item := range detail.ApprovedReviews {
		rec := item.Review
		fmt.Fprintf(&b, "  %s %s on %s\n    %s\n", stars(rec.Rating), item.AuthorName, rec.CreatedAt.Format("2006-01-02"), oneLine(rec.Body))
	}

	fmt.Fprintf(&b, "\nimported reviews (%d)\n", len(detail.ImportedReviews))
	for _, item := range detail.ImportedReviews {
		label := item.Sentiment
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(&b, "  [%s polarity=%s] %s\n", label, formatOptionalFloat(item.Polarity), oneLine(item.Text))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
