package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"appreview/internal/bootstrap"
	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
	"appreview/internal/infrastructure/catalogcsv"
	catalogusecase "appreview/internal/usecase/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Import and search the app catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import apps and their reference reviews from CSV",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		appsFile, _ := cmd.Flags().GetString("apps")
		reviewsFile, _ := cmd.Flags().GetString("reviews")
		if strings.TrimSpace(appsFile) == "" && strings.TrimSpace(reviewsFile) == "" {
			return errors.New("nothing to import (set --apps and/or --reviews)")
		}

		var input catalogusecase.ImportInput
		if strings.TrimSpace(appsFile) != "" {
			entries, err := readCSVFile(appsFile, catalogcsv.ReadApps)
			if err != nil {
				return err
			}
			input.Entries = entries
		}
		if strings.TrimSpace(reviewsFile) != "" {
			reviews, err := readCSVFile(reviewsFile, catalogcsv.ReadReviews)
			if err != nil {
				return err
			}
			input.Reviews = reviews
		}

		result, err := svc.Catalog.Import(ctx, input)
		if err != nil {
			logging.Error(ctx, "catalog import failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "import catalog")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"entries created=%d existing=%d\nreviews created=%d existing=%d orphaned=%d\n",
			result.EntriesCreated,
			result.EntriesExisting,
			result.ReviewsCreated,
			result.ReviewsExisting,
			result.ReviewsOrphaned,
		); err != nil {
			return errs.Wrap(err, "write import output")
		}
		return nil
	}),
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entries by name, category or genre",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		page, _ := cmd.Flags().GetInt("page")
		result, err := svc.Catalog.Search(ctx, catalogusecase.SearchInput{
			Query: strings.Join(cmd.Flags().Args(), " "),
			Page:  page,
		})
		if err != nil {
			return errs.Wrap(err, "search catalog")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "%d results for %q (page %d of %d)\n", result.Total, result.Query, result.Page, result.PageCount); err != nil {
			return errs.Wrap(err, "write search output")
		}
		for _, entry := range result.Entries {
			if _, err := fmt.Fprintf(out, "%6d  %-40s %-20s rating=%s reviews=%d\n",
				entry.ID, entry.Name, entry.Category, formatOptionalFloat(entry.Rating), entry.ReviewCount); err != nil {
				return errs.Wrap(err, "write search output")
			}
		}
		return nil
	}),
}

var catalogSuggestCmd = &cobra.Command{
	Use:   "suggest <fragment>",
	Short: "Suggest entry names containing a fragment",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		names, err := svc.Catalog.Suggestions(ctx, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "suggest names")
		}
		for _, name := range names {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
				return errs.Wrap(err, "write suggest output")
			}
		}
		return nil
	}),
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <entry>",
	Short: "Show an entry with its approved and imported reviews",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		entryID, err := resolveEntryID(ctx, svc, cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		var viewerID uint64
		if viewer, _ := cmd.Flags().GetString("as"); strings.TrimSpace(viewer) != "" {
			viewerID, err = resolveUserID(ctx, svc, viewer)
			if err != nil {
				return err
			}
		}

		detail, err := svc.Moderation.EntryDetail(ctx, entryID, viewerID)
		if err != nil {
			return errs.Wrap(err, "load entry detail")
		}
		return writeEntryDetail(cmd.OutOrStdout(), detail, viewerID != 0)
	}),
}

func readCSVFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrapf(err, "open %q", path)
	}
	defer file.Close()

	items, err := read(file)
	if err != nil {
		return nil, errs.Wrapf(err, "read %q", path)
	}
	return items, nil
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.AddCommand(catalogImportCmd)
	catalogImportCmd.Flags().String("apps", "", "Apps CSV (googleplaystore.csv layout)")
	catalogImportCmd.Flags().String("reviews", "", "Reviews CSV (googleplaystore_user_reviews.csv layout)")

	catalogCmd.AddCommand(catalogSearchCmd)
	catalogSearchCmd.Flags().Int("page", 1, "Result page")

	catalogCmd.AddCommand(catalogSuggestCmd)

	catalogCmd.AddCommand(catalogShowCmd)
	catalogShowCmd.Flags().String("as", "", "View as this username")
}
