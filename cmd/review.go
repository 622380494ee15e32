package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"appreview/internal/bootstrap"
	"appreview/internal/bootstrap/logging"
	"appreview/internal/domain/review"
	"appreview/internal/domain/sentiment"
	"appreview/internal/errs"
	"appreview/internal/usecase/moderation"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Submit and moderate user reviews",
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a review for supervisor approval",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		author, _ := cmd.Flags().GetString("author")
		entry, _ := cmd.Flags().GetString("entry")
		rating, _ := cmd.Flags().GetInt("rating")
		body, err := resolveBody(cmd, false)
		if err != nil {
			return err
		}

		authorID, err := resolveUserID(ctx, svc, author)
		if err != nil {
			return err
		}
		entryID, err := resolveEntryID(ctx, svc, entry)
		if err != nil {
			return err
		}

		submitted, err := svc.Moderation.SubmitReview(ctx, moderation.SubmitReviewInput{
			AuthorID: authorID,
			EntryID:  entryID,
			Body:     body,
			Rating:   rating,
		})
		if err != nil {
			return errs.Wrap(err, "submit review")
		}

		rec := submitted.Review
		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"submitted review #%d status=%s %s\nsent to %s for approval\n",
			rec.ID,
			rec.Status,
			describeSentiment(rec.Sentiment),
			submitted.SupervisorName,
		); err != nil {
			return errs.Wrap(err, "write submit output")
		}
		return nil
	}),
}

func newReviewDecisionCmd(use string, action review.Action) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("%s a pending review as its author's supervisor", strings.ToUpper(use[:1])+use[1:]),
		RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
			ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

			supervisor, _ := cmd.Flags().GetString("supervisor")
			reviewID, _ := cmd.Flags().GetUint64("review")
			actorID, err := resolveUserID(ctx, svc, supervisor)
			if err != nil {
				return err
			}

			rec, err := svc.Moderation.ActOnReview(ctx, moderation.ActInput{
				ActorID:  actorID,
				ReviewID: reviewID,
				Action:   string(action),
			})
			if err != nil {
				return errs.Wrapf(err, "%s review", action)
			}

			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "review #%d is now %s\n", rec.ID, rec.Status); err != nil {
				return errs.Wrap(err, "write decision output")
			}
			return nil
		}),
	}
	cmd.Flags().String("supervisor", "", "Acting supervisor username")
	cmd.Flags().Uint64("review", 0, "Review id")
	_ = cmd.MarkFlagRequired("supervisor")
	_ = cmd.MarkFlagRequired("review")
	return cmd
}

var reviewPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List reviews waiting for a supervisor",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		supervisor, _ := cmd.Flags().GetString("supervisor")
		supervisorID, err := resolveUserID(ctx, svc, supervisor)
		if err != nil {
			return err
		}

		dashboard, err := svc.Moderation.Dashboard(ctx, supervisorID)
		if err != nil {
			return errs.Wrap(err, "load dashboard")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "supervising %d users, %d pending reviews\n", dashboard.SupervisedCount, len(dashboard.Pending)); err != nil {
			return errs.Wrap(err, "write pending output")
		}
		for _, item := range dashboard.Pending {
			rec := item.Review
			if _, err := fmt.Fprintf(
				out,
				"#%d %s %s by %s at %s %s\n    %s\n",
				rec.ID,
				item.EntryName,
				stars(rec.Rating),
				item.Author.DisplayName(),
				rec.CreatedAt.Format("2006-01-02 15:04"),
				describeSentiment(rec.Sentiment),
				oneLine(rec.Body),
			); err != nil {
				return errs.Wrap(err, "write pending output")
			}
		}
		return nil
	}),
}

var reviewRescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute stored review sentiment",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 0 {
			return errors.New("limit must not be negative")
		}

		updated, err := svc.Moderation.RescoreReviews(ctx, moderation.RescoreInput{
			OnlyUnscored: !all,
			Limit:        limit,
		})
		if err != nil {
			return errs.Wrap(err, "rescore reviews")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "rescored %d reviews\n", updated); err != nil {
			return errs.Wrap(err, "write rescore output")
		}
		return nil
	}),
}

var reviewHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a review's audit trail",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		reviewID, _ := cmd.Flags().GetUint64("review")
		events, err := svc.Moderation.ReviewHistory(ctx, reviewID)
		if err != nil {
			return errs.Wrap(err, "load review history")
		}
		return writeEvents(cmd, events)
	}),
}

var reviewEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Page the moderation trail across all reviews",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		after, _ := cmd.Flags().GetUint64("after")
		limit, _ := cmd.Flags().GetInt("limit")
		events, err := svc.Moderation.EventsAfter(ctx, after, limit)
		if err != nil {
			return errs.Wrap(err, "list events")
		}
		if err := writeEvents(cmd, events); err != nil {
			return err
		}
		if len(events) > 0 {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "next cursor: %d\n", events[len(events)-1].ID); err != nil {
				return errs.Wrap(err, "write events output")
			}
		}
		return nil
	}),
}

func writeEvents(cmd *cobra.Command, events []review.Event) error {
	for _, event := range events {
		line := fmt.Sprintf("%d  %s  review=#%d %s actor=%d", event.ID, event.CreatedAt.Format("2006-01-02 15:04:05"), event.ReviewID, event.Kind, event.ActorID)
		if event.Note != "" {
			line += " " + event.Note
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return errs.Wrap(err, "write events output")
		}
	}
	return nil
}

func describeSentiment(result *sentiment.Result) string {
	if result == nil {
		return "sentiment=unscored"
	}
	confidence := result.Confidence
	text := fmt.Sprintf(
		"sentiment=%s polarity=%.2f confidence=%s",
		result.Label,
		result.Polarity,
		sentiment.LevelOf(&confidence),
	)
	if result.Contradiction {
		text += " contradiction"
	}
	return text
}

func oneLine(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "(no text)"
	}
	const maxRunes = 100
	runes := []rune(text)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes-3]) + "..."
	}
	return text
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.AddCommand(reviewSubmitCmd)
	reviewSubmitCmd.Flags().String("author", "", "Author username")
	reviewSubmitCmd.Flags().String("entry", "", "Catalog entry id or exact name")
	reviewSubmitCmd.Flags().Int("rating", 0, "Star rating 1-5")
	reviewSubmitCmd.Flags().String("body", "", "Review text")
	reviewSubmitCmd.Flags().String("body-file", "", "Read review text from file")
	_ = reviewSubmitCmd.MarkFlagRequired("author")
	_ = reviewSubmitCmd.MarkFlagRequired("entry")
	_ = reviewSubmitCmd.MarkFlagRequired("rating")

	reviewCmd.AddCommand(newReviewDecisionCmd("approve", review.ActionApprove))
	reviewCmd.AddCommand(newReviewDecisionCmd("reject", review.ActionReject))

	reviewCmd.AddCommand(reviewPendingCmd)
	reviewPendingCmd.Flags().String("supervisor", "", "Supervisor username")
	_ = reviewPendingCmd.MarkFlagRequired("supervisor")

	reviewCmd.AddCommand(reviewHistoryCmd)
	reviewHistoryCmd.Flags().Uint64("review", 0, "Review id")
	_ = reviewHistoryCmd.MarkFlagRequired("review")

	reviewCmd.AddCommand(reviewEventsCmd)
	reviewEventsCmd.Flags().Uint64("after", 0, "Only events after this id")
	reviewEventsCmd.Flags().Int("limit", 50, "Maximum events (0 means no limit)")

	reviewCmd.AddCommand(reviewRescoreCmd)
	reviewRescoreCmd.Flags().Bool("all", false, "Rescore every review, not only unscored ones")
	reviewRescoreCmd.Flags().Int("limit", 0, "Maximum reviews to rescore (0 means no limit)")
}
