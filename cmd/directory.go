package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"appreview/internal/bootstrap"
	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
	directoryusecase "appreview/internal/usecase/directory"
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Manage the supervisor hierarchy",
}

var directoryAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign a supervisor to a user",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		username, _ := cmd.Flags().GetString("user")
		supervisor, _ := cmd.Flags().GetString("supervisor")
		userID, err := resolveUserID(ctx, svc, username)
		if err != nil {
			return err
		}
		supervisorID, err := resolveUserID(ctx, svc, supervisor)
		if err != nil {
			return err
		}

		if err := svc.Directory.AssignSupervisor(ctx, userID, supervisorID); err != nil {
			return errs.Wrap(err, "assign supervisor")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s now reports to %s\n", username, supervisor); err != nil {
			return errs.Wrap(err, "write assign output")
		}
		return nil
	}),
}

var directoryPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant or revoke supervisor privileges",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		username, _ := cmd.Flags().GetString("user")
		revoke, _ := cmd.Flags().GetBool("revoke")
		userID, err := resolveUserID(ctx, svc, username)
		if err != nil {
			return err
		}

		if err := svc.Directory.SetSupervisorFlag(ctx, userID, !revoke); err != nil {
			return errs.Wrap(err, "set supervisor flag")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s supervisor=%t\n", username, !revoke); err != nil {
			return errs.Wrap(err, "write promote output")
		}
		return nil
	}),
}

var directoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a user's supervisor and reports",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		username, _ := cmd.Flags().GetString("user")
		userID, err := resolveUserID(ctx, svc, username)
		if err != nil {
			return err
		}

		entry, _, err := svc.Directory.Entry(ctx, userID)
		if err != nil {
			return errs.Wrap(err, "load directory entry")
		}
		supervisor, hasSupervisor, err := svc.Directory.GetSupervisor(ctx, userID)
		if err != nil {
			return errs.Wrap(err, "load supervisor")
		}
		reports, err := svc.Directory.SupervisedSet(ctx, userID)
		if err != nil {
			return errs.Wrap(err, "load supervised users")
		}

		out := cmd.OutOrStdout()
		supervisorName := "(none)"
		if hasSupervisor {
			supervisorName = fmt.Sprintf("%s (%s)", supervisor.DisplayName(), supervisor.Username)
		}
		if _, err := fmt.Fprintf(out, "user: %s\nsupervisor privileges: %t\nsupervisor: %s\nreports: %d\n",
			username, entry.IsSupervisor, supervisorName, len(reports)); err != nil {
			return errs.Wrap(err, "write show output")
		}
		for _, report := range reports {
			if _, err := fmt.Fprintf(out, "  - %s (%s)\n", report.DisplayName(), report.Username); err != nil {
				return errs.Wrap(err, "write show output")
			}
		}
		return nil
	}),
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the sample organisation from a TOML file",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		path, _ := cmd.Flags().GetString("file")
		raw, err := os.ReadFile(path)
		if err != nil {
			return errs.Wrapf(err, "read seed file %q", path)
		}
		file, err := directoryusecase.ParseSeedFile(raw)
		if err != nil {
			return err
		}

		result, err := svc.Directory.Seed(ctx, file)
		if err != nil {
			logging.Error(ctx, "seed organisation failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "seed organisation")
		}

		out := cmd.OutOrStdout()
		for _, username := range result.Created {
			if _, err := fmt.Fprintf(out, "created %s\n", username); err != nil {
				return errs.Wrap(err, "write seed output")
			}
		}
		for _, username := range result.Updated {
			if _, err := fmt.Fprintf(out, "updated %s\n", username); err != nil {
				return errs.Wrap(err, "write seed output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(directoryCmd)

	directoryCmd.AddCommand(directoryAssignCmd)
	directoryAssignCmd.Flags().String("user", "", "Username to assign")
	directoryAssignCmd.Flags().String("supervisor", "", "Supervisor username")
	_ = directoryAssignCmd.MarkFlagRequired("user")
	_ = directoryAssignCmd.MarkFlagRequired("supervisor")

	directoryCmd.AddCommand(directoryPromoteCmd)
	directoryPromoteCmd.Flags().String("user", "", "Username")
	directoryPromoteCmd.Flags().Bool("revoke", false, "Revoke supervisor privileges instead")
	_ = directoryPromoteCmd.MarkFlagRequired("user")

	directoryCmd.AddCommand(directoryShowCmd)
	directoryShowCmd.Flags().String("user", "", "Username")
	_ = directoryShowCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("file", "configs/org_seed.toml", "Seed file path")
}
