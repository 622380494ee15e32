package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"appreview/internal/bootstrap"
	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
	"appreview/internal/usecase/supervisorconsole"
)

var consoleSupervisorCmd = &cobra.Command{
	Use:   "supervisor",
	Short: "Start the supervisor review console",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		username, _ := cmd.Flags().GetString("supervisor")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 5 * time.Second
		}

		supervisor, err := svc.Directory.Lookup(ctx, username)
		if err != nil {
			return errs.Wrapf(err, "resolve supervisor %q", username)
		}

		model := supervisorconsole.NewModel(ctx, svc.Moderation, supervisorconsole.Options{
			SupervisorID:    supervisor.ID,
			SupervisorName:  supervisor.DisplayName(),
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run supervisor console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleSupervisorCmd)
	consoleSupervisorCmd.Flags().String("supervisor", "", "Supervisor username")
	consoleSupervisorCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
	_ = consoleSupervisorCmd.MarkFlagRequired("supervisor")
}
