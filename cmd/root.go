/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
)

var (
	cfgFile     string
	logLevel    string
	autoMigrate bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "appreview",
	Short:        "App catalog search with supervisor-moderated reviews",
	Long:         "Search an imported app catalog, submit reviews and moderate them through the supervisor hierarchy.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("log-level") {
			return nil
		}
		return applyLogLevel(cmd, logLevel)
	},
}

// applyLogLevel swaps the command's logger for one at the given level.
func applyLogLevel(cmd *cobra.Command, raw string) error {
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return err
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), logging.NewTextLogger(cmd.ErrOrStderr(), level)))
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	ctx = logging.WithLogger(ctx, logging.NewTextLogger(rootCmd.ErrOrStderr(), slog.LevelInfo))
	ctx = logging.WithAttrs(ctx, slog.String("app", "appreview"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error), overrides log.level")
	rootCmd.PersistentFlags().BoolVar(&autoMigrate, "auto-migrate", false, "Migrate the schema before running the command")
}
