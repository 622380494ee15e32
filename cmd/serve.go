package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"appreview/internal/bootstrap"
	"appreview/internal/bootstrap/config"
	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
	"appreview/internal/infrastructure/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *bootstrap.Services) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		ctx, err := watchLogLevel(ctx, cmd, app)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}

		router := httpapi.NewRouter(httpapi.Deps{
			Catalog:    svc.Catalog,
			Moderation: svc.Moderation,
			Accounts:   svc.Accounts,
			Observer:   svc.Metrics,
			Metrics:    promhttp.HandlerFor(svc.Metrics.Registry(), promhttp.HandlerOpts{}),

			StreamInterval: app.Config.HTTP.StreamInterval,
		})

		if err := httpapi.Serve(ctx, router, httpapi.ServerOptions{
			Addr:            addr,
			ReadTimeout:     app.Config.HTTP.ReadTimeout,
			WriteTimeout:    app.Config.HTTP.WriteTimeout,
			ShutdownTimeout: app.Config.HTTP.ShutdownTimeout,
		}); err != nil {
			logging.Error(ctx, "http server failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "serve http")
		}

		logging.Info(ctx, "http server stopped")
		return nil
	}),
}

// watchLogLevel installs a logger whose level follows log.level in the
// config file while the server runs. An explicit --log-level pins it.
func watchLogLevel(ctx context.Context, cmd *cobra.Command, app *bootstrap.App) (context.Context, error) {
	raw := app.Config.Log.Level
	pinned := cmd.Flags().Changed("log-level")
	if pinned {
		raw = logLevel
	}
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return ctx, err
	}

	var levelVar slog.LevelVar
	levelVar.Set(level)
	ctx = logging.WithLogger(ctx, logging.NewTextLogger(cmd.ErrOrStderr(), &levelVar))
	if pinned || cfgFile == "" {
		return ctx, nil
	}

	err = config.Watch(ctx, cfgFile, func(cfg config.Config) {
		next, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil || next == levelVar.Level() {
			return
		}
		levelVar.Set(next)
		logging.Info(ctx, "log level reloaded", slog.String("level", next.String()))
	})
	if err != nil {
		logging.Warn(ctx, "config watch disabled", slog.Any("err", errs.Loggable(err)))
	}
	return ctx, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default: http.addr from config)")
}
