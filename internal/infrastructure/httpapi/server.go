package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
)

type ServerOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type shutdownKey struct{}

// shutdownSignal is closed once the server begins shutting down. Shutdown
// does not wait for hijacked connections, so websocket handlers watch it.
func shutdownSignal(ctx context.Context) <-chan struct{} {
	closing, _ := ctx.Value(shutdownKey{}).(<-chan struct{})
	return closing
}

// Serve runs handler until ctx is canceled, then drains in-flight requests.
func Serve(ctx context.Context, handler http.Handler, options ServerOptions) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if options.ShutdownTimeout <= 0 {
		options.ShutdownTimeout = 10 * time.Second
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "httpapi.server"))

	listener, err := net.Listen("tcp", options.Addr)
	if err != nil {
		return errs.Wrapf(err, "listen on %s", options.Addr)
	}

	closing := make(chan struct{})
	baseCtx := context.WithValue(context.WithoutCancel(ctx), shutdownKey{}, (<-chan struct{})(closing))

	server := &http.Server{
		Handler:           handler,
		ReadTimeout:       options.ReadTimeout,
		ReadHeaderTimeout: options.ReadTimeout,
		WriteTimeout:      options.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(func() { close(closing) })

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()
	logging.Info(logCtx, "http server started", slog.String("addr", listener.Addr().String()))

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(err, "serve http")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), options.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(err, "shutdown http server")
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errs.Wrap(err, "serve http")
	}
	logging.Info(logCtx, "http server stopped")
	return nil
}
