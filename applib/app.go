package applib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

type Application struct {
	serverVersion string
	serverPort    int
	mux           *http.ServeMux
	logger        *slog.Logger
}

func NewApplication(serverVersion string, serverPort int, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	return &Application{
		serverVersion: serverVersion,
		serverPort:    serverPort,
		mux:           http.NewServeMux(),
		logger:        logger,
	}
}

func (app *Application) Version() string {
	return app.serverVersion
}

func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// HandleFunc registers a handler on the application's own mux. Patterns use
// the method-qualified form, e.g. "GET /api/stats".
func (app *Application) HandleFunc(pattern string, handler http.HandlerFunc) {
	app.mux.HandleFunc(pattern, handler)
}

func (app *Application) Handler() http.Handler {
	return app.mux
}

// Serve listens on the configured port until ctx is cancelled, then shuts
// the server down gracefully.
func (app *Application) Serve(ctx context.Context) error {
	listenAddr := fmt.Sprintf(":%d", app.serverPort)
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           app.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "addr", listenAddr, "version", app.serverVersion)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	app.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
