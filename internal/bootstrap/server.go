package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Domenick1991/compoundaccess/api"
	"github.com/Domenick1991/compoundaccess/config"
)

const shutdownTimeout = 5 * time.Second

// Run serves the HTTP API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, handlers api.Handlers) error {
	srv := newServer(cfg, handlers)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("http server listening on %s", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServer(cfg *config.Config, handlers api.Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(handlers, cfg.HTTP),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
