package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/pagination-go/pkg/metrics"
)

func newServeCommand(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "Serve pages of the data source over HTTP",
		Long: `Serve pages of the configured data source:

  GET /pages/{n}  page n as JSON, with the rendered navigation markup
  GET /health     liveness
  GET /metrics    Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           a.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info().Str("addr", srv.Addr).Msg("Starting pagination server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				a.logger.Info().Msg("Shutting down pagination server")
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&port, "port", "8080", "listen port")
	return cmd
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /pages/{n}", a.pageHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (a *app) pageHandler(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		http.Error(w, "invalid page number", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
	defer cancel()

	view, err := a.loadPage(ctx, n)
	if errors.Is(err, errOutOfRange) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		a.logger.Warn().Err(err).Int("page", n).Msg("Page request failed")
		http.Error(w, fmt.Sprintf("page request failed: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		a.logger.Error().Err(err).Msg("Failed to write response")
	}
}
