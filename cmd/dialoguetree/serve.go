package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/internal/cli"
	"github.com/aretw0/dialoguetree/internal/metrics"
	"github.com/aretw0/dialoguetree/internal/presentation/tui"
	httpAdapter "github.com/aretw0/dialoguetree/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves asset storage, compilation and graph editing as a JSON API over HTTP.
Prometheus metrics are exposed on /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		backend, err := a.backend(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		collector := metrics.New()
		handler := httpAdapter.NewHandler(a.sessions(backend, dialoguetree.WithMetrics(collector)),
			httpAdapter.WithLogger(a.logger),
			httpAdapter.WithMetricsHandler(collector.Handler()),
			httpAdapter.WithCompileOptions(a.builderOptions(dialoguetree.WithMetrics(collector))...),
		)

		srv := &http.Server{
			Addr:    a.cfg.Server.Addr,
			Handler: handler,
		}

		tui.NewPrinter(cmd.ErrOrStderr()).PrintBanner()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("Starting dialoguetree server",
				"addr", srv.Addr,
				"store", backend.Kind,
				"locking", backend.Locker != nil,
			)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			a.logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("Graceful shutdown did not complete", "timeout", a.cfg.Server.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			a.logger.Info("dialoguetree server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides server.addr)")
}
