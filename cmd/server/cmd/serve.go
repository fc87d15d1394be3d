package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eventhub/internal/bootstrap"
	"eventhub/internal/metrics"
	httptransport "eventhub/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and activity worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				logger.Error().Err(err).Msg("close resources failed")
			}
		}()

		metrics.Init()
		server := &http.Server{
			Addr:              cfg.HTTPAddr(),
			Handler:           httptransport.NewRouter(app),
			ReadHeaderTimeout: 5 * time.Second,
		}

		serverErr := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", server.Addr).Msg("server starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
			close(serverErr)
		}()

		select {
		case err := <-serverErr:
			return err
		case <-ctx.Done():
		}

		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
		return nil
	},
}
