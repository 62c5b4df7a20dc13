package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docqa/internal/api"
	"docqa/internal/logging"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addrHost string
	var addrPort int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API over an in-memory document store.

Documents live only as long as the process.

Examples:
  docqa serve
  docqa serve --port 9090
  DOCQA_EMBEDDER_TYPE=ollama docqa serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = addrHost
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = addrPort
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			svc, err := buildService(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			server, err := api.NewServer(svc, svc.Metrics(), logger.Named("http"), &api.Config{
				Host:           cfg.Server.Host,
				Port:           cfg.Server.Port,
				RequestTimeout: cfg.Server.RequestTimeout,
			})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server starting", zap.String("addr", cfg.Server.Addr()))
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addrHost, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&addrPort, "port", 0, "listen port (overrides server.port)")
	return cmd
}
