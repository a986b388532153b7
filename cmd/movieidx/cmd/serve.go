package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/movieidx/internal/transport/chi"
	textindexuc "github.com/kailas-cloud/movieidx/internal/usecase/textindex"
	"github.com/kailas-cloud/movieidx/internal/version"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var applyOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				return serve(cmd.Context(), a, applyOnStart)
			})
		},
	}
	cmd.Flags().BoolVar(&applyOnStart, "apply", false, "Apply the index before accepting requests")

	return cmd
}

func serve(ctx context.Context, a *app, applyOnStart bool) error {
	cfg := a.cfg
	logger := a.logger

	logger.Info("Starting movieidx admin server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("index", a.index.Desired().Name()),
	)

	if applyOnStart {
		res, err := a.index.Apply(ctx, textindexuc.ApplyOptions{})
		if err != nil {
			return fmt.Errorf("apply on start: %w", err)
		}
		logger.Info("Index applied", zap.String("outcome", string(res.Outcome)))
	}

	server := chiTransport.NewServer(a.index, a.health, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(cfg.Auth.APIKeys),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
		logger.Info("Context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
