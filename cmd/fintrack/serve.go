package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	logger := a.logger

	store, err := cli.OpenStore(ctx, a.cfg, logger)
	if err != nil {
		return err
	}
	svc := cli.NewTransactionService(store, cli.NewPublisher(ctx, a.cfg, logger))
	defer func() {
		if err := svc.Close(); err != nil {
			logger.ErrorContext(context.Background(), "Failed to close transaction service", log.FieldError, err)
		}
	}()

	sheetsWriter, err := cli.NewSheetsWriter(ctx, a.cfg)
	if err != nil {
		return err
	}

	srv, err := apphttp.NewServer(":"+a.cfg.Port, apphttp.Dependencies{
		Controller:         services.NewController(svc),
		Store:              svc,
		Sheets:             sheetsWriter,
		Logger:             logger,
		RateLimitPerMinute: a.cfg.RateLimitPerMinute,
	})
	if err != nil {
		return err
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 40 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting fintrack server",
			"port", a.cfg.Port, "backend", a.cfg.DataBackend, "sheets", sheetsWriter != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(context.Background(), "Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.InfoContext(context.Background(), "Server stopped gracefully")
	return nil
}
