package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/qaportal/internal/app"
	"github.com/geocoder89/qaportal/internal/config"
	"github.com/geocoder89/qaportal/internal/observability"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qaportal",
		Short:         "Q&A knowledge base API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the schema of the configured store and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create the admin account and default questions, then exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return seed(cmd.Context())
			},
		},
	)

	return root
}

func setup() (config.Config, *slog.Logger) {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	return cfg, log
}

// migrate opens the store, which applies migrations, and closes it again.
func migrate(ctx context.Context) error {
	cfg, log := setup()

	stores, err := app.OpenStores(ctx, cfg, nil, log)
	if err != nil {
		log.Error("migrate failed", "err", err)
		return err
	}
	stores.Close()

	log.Info("schema up to date", "store", cfg.StoreDriver)
	return nil
}

func seed(ctx context.Context) error {
	cfg, log := setup()
	cfg.SeedQuestions = true

	stores, err := app.OpenStores(ctx, cfg, nil, log)
	if err != nil {
		log.Error("seed failed", "err", err)
		return err
	}
	defer stores.Close()

	if err := app.Seed(ctx, cfg, stores, log); err != nil {
		log.Error("seed failed", "err", err)
		return err
	}
	return nil
}

func serve() error {
	cfg, log := setup()

	ctx := context.Background()

	if cfg.OTELEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			return err
		}
		defer func() {
			tctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(tctx)
		}()
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		return err
	}
	defer a.Close()

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", a.Stores.Database)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("server failed", "err", err)
		return err
	case <-stop:
	}
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
	return nil
}
