package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/seed"
	"expensetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	loc := cfg.Location()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store := cli.InitBackend(startCtx, logger, cfg)
	startCancel()
	defer cli.CloseBackend(logger, store)

	if cfg.SeedOnStart {
		if cfg.DataBackend == backend.MemoryBackend.String() {
			n, err := seed.Run(context.Background(), store.Store, cfg.DefaultOwner, loc, time.Now())
			if err != nil {
				logger.Error("Failed to seed sample data", log.FieldOperation, log.OpSeed, log.FieldError, err)
				os.Exit(1)
			}
			logger.Info("Sample data seeded", "count", n)
		} else {
			logger.Warn("SEED_ON_START only applies to the memory backend; use expensetracker-admin seed",
				"backend", cfg.DataBackend)
		}
	}

	// Events are optional for the API.
	var publisher services.EventPublisher
	amqpClient := cli.InitAMQP(logger, cfg, false)
	if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	svc := services.NewTransactionService(store.Store, publisher, services.WithLocation(loc))
	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		DefaultOwner:       cfg.DefaultOwner,
		Logger:             logger,
	}, svc, store.Store)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting expensetracker server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", loc.String(),
		"events", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
