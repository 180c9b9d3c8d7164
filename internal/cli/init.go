// Package cli provides the initialization steps shared by the fintrack
// subcommands.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg and makes it the slog
// default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)
	return logger
}

// OpenStore returns the configured record store, initialized and ready.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (services.Store, error) {
	var store services.Store
	switch cfg.DataBackend {
	case "memory":
		if cfg.MemorySeedFile == "" {
			store = memory.New()
			break
		}
		s, err := memory.NewFromFile(cfg.MemorySeedFile)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		s, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, err
		}
		store = s
	}

	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize %s store: %w", cfg.DataBackend, err)
	}
	logger.WithComponent(log.ComponentStorage).InfoContext(ctx, "Record store ready", "backend", cfg.DataBackend)
	return store, nil
}

// NewPublisher dials RabbitMQ when AMQP is configured. A failed dial is
// logged and yields no publisher, so the tracker keeps working offline.
func NewPublisher(ctx context.Context, cfg *config.Config, logger *log.Logger) *amqp.Client {
	if !cfg.AMQPEnabled() {
		return nil
	}
	l := logger.WithComponent(log.ComponentAMQP)
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		l.ErrorContext(ctx, "AMQP unavailable, change events disabled", log.FieldError, err)
		return nil
	}
	l.InfoContext(ctx, "Publishing change events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// NewSheetsWriter returns the Google Sheets export target, or nil when it is
// not configured.
func NewSheetsWriter(ctx context.Context, cfg *config.Config) (sheets.RecordsWriter, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	client, err := google.New(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("google sheets: %w", err)
	}
	return client, nil
}

// NewTransactionService wraps store so that mutations publish change events
// when publisher is non-nil.
func NewTransactionService(store services.Store, publisher *amqp.Client) *services.TransactionService {
	if publisher == nil {
		return services.NewTransactionService(store, nil)
	}
	return services.NewTransactionService(store, publisher)
}
