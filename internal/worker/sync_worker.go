// Package worker keeps a Google Sheet in step with the transactions table.
//
// Every change event triggers a full rewrite of the sheet from the store, so
// a lost or duplicated event is repaired by the next one, and the periodic
// resync covers the gaps left while no events arrive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// Lister reads every stored transaction.
type Lister interface {
	ListAll(ctx context.Context) ([]core.Transaction, error)
}

// EventSource delivers change events until ctx is done.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, amqp.TransactionEvent) error) error
}

// SyncWorker mirrors the store into a sheet.
type SyncWorker struct {
	store    Lister
	writer   sheets.RecordsWriter
	interval time.Duration
	logger   *log.Logger
}

func NewSyncWorker(store Lister, writer sheets.RecordsWriter, interval time.Duration, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		store:    store,
		writer:   writer,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Sync rewrites the sheet with the whole table and returns the row count.
func (w *SyncWorker) Sync(ctx context.Context) (int, error) {
	txs, err := w.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}
	rows := append([][]string{export.Header}, export.Records(txs)...)
	if err := w.writer.ReplaceRecords(ctx, rows); err != nil {
		return 0, fmt.Errorf("replace sheet records: %w", err)
	}
	return len(txs), nil
}

// HandleEvent processes one change event from the queue.
func (w *SyncWorker) HandleEvent(ctx context.Context, e amqp.TransactionEvent) error {
	n, err := w.Sync(ctx)
	if err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Mirrored transactions after change event",
		"type", e.Type,
		log.FieldTransactionID, e.ID,
		log.FieldRows, n)
	return nil
}

// Run performs a startup sync, then consumes events from src (when non-nil)
// and resyncs on every interval tick until ctx is done. A failed startup or
// periodic sync is logged and retried on the next tick.
func (w *SyncWorker) Run(ctx context.Context, src EventSource) error {
	w.syncAndLog(ctx, "Startup sync")

	errCh := make(chan error, 1)
	if src != nil {
		go func() {
			errCh <- src.ConsumeTransactionEvents(ctx, w.HandleEvent)
		}()
	}

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("consume events: %w", err)
		case <-tick:
			w.syncAndLog(ctx, "Periodic sync")
		}
	}
}

func (w *SyncWorker) syncAndLog(ctx context.Context, what string) {
	start := time.Now()
	n, err := w.Sync(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, what+" failed", log.FieldError, err)
		return
	}
	w.logger.InfoContext(ctx, what+" completed", log.FieldRows, n, log.FieldDuration, time.Since(start).Milliseconds())
}
