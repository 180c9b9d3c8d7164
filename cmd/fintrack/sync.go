package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func syncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror the transactions table into Google Sheets",
		Long: `Keep the configured Google Sheet equal to the transactions table.

The sheet is rewritten on startup, after every change event read from
AMQP_QUEUE (when AMQP_URL is set) and every SYNC_INTERVAL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := a.cfg

			writer, err := cli.NewSheetsWriter(ctx, cfg)
			if err != nil {
				return err
			}
			if writer == nil {
				return errors.New("sync needs GOOGLE_SPREADSHEET_ID")
			}
			if !cfg.AMQPEnabled() && cfg.SyncInterval == 0 {
				return errors.New("sync needs AMQP_URL or a non-zero SYNC_INTERVAL")
			}

			store, err := cli.OpenStore(ctx, cfg, a.logger)
			if err != nil {
				return err
			}

			var src worker.EventSource
			if cfg.AMQPEnabled() {
				client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
				if err != nil {
					return fmt.Errorf("connect to AMQP: %w", err)
				}
				defer client.Close()
				src = client
			}

			a.logger.WithComponent(log.ComponentWorker).InfoContext(ctx, "Starting sheet mirror",
				"amqp", cfg.AMQPEnabled(), "interval", cfg.SyncInterval)
			return worker.NewSyncWorker(store, writer, cfg.SyncInterval, a.logger).Run(ctx, src)
		},
	}
}
