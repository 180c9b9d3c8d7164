package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/export"
	"fintrack/internal/log"
)

func exportCmd(a *app) *cobra.Command {
	var (
		output   string
		toSheets bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every transaction as CSV",
		Long: `Write the whole transactions table as CSV, ignoring any dashboard filter.

With --sheets the same rows replace the contents of the configured Google Sheet.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := cli.OpenStore(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			txs, err := store.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("list transactions: %w", err)
			}

			if toSheets {
				w, err := cli.NewSheetsWriter(ctx, a.cfg)
				if err != nil {
					return err
				}
				if w == nil {
					return fmt.Errorf("google sheets export is not configured (set GOOGLE_SPREADSHEET_ID)")
				}
				return w.ReplaceRecords(ctx, append([][]string{export.Header}, export.Records(txs)...))
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			if err := export.WriteCSV(out, txs); err != nil {
				return err
			}
			a.logger.WithComponent(log.ComponentExport).InfoContext(ctx, "Exported transactions",
				log.FieldRows, len(txs), "output", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "push to the configured Google Sheet instead")
	return cmd
}
