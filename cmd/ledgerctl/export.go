package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grledger/internal/cli"
	"grledger/internal/store"
	"grledger/internal/worker"
)

func exportCommand(current func() *env) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write transactions and yearly reports to the spreadsheet once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := current()
			exporter, err := cli.NewExporter(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			w := worker.NewExportWorker(store.NewRecords(e.be.Store).Transactions, exporter, e.logger)
			if err := w.Export(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "exported at", w.LastExport().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
