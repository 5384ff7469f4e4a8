package cli

import (
	"context"

	"grledger/internal/config"
	"grledger/internal/log"
	"grledger/internal/sheets"
	gsheet "grledger/internal/sheets/google"
	"grledger/internal/sheets/memory"
)

// NewExporter returns the Google Sheets exporter when a spreadsheet is
// configured and an in-memory one otherwise, so the export path still runs
// in development.
func NewExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.Exporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting to memory only")
		return memory.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		CredentialsFile:   cfg.GoogleServiceAccountFile,
		CredentialsJSON:   cfg.GoogleServiceAccountJSON,
		TransactionsRange: cfg.SheetsTransactionsRange,
		ReportRange:       cfg.SheetsReportRange,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
