// Package worker mirrors the ledger to the spreadsheet export target in
// response to record-changed events.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grledger/internal/amqp"
	"grledger/internal/core"
	"grledger/internal/log"
	"grledger/internal/report"
	"grledger/internal/sheets"
	"grledger/internal/store"
)

// ExportWorker rewrites the transactions sheet and the yearly report sheets
// from the store whenever a transaction changes.
type ExportWorker struct {
	txs      *store.Collection[core.Transaction]
	exporter sheets.Exporter
	logger   *log.Logger
	now      func() time.Time

	mu         sync.Mutex
	lastExport time.Time
}

func NewExportWorker(txs *store.Collection[core.Transaction], exporter sheets.Exporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		txs:      txs,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
	}
}

// HandleRecordChanged processes a single change event from AMQP. Only
// transaction changes affect the exported sheets.
func (w *ExportWorker) HandleRecordChanged(ctx context.Context, msg *amqp.RecordChanged) error {
	if msg.Kind != amqp.KindTransaction {
		w.logger.DebugContext(ctx, "Ignoring change event", log.FieldKind, msg.Kind, log.FieldRecordID, msg.ID)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing change event",
		log.FieldRecordID, msg.ID,
		"action", msg.Action,
		"at", msg.At)

	if err := w.Export(ctx); err != nil {
		return fmt.Errorf("export after %s %s: %w", msg.Action, msg.ID, err)
	}
	return nil
}

// Export re-reads the transactions blob and rewrites every sheet.
func (w *ExportWorker) Export(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.txs.Load(ctx); err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	txs := w.txs.List()

	if _, err := w.exporter.WriteTransactions(ctx, txs); err != nil {
		return fmt.Errorf("write transactions: %w", err)
	}

	years := report.Years(txs, w.now())
	for _, year := range years {
		buckets, err := report.PeriodReport(txs, report.Query{Mode: core.ReportYearly, Year: year})
		if err != nil {
			return fmt.Errorf("build %d report: %w", year, err)
		}
		if _, err := w.exporter.WriteReport(ctx, year, buckets); err != nil {
			return fmt.Errorf("write %d report: %w", year, err)
		}
	}

	w.lastExport = w.now()
	w.logger.InfoContext(ctx, "Ledger exported", log.FieldCount, len(txs), "years", len(years))
	return nil
}

// LastExport reports when the last successful export finished.
func (w *ExportWorker) LastExport() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastExport
}

// StartupExport runs one export so the sheet catches up with changes made
// while the worker was down. Failures are logged, not returned.
func (w *ExportWorker) StartupExport(ctx context.Context) {
	if err := w.Export(ctx); err != nil {
		w.logger.Err(ctx, "Startup export failed", err)
	}
}

// PeriodicExport re-exports on a fixed interval in case events were lost.
// It returns when ctx is cancelled.
func (w *ExportWorker) PeriodicExport(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Export(ctx); err != nil {
				w.logger.Err(ctx, "Periodic export failed", err)
			}
		}
	}
}
