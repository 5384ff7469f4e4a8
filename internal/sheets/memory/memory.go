// Package memory is an in-process Exporter used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"grledger/internal/core"
	ports "grledger/internal/sheets"
)

var _ ports.Exporter = (*Exporter)(nil)

// Exporter keeps the last rows written to each range.
type Exporter struct {
	mu     sync.Mutex
	ranges map[string][][]any
	writes int
	err    error
}

func New() *Exporter {
	return &Exporter{ranges: map[string][][]any{}}
}

// FailWith makes subsequent writes return err. Pass nil to recover.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

func (e *Exporter) WriteTransactions(_ context.Context, txs []core.Transaction) (string, error) {
	return e.store("Transaksi!A1", ports.TransactionRows(txs))
}

func (e *Exporter) WriteReport(_ context.Context, year int, buckets []core.Bucket) (string, error) {
	return e.store(fmt.Sprintf("'%d Laporan'!A1", year), ports.ReportRows(buckets))
}

func (e *Exporter) store(rng string, rows [][]any) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	e.ranges[rng] = rows
	e.writes++
	return rng, nil
}

// Rows returns what was last written to rng.
func (e *Exporter) Rows(rng string) [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ranges[rng]
}

// Writes counts successful writes.
func (e *Exporter) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes
}
