package sheets

import (
	"context"

	"grledger/internal/core"
)

// Ports for outbound adapters.
type (
	// Exporter mirrors the ledger into a spreadsheet. Each call replaces the
	// target range wholesale and returns the A1 range it wrote.
	Exporter interface {
		WriteTransactions(ctx context.Context, txs []core.Transaction) (rng string, err error)
		WriteReport(ctx context.Context, year int, buckets []core.Bucket) (rng string, err error)
	}
)
