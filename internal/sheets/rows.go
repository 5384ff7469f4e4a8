// Package sheets turns ledger data into spreadsheet rows and defines the
// export port implemented by the Google and in-memory adapters.
package sheets

import (
	"cmp"
	"slices"

	"grledger/internal/core"
	"grledger/internal/report"
)

var (
	TransactionHeader = []any{"ID", "Tanggal", "Jenis", "Kategori", "Jumlah", "Catatan"}
	ReportHeader      = []any{"Bulan", "Pemasukan", "Pengeluaran", "Laba"}
)

// TransactionRows renders a header row plus one row per transaction, oldest
// first. Transactions on the same day keep their stored order.
func TransactionRows(txs []core.Transaction) [][]any {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})

	rows := make([][]any, 0, len(sorted)+1)
	rows = append(rows, TransactionHeader)
	for _, t := range sorted {
		rows = append(rows, []any{t.ID, t.Date.Format(core.DateLayout), string(t.Type), t.Category, t.Amount, t.Note})
	}
	return rows
}

// ReportRows renders a year of monthly buckets followed by a total row.
func ReportRows(buckets []core.Bucket) [][]any {
	sorted := slices.Clone(buckets)
	slices.SortFunc(sorted, func(a, b core.Bucket) int { return cmp.Compare(a.Index, b.Index) })

	rows := make([][]any, 0, len(sorted)+2)
	rows = append(rows, ReportHeader)
	for _, b := range sorted {
		rows = append(rows, []any{b.Label, b.Income, b.Expense, b.Profit()})
	}
	sum := report.Summarize(sorted)
	rows = append(rows, []any{"Total", sum.Income, sum.Expense, sum.Profit})
	return rows
}
