package report

import "grledger/internal/core"

// Overview is the dashboard view of the ledger. Uncategorized counts the
// transactions whose category was deleted: they are in Totals but absent
// from ExpenseByCategory.
type Overview struct {
	Totals              core.Totals          `json:"totals"`
	ProfitMargin        float64              `json:"profitMargin"`
	ExpenseByCategory   []core.CategoryValue `json:"expenseByCategory"`
	Trend               []core.TrendPoint    `json:"trend"`
	Uncategorized       int                  `json:"uncategorized"`
	UncategorizedAmount int64                `json:"uncategorizedAmount"`
}

// BuildOverview computes the dashboard from scratch.
func BuildOverview(txs []core.Transaction, cats []core.Category) Overview {
	totals := Totals(txs)
	ov := Overview{
		Totals:            totals,
		ProfitMargin:      totals.Margin(),
		ExpenseByCategory: ExpenseByCategory(txs, cats),
		Trend:             RecentTrend(txs, DefaultTrendWindow),
	}
	for _, tx := range Uncategorized(txs, cats) {
		ov.Uncategorized++
		ov.UncategorizedAmount += tx.Amount
	}
	return ov
}

// PeriodSummary pairs a bucket series with its totals.
type PeriodSummary struct {
	Query   Query         `json:"query"`
	Buckets []core.Bucket `json:"buckets"`
	Summary core.Totals   `json:"summary"`
}

// BuildPeriod runs PeriodReport and Summarize together.
func BuildPeriod(txs []core.Transaction, q Query) (PeriodSummary, error) {
	buckets, err := PeriodReport(txs, q)
	if err != nil {
		return PeriodSummary{}, err
	}
	return PeriodSummary{Query: q, Buckets: buckets, Summary: Summarize(buckets)}, nil
}
