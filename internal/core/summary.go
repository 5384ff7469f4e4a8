package core

import "time"

// Totals is the global income/expense/profit view of a set of transactions.
type Totals struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Profit  int64 `json:"profit"`
}

// Margin is profit as a percentage of income, 0 without income.
func (t Totals) Margin() float64 {
	if t.Income == 0 {
		return 0
	}
	return float64(t.Profit) / float64(t.Income) * 100
}

// CategoryValue is an amount aggregated by category name.
type CategoryValue struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// TrendPoint is one signed cash flow entry of the trend chart.
type TrendPoint struct {
	Label  string    `json:"label"`
	Date   time.Time `json:"date"`
	Amount int64     `json:"amount"`
}

// ReportMode selects the bucket size of a period report.
type ReportMode string

const (
	ReportMonthly ReportMode = "monthly"
	ReportYearly  ReportMode = "yearly"
)

// Bucket is one fixed slot (a day or a month) of a period report. Index is
// 1-based: the day of the month or the month of the year.
type Bucket struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

func (b Bucket) Profit() int64 {
	return b.Income - b.Expense
}
