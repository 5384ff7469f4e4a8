// Package report reduces the transaction ledger into the derived views shown
// on the dashboard and report pages. Every function is pure: inputs are never
// modified and nothing is cached, so callers recompute on each read.
package report

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"grledger/internal/core"
)

// DefaultTrendWindow is the number of entries shown by the trend chart.
const DefaultTrendWindow = 10

var (
	ErrInvalidMode  = errors.New("invalid report mode")
	ErrInvalidMonth = errors.New("invalid month")
)

// MonthNames are the Indonesian month names used as yearly bucket labels.
var MonthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var shortMonths = [12]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// Totals sums income and expense over txs.
func Totals(txs []core.Transaction) core.Totals {
	var t core.Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income += tx.Amount
		case core.Expense:
			t.Expense += tx.Amount
		}
	}
	t.Profit = t.Income - t.Expense
	return t
}

// ExpenseByCategory groups expenses by the EXPENSE categories of the
// taxonomy, in declared order, dropping categories with no spending.
// Expenses filed under a category missing from cats do not appear here
// although Totals still counts them; see Uncategorized.
func ExpenseByCategory(txs []core.Transaction, cats []core.Category) []core.CategoryValue {
	sums := make(map[string]int64)
	for _, tx := range txs {
		if tx.Type == core.Expense {
			sums[tx.Category] += tx.Amount
		}
	}

	out := make([]core.CategoryValue, 0)
	for _, c := range cats {
		if c.Type != core.Expense {
			continue
		}
		if v := sums[c.Name]; v > 0 {
			out = append(out, core.CategoryValue{Name: c.Name, Value: v})
		}
	}
	return out
}

// Uncategorized returns the transactions whose category is not part of the
// taxonomy for their type, in ledger order.
func Uncategorized(txs []core.Transaction, cats []core.Category) []core.Transaction {
	known := make(map[core.TransactionType]map[string]bool, 2)
	for _, c := range cats {
		if known[c.Type] == nil {
			known[c.Type] = make(map[string]bool)
		}
		known[c.Type][c.Name] = true
	}

	var out []core.Transaction
	for _, tx := range txs {
		if !known[tx.Type][tx.Category] {
			out = append(out, tx)
		}
	}
	return out
}

// ExpenseBreakdown groups expenses by the category names found in the
// transactions themselves, in order of first appearance, dropping zero sums.
// Unlike ExpenseByCategory it includes categories no longer in the taxonomy.
func ExpenseBreakdown(txs []core.Transaction) []core.CategoryValue {
	var order []string
	sums := make(map[string]int64)
	for _, tx := range txs {
		if _, seen := sums[tx.Category]; !seen {
			order = append(order, tx.Category)
			sums[tx.Category] = 0
		}
		if tx.Type == core.Expense {
			sums[tx.Category] += tx.Amount
		}
	}

	out := make([]core.CategoryValue, 0, len(order))
	for _, name := range order {
		if v := sums[name]; v > 0 {
			out = append(out, core.CategoryValue{Name: name, Value: v})
		}
	}
	return out
}

// RecentTrend returns the last n transactions by date, oldest first, as
// signed cash flows. Entries sharing a date keep their ledger order.
// n <= 0 selects DefaultTrendWindow.
func RecentTrend(txs []core.Transaction, n int) []core.TrendPoint {
	if n <= 0 {
		n = DefaultTrendWindow
	}
	sorted := slices.Clone(txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date.Time)
	})
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}

	out := make([]core.TrendPoint, len(sorted))
	for i, tx := range sorted {
		out[i] = core.TrendPoint{Label: ShortLabel(tx.Date.Time), Date: tx.Date.Time, Amount: tx.Signed()}
	}
	return out
}

// ShortLabel renders a day as "5 Jan".
func ShortLabel(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), shortMonths[t.Month()-1])
}

// LongDate renders a day as "5 Januari 2025".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), MonthNames[t.Month()-1], t.Year())
}

// Query selects a report period. Month is 1-12 and only used in monthly mode.
type Query struct {
	Mode  core.ReportMode `json:"mode"`
	Year  int             `json:"year"`
	Month int             `json:"month,omitempty"`
}

func (q Query) Validate() error {
	switch q.Mode {
	case core.ReportYearly:
		return nil
	case core.ReportMonthly:
		if q.Month < 1 || q.Month > 12 {
			return fmt.Errorf("%w: %d", ErrInvalidMonth, q.Month)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, q.Mode)
	}
}

// DaysIn returns the number of days of month (1-12) in year.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PeriodReport buckets txs by month of q.Year (yearly) or by day of
// q.Month (monthly). Every slot is present, empty ones with zero sums.
func PeriodReport(txs []core.Transaction, q Query) ([]core.Bucket, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var buckets []core.Bucket
	if q.Mode == core.ReportYearly {
		buckets = make([]core.Bucket, 12)
		for i := range buckets {
			buckets[i] = core.Bucket{Index: i + 1, Label: MonthNames[i]}
		}
	} else {
		buckets = make([]core.Bucket, DaysIn(q.Year, q.Month))
		for i := range buckets {
			buckets[i] = core.Bucket{Index: i + 1, Label: strconv.Itoa(i + 1)}
		}
	}

	for _, tx := range txs {
		y, m, d := tx.Date.Date()
		if y != q.Year {
			continue
		}
		slot := int(m)
		if q.Mode == core.ReportMonthly {
			if int(m) != q.Month {
				continue
			}
			slot = d
		}
		b := &buckets[slot-1]
		switch tx.Type {
		case core.Income:
			b.Income += tx.Amount
		case core.Expense:
			b.Expense += tx.Amount
		}
	}
	return buckets, nil
}

// Summarize totals a bucket series.
func Summarize(buckets []core.Bucket) core.Totals {
	var t core.Totals
	for _, b := range buckets {
		t.Income += b.Income
		t.Expense += b.Expense
	}
	t.Profit = t.Income - t.Expense
	return t
}

// Years lists the distinct years present in txs, newest first. An empty
// ledger yields the year of now so year pickers are never empty.
func Years(txs []core.Transaction, now time.Time) []int {
	seen := make(map[int]bool)
	var years []int
	for _, tx := range txs {
		if y := tx.Date.Year(); !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return []int{now.Year()}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
