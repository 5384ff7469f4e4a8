package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"grledger/internal/core"
	"grledger/internal/render"
	"grledger/internal/report"
)

func reportCommand(current func() *env) *cobra.Command {
	var (
		mode  string
		year  int
		month int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the income and expense report of a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := current()
			now := time.Now().In(e.cfg.Location())
			q := report.Query{Mode: core.ReportMode(strings.ToLower(mode)), Year: year, Month: month}
			if q.Year == 0 {
				q.Year = now.Year()
			}
			if q.Mode == core.ReportMonthly && q.Month == 0 {
				q.Month = int(now.Month())
			}
			if q.Mode == core.ReportYearly {
				q.Month = 0
			}

			summary, err := e.app.Report(q)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "PERIOD\tPEMASUKAN\tPENGELUARAN\tLABA\t")
			for _, b := range summary.Buckets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", b.Label, render.Rupiah(b.Income), render.Rupiah(b.Expense), render.Rupiah(b.Profit()))
			}
			s := summary.Summary
			fmt.Fprintf(tw, "Total\t%s\t%s\t%s\t\n", render.Rupiah(s.Income), render.Rupiah(s.Expense), render.Rupiah(s.Profit))
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(core.ReportYearly), "yearly or monthly")
	cmd.Flags().IntVar(&year, "year", 0, "Report year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "Report month 1-12 for monthly mode (default: current)")
	return cmd
}
