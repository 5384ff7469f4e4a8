package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"grledger/internal/core"
	"grledger/internal/ledger"
)

func categoriesCommand(current func() *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
	}

	var listType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := current().app.Categories()
			if listType != "" {
				cats = core.CategoriesOf(cats, core.TransactionType(strings.ToUpper(listType)))
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tNAME")
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Type, c.Name)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&listType, "type", "", "Only INCOME or EXPENSE categories")
	cmd.AddCommand(list)

	var addType string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := current().app.Dispatch(cmd.Context(), ledger.AddCategory{
				Name: args[0],
				Type: core.TransactionType(strings.ToUpper(addType)),
			})
			if err != nil {
				return err
			}
			warnIfUnsaved(res)
			fmt.Fprintln(cmd.OutOrStdout(), res.ID)
			return nil
		},
	}
	add.Flags().StringVar(&addType, "type", string(core.Expense), "INCOME or EXPENSE")
	cmd.AddCommand(add)

	return cmd
}
