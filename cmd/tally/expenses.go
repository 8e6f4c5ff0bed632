package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/core"
	"tally/internal/filter"
)

func newExpensesCmd() *cobra.Command {
	expenses := &cobra.Command{Use: "expenses", Short: "Manage recorded expenses"}

	var category, period string
	list := &cobra.Command{
		Use:   "list",
		Short: "List expenses with their summary",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			f := filter.ExpenseFilter{Category: core.Category(category), Period: filter.Period(period)}
			items := a.svc.Expenses.List(f)
			sum := a.svc.Expenses.Summary(f)
			w := cmd.OutOrStdout()
			if sum.Empty != "" {
				_, err := fmt.Fprintln(w, sum.Empty)
				return err
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
			for _, e := range items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Category.Label(), e.Amount.Format(a.cfg.CurrencySymbol), e.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "\nTotal %s (%s)\n", sum.Total.Format(a.cfg.CurrencySymbol), sum.CountLabel)
			return err
		}),
	}
	list.Flags().StringVar(&category, "category", "", "category filter")
	list.Flags().StringVar(&period, "period", string(filter.PeriodAll), "today, week, month, year or all")

	var in core.ExpenseInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if in.Date == "" {
				in.Date = a.svc.Expenses.Today()
			}
			e, err := a.svc.Expenses.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added expense %d\n", e.ID)
			return err
		}),
	}
	add.Flags().StringVar(&in.Amount, "amount", "", "amount, e.g. 12.50")
	add.Flags().StringVar(&in.Description, "description", "", "what was bought")
	add.Flags().StringVar(&in.Category, "category", "", "expense category")
	add.Flags().StringVar(&in.Date, "date", "", "day YYYY-MM-DD (default today)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one expense",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return a.svc.Expenses.Delete(cmd.Context(), id)
		}),
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write all expenses as indented JSON",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if out == "" || out == "-" {
				return a.svc.Expenses.ExportJSON(cmd.OutOrStdout())
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := a.svc.Expenses.ExportJSON(file); err != nil {
				_ = file.Close()
				return err
			}
			return file.Close()
		}),
	}
	export.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every expense",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			return a.svc.Expenses.Clear(cmd.Context())
		}),
	}

	expenses.AddCommand(list, add, del, export, clearCmd)
	return expenses
}
