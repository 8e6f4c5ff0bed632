package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/filter"
	"tally/internal/timer"
)

func newRoundsCmd() *cobra.Command {
	rounds := &cobra.Command{Use: "rounds", Short: "Inspect the round history"}

	var f filter.RoundFilter
	addFilterFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&f.Team, "team", "", "team name or number contains")
		cmd.Flags().IntVar(&f.RoundNumber, "round", 0, "round number (0 = any)")
		cmd.Flags().StringVar(&f.Day, "day", "", "completion day YYYY-MM-DD")
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List archived rounds",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			rs, err := a.svc.Scoring.Rounds(cmd.Context(), f)
			if err != nil {
				return err
			}
			if len(rs) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No rounds found.")
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCOMPLETED\tROUND\tTEAM\tTOTAL\tTIME")
			for _, r := range rs {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\t%s\n",
					r.ID(),
					r.When().In(a.cfg.Location()).Format("2006-01-02 15:04"),
					r.General.RoundNumber,
					r.General.TeamName,
					r.Scoring.Total,
					timer.FormatClock(r.Scoring.ElapsedSec))
			}
			return tw.Flush()
		}),
	}
	addFilterFlags(list)

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write matching rounds as CSV",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if out == "" || out == "-" {
				return a.svc.Scoring.ExportCSV(cmd.Context(), cmd.OutOrStdout(), f)
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := a.svc.Scoring.ExportCSV(cmd.Context(), file, f); err != nil {
				_ = file.Close()
				return err
			}
			return file.Close()
		}),
	}
	addFilterFlags(export)
	export.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the whole round history",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			return a.svc.Scoring.ClearRounds(cmd.Context())
		}),
	}

	rounds.AddCommand(list, export, clearCmd)
	return rounds
}
