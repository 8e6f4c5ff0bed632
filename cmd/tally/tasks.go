package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tally/internal/seed"
	"tally/internal/services"
)

func newTasksCmd() *cobra.Command {
	tasks := &cobra.Command{Use: "tasks", Short: "Manage the task catalog"}

	export := &cobra.Command{
		Use:   "export",
		Short: "Print the catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			out, err := seed.MarshalTasks(a.svc.Scoring.Tasks())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}),
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Add or replace tasks from a YAML catalog",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			parsed, err := seed.LoadTasksFile(args[0])
			if err != nil {
				return err
			}
			for _, t := range parsed {
				d := services.TaskDraft{ID: t.ID, Name: t.Name}
				for _, o := range t.Objectives {
					d.Rows = append(d.Rows, services.DraftRow{ID: o.ID, Name: o.Name, Points: strconv.Itoa(o.Points)})
				}
				if _, err := a.svc.Scoring.SaveTask(cmd.Context(), d); err != nil {
					return fmt.Errorf("import task %q: %w", t.Name, err)
				}
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", len(parsed))
			return err
		}),
	}

	tasks.AddCommand(export, imp)
	return tasks
}
