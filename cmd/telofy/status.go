package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"telofy/internal/repository"
)

func statusCmd() *cobra.Command {
	var report bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the objective status, today's tasks and open deviations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(context.Background())
			if err != nil {
				return err
			}
			defer a.close()

			w := cmd.OutOrStdout()
			if report {
				fmt.Fprintln(w, a.reminders.DailySummary(time.Now()))
				return nil
			}

			fmt.Fprintln(w, "telofy status")
			fmt.Fprintln(w, strings.Repeat("=", 40))
			if o, err := a.objectives.Active(); err == nil {
				fmt.Fprintf(w, "  Objective:  %s (%s)\n", o.Name, o.Category)
			} else {
				fmt.Fprintln(w, "  Objective:  none")
			}
			fmt.Fprintf(w, "  Status:     %s\n", a.status.CurrentStatus())
			fmt.Fprintf(w, "  Deviations: %d open\n", len(a.status.Unresolved()))

			tasks := a.tasks.TasksForDate(time.Now().In(a.stores.Settings.Location()))
			fmt.Fprintf(w, "  Today:      %d tasks\n", len(tasks))
			for _, t := range tasks {
				fmt.Fprintf(w, "    - [%s] %s\n", t.Status, t.Title)
			}

			if keys, err := repository.NewBlobRepository(a.db).Keys(cmd.Context()); err == nil {
				fmt.Fprintf(w, "  Stored:     %s (%s)\n", strings.Join(keys, ", "), a.cfg.DatabaseURL)
			}

			switch {
			case a.sync == nil:
				fmt.Fprintln(w, "  Remote:     not configured")
			case !a.session.Authenticated():
				fmt.Fprintln(w, "  Remote:     not authenticated")
			default:
				fmt.Fprintf(w, "  Remote:     %s\n", a.cfg.APIBaseURL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&report, "report", "r", false, "Print the daily report instead")
	return cmd
}
