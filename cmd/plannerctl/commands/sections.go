package commands

import (
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/bucketing"
	"github.com/benvon/smart-planner/internal/upstream"
	"github.com/spf13/cobra"
)

// NewSectionsCmd creates the sections command
func NewSectionsCmd() *cobra.Command {
	var file, tz, now, filter string

	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Group tasks into display sections",
		Long:  "Read a YAML or JSON list of tasks and print them grouped into overdue, today, next 7 days, later and no date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required (use - for stdin)")
			}
			cal, err := loadCalendar(tz)
			if err != nil {
				return err
			}
			at, err := parseNow(now)
			if err != nil {
				return err
			}
			records, err := readRecords[upstream.TaskRecord](file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			tasks := upstream.TasksToModels(records)
			if filter != "" {
				f, err := bucketing.ParseFilter(filter)
				if err != nil {
					return err
				}
				tasks = bucketing.FilteredTasks(tasks, f, at, cal)
			}

			out := cmd.OutOrStdout()
			sections := bucketing.Sections(tasks, at, cal)
			if len(sections) == 0 {
				_, _ = fmt.Fprintln(out, "No tasks")
				return nil
			}
			for _, section := range sections {
				_, _ = fmt.Fprintf(out, "%s (%d)\n", section.Title, len(section.Tasks))
				for _, task := range section.Tasks {
					if task.DueDate != nil {
						_, _ = fmt.Fprintf(out, "  - %s (due %s)\n", task.Title, task.DueDate.In(cal.Location()).Format(time.DateTime))
						continue
					}
					_, _ = fmt.Fprintf(out, "  - %s\n", task.Title)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the task list, or - for stdin (required)")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA time zone used for day boundaries (default UTC)")
	cmd.Flags().StringVar(&now, "now", "", "Evaluate as of this timestamp instead of the current time")
	cmd.Flags().StringVar(&filter, "filter", "", "Task filter: inbox, today, upcoming, someday, open or completed")
	return cmd
}
