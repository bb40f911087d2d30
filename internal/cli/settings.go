package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase"
)

// newSettingsCommand creates the settings command for a task's Pomodoro settings.
func newSettingsCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Work  int
		Break int
	}

	cmd := &cobra.Command{
		Use:   "settings <id>",
		Short: "Show or change the Pomodoro settings of a task",
		Long: `Show the Pomodoro work and break lengths of a task, or change them
with --work and --break (in minutes). Both lengths must be positive.

A task without stored settings uses the [pomodoro] defaults from the
configuration (25 and 5 minutes unless changed).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			w := cmd.OutOrStdout()

			if !cmd.Flags().Changed("work") && !cmd.Flags().Changed("break") {
				out, err := c.GetPomodoroSettingsUseCase().Execute(cmd.Context(), usecase.GetPomodoroSettingsInput{TaskID: taskID})
				if err != nil {
					return err
				}
				printSettings(cmd, taskID, out.Settings)
				if out.Defaulted {
					_, _ = fmt.Fprintln(w, "(defaults)")
				}
				return nil
			}

			current, err := c.GetPomodoroSettingsUseCase().Execute(cmd.Context(), usecase.GetPomodoroSettingsInput{TaskID: taskID})
			if err != nil {
				return err
			}
			in := usecase.UpdatePomodoroSettingsInput{
				TaskID:    taskID,
				WorkTime:  current.Settings.WorkTime,
				BreakTime: current.Settings.BreakTime,
			}
			if cmd.Flags().Changed("work") {
				in.WorkTime = opts.Work * 60
			}
			if cmd.Flags().Changed("break") {
				in.BreakTime = opts.Break * 60
			}
			out, err := c.UpdatePomodoroSettingsUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			printSettings(cmd, taskID, out.Settings)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Work, "work", 0, "Work phase length in minutes")
	cmd.Flags().IntVar(&opts.Break, "break", 0, "Break phase length in minutes")

	return cmd
}

func printSettings(cmd *cobra.Command, taskID int, s domain.PomodoroSettings) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task #%d: work %s, break %s\n", taskID,
		domain.FormatSittingDuration(s.WorkTime), domain.FormatSittingDuration(s.BreakTime))
}

// newSittingsCommand creates the sittings command listing recorded work.
func newSittingsCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "sittings <id>",
		Short: "List the recorded sittings of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := c.ListSittingsUseCase().Execute(cmd.Context(), usecase.ListSittingsInput{TaskID: taskID})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(out.Sittings) == 0 {
				_, _ = fmt.Fprintf(w, "Task #%d has no recorded sittings\n", taskID)
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(tw, "START\tEND\tDURATION")
			for _, s := range out.Sittings {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Start.Local().Format(timeLayout),
					s.End.Local().Format(timeLayout), domain.FormatSittingDuration(s.Duration))
			}
			_ = tw.Flush()
			_, _ = fmt.Fprintf(w, "\nTotal: %s\n", domain.FormatSittingDuration(out.Total))
			return nil
		},
	}
}

// newLogsCommand creates the logs command.
func newLogsCommand(c *app.Container) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs [id]",
		Short: "Show the application log",
		Long: `Show the global log, or the log of one task.

Examples:
  # Last 50 lines of the global log
  taskflow logs -n 50

  # Log of task #3
  taskflow logs 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.ShowLogsInput{Lines: lines}
			if len(args) == 1 {
				taskID, err := parseTaskID(args[0])
				if err != nil {
					return fmt.Errorf("invalid task ID: %w", err)
				}
				in.TaskID = taskID
			}
			out, err := c.ShowLogsUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			if out.Content == "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No log entries in %s\n", out.LogPath)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Content)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "Number of lines to show from the end (0 = all)")

	return cmd
}
