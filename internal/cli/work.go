package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/tui"
	"github.com/runoshun/taskflow/internal/usecase"
	"github.com/runoshun/taskflow/internal/worktimer"
)

// runTimerFunc is a function variable for running a started timer, allowing it to be mocked in tests.
var runTimerFunc = runTimer

// newWorkCommand creates the work command for timing work on a task.
func newWorkCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Pomodoro bool
		Plain    bool
	}

	cmd := &cobra.Command{
		Use:   "work <id>",
		Short: "Start the work timer of a task",
		Long: `Start timing work on a task.

By default one manual sitting runs until stopped. With --pomodoro the timer
alternates work and break phases using the task's Pomodoro settings; each
completed work phase is recorded as a sitting.

The session is checkpointed while it runs. If the process dies, the next
'taskflow work <id>' resumes it; 'taskflow work stop <id>' closes it.

In the timer screen press s to stop and record, or q to detach and leave
the session running. With --plain the timer prints to the terminal
instead; Ctrl+C stops and records.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := c.StartWorkUseCase().Execute(cmd.Context(), usecase.StartWorkInput{
				TaskID:   taskID,
				Pomodoro: opts.Pomodoro,
			})
			if err != nil {
				return err
			}
			if out.Resumed {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Resuming the interrupted session of task #%d\n", taskID)
			}
			return runTimerFunc(cmd, c, out, opts.Plain)
		},
	}

	cmd.Flags().BoolVar(&opts.Pomodoro, "pomodoro", false, "Alternate work and break phases")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Print the timer instead of opening the timer screen")

	cmd.AddCommand(newWorkStopCommand(c))
	cmd.AddCommand(newWorkStatusCommand(c))

	return cmd
}

// runTimer shows a started timer until the session is stopped or detached.
func runTimer(cmd *cobra.Command, c *app.Container, out *usecase.StartWorkOutput, plain bool) error {
	if plain {
		return runPlainTimer(cmd, c, out)
	}

	model := tui.NewStandaloneTimer(out.Task, out.Timer, c.AppConfig.Timer.Tick, out.Resumed)
	final, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	timer, ok := final.(*tui.TimerModel)
	if !ok {
		return nil
	}
	result, stopped := timer.Result()
	if !stopped {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Detached; the session of task #%d keeps its checkpoint\n", out.Task.ID)
		return nil
	}
	if result.Err != nil {
		return result.Err
	}
	printStopped(cmd.OutOrStdout(), result.Sitting, result.Total)
	return nil
}

// runPlainTimer prints the clock whenever it changes. Ctrl+C or SIGTERM stops
// the session and records it.
func runPlainTimer(cmd *cobra.Command, c *app.Container, out *usecase.StartWorkOutput) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	last := ""
	out.Timer.Run(ctx, c.AppConfig.Timer.Tick, func(snap worktimer.Snapshot) {
		line := plainTimerLine(snap)
		if line != last {
			_, _ = fmt.Fprintf(w, "\r%s", line)
			last = line
		}
	})
	_, _ = fmt.Fprintln(w)

	s, err := out.Timer.Stop(context.WithoutCancel(ctx))
	out.Timer.Wait()
	if errors.Is(err, domain.ErrTimerIdle) {
		printStopped(w, nil, out.Timer.TotalSittingTime())
		return nil
	}
	if err != nil {
		return err
	}
	printStopped(w, s, out.Timer.TotalSittingTime())
	return nil
}

// plainTimerLine renders one status line of the running timer.
func plainTimerLine(snap worktimer.Snapshot) string {
	switch snap.Mode {
	case worktimer.ModePomodoro:
		return fmt.Sprintf("%-5s %s  (recorded %s)", snap.Phase, domain.FormatClock(snap.Remaining),
			domain.FormatSittingDuration(snap.Total))
	case worktimer.ModeManual:
		return fmt.Sprintf("work  %s", domain.FormatClock(snap.Elapsed))
	default:
		return "stopped"
	}
}

func printStopped(w io.Writer, s *domain.Sitting, total int) {
	if s == nil {
		_, _ = fmt.Fprintf(w, "Session stopped, nothing recorded (total %s)\n", domain.FormatSittingDuration(total))
		return
	}
	_, _ = fmt.Fprintf(w, "Recorded %s (total %s)\n",
		domain.FormatSittingDuration(s.Duration), domain.FormatSittingDuration(total))
}

// newWorkStopCommand creates the work stop subcommand.
func newWorkStopCommand(c *app.Container) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a detached or interrupted session",
		Long: `Close the checkpointed session of a task and record what it owes.

Use this after detaching from the timer screen or when the process
running the timer is gone. A session that is still ticking is refused
unless --force is given; the process running it then stops without
recording.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := c.StopWorkUseCase().Execute(cmd.Context(), usecase.StopWorkInput{TaskID: taskID, Force: force})
			if errors.Is(err, domain.ErrTimerIdle) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task #%d has no running session\n", taskID)
				return nil
			}
			if errors.Is(err, domain.ErrTimerRunning) {
				return fmt.Errorf("%w (use --force to close it anyway)", err)
			}
			if err != nil {
				return err
			}
			printStopped(cmd.OutOrStdout(), out.Sitting, out.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Close the session even if another process is still timing it")

	return cmd
}

// newWorkStatusCommand creates the work status subcommand.
func newWorkStatusCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show the checkpointed session of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := c.WorkStatusUseCase().Execute(cmd.Context(), usecase.WorkStatusInput{TaskID: taskID})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !out.Running {
				_, _ = fmt.Fprintf(w, "Task #%d has no running session\n", taskID)
				return nil
			}
			cp := out.Checkpoint
			if cp.UsingPomodoro {
				phase := "work"
				if cp.Settings.IsBreak {
					phase = "break"
				}
				_, _ = fmt.Fprintf(w, "Task #%d: Pomodoro %s phase, %s left\n", taskID, phase, domain.FormatClock(cp.Remaining))
			} else {
				_, _ = fmt.Fprintf(w, "Task #%d: manual sitting, %s elapsed\n", taskID, domain.FormatClock(cp.Elapsed))
			}
			_, _ = fmt.Fprintf(w, "Started %s, last tick %s ago\n",
				cp.SessionStart.Local().Format(timeLayout), formatAge(out.Age))
			return nil
		},
	}
}

// formatAge formats a duration rounded to seconds.
func formatAge(d time.Duration) string {
	return domain.FormatSittingDuration(int(d.Round(time.Second) / time.Second))
}
