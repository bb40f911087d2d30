// Package cli provides the command-line interface for taskflow.
package cli

import (
	"fmt"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/spf13/cobra"
)

// Command group IDs.
const (
	groupSetup = "setup"
	groupTask  = "task"
	groupWork  = "work"
)

// launchTUIFunc is a function variable for launching the board TUI, allowing it to be mocked in tests.
var launchTUIFunc = launchTUI

// NewRootCommand creates the root command for taskflow.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskflow",
		Short: "Task approval board with a built-in work timer",
		Long: `taskflow manages a shared tree of tasks that move through an approval
workflow: the assignee works on a task and requests approval, the creator
approves or rejects it.

Time spent on a task is recorded in sittings, either as one manual sitting
or as alternating Pomodoro work and break phases.

Run without arguments to open the interactive board.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return launchTUIFunc(c)
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupTask, Title: "Task Management:"},
		&cobra.Group{ID: groupWork, Title: "Time Tracking:"},
	)

	// Setup commands
	setup := []*cobra.Command{
		newLoginCommand(c),
		newSignupCommand(c),
		newLogoutCommand(c),
		newUsersCommand(c),
		newConfigCommand(c),
	}
	for _, cmd := range setup {
		cmd.GroupID = groupSetup
	}

	// Task management commands
	tasks := []*cobra.Command{
		newNewCommand(c),
		newListCommand(c),
		newShowCommand(c),
		newEditCommand(c),
		newRmCommand(c),
		newImportCommand(c),
		newRequestApprovalCommand(c),
		newApproveCommand(c),
		newRejectCommand(c),
		newRevertCommand(c),
		newCompleteCommand(c),
		newTUICommand(c),
	}
	for _, cmd := range tasks {
		cmd.GroupID = groupTask
	}

	// Time tracking commands
	work := []*cobra.Command{
		newWorkCommand(c),
		newSettingsCommand(c),
		newSittingsCommand(c),
		newLogsCommand(c),
	}
	for _, cmd := range work {
		cmd.GroupID = groupWork
	}

	root.AddCommand(setup...)
	root.AddCommand(tasks...)
	root.AddCommand(work...)

	return root
}
