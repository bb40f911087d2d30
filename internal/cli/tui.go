package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/tui"
)

// newTUICommand creates the tui command for launching the interactive board.
// It is the same as running `taskflow` without arguments.
func newTUICommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch interactive board",
		Long: `Launch the interactive terminal board.

The task list is reloaded on the [board] refresh schedule
(default "@every 30s"). An empty schedule disables the reload.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return launchTUIFunc(c)
		},
	}
}

// launchTUI runs the board until the user quits, reloading it on the configured schedule.
func launchTUI(c *app.Container) error {
	p := tea.NewProgram(tui.New(c), tea.WithAltScreen())

	if spec := c.AppConfig.Board.Refresh; spec != "" {
		sched := c.Scheduler()
		if _, err := sched.Add(spec, func() { p.Send(tui.MsgRefresh{}) }); err != nil {
			c.Log.Warn(0, "tui", fmt.Sprintf("board refresh disabled: %v", err))
		} else {
			sched.Start()
			defer sched.Stop()
		}
	}

	_, err := p.Run()
	return err
}
