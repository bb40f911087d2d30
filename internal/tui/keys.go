package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the task board.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Lifecycle
	RequestApproval key.Binding
	Approve         key.Binding
	Reject          key.Binding
	Revert          key.Binding
	Complete        key.Binding
	Delete          key.Binding

	// Work timer
	Work     key.Binding // Manual sitting
	Pomodoro key.Binding // Alternating work and break phases

	// View
	Detail  key.Binding // Toggle detail view
	Refresh key.Binding // Reload tasks from the service
	Help    key.Binding // Show help

	// General
	Quit    key.Binding // Quit application
	Escape  key.Binding // Cancel/back
	Confirm key.Binding // Confirm action (in confirm mode)
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		RequestApproval: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "request approval"),
		),
		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reject"),
		),
		Revert: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "revert"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Work: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "work"),
		),
		Pomodoro: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "pomodoro"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter", "v"),
			key.WithHelp("enter", "detail"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
	}
}

// ShortHelp returns keybindings to show in the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Detail, k.Work, k.Pomodoro, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Detail},
		{k.RequestApproval, k.Revert, k.Approve, k.Reject, k.Complete},
		{k.Work, k.Pomodoro, k.Delete},
		{k.Refresh, k.Help, k.Quit},
	}
}

// TimerKeyMap defines the keybindings of the work timer screen.
type TimerKeyMap struct {
	Stop key.Binding // Stop and record the sitting
	Quit key.Binding // Leave without stopping; the checkpoint is kept
}

// DefaultTimerKeyMap returns the default timer keybindings.
func DefaultTimerKeyMap() TimerKeyMap {
	return TimerKeyMap{
		Stop: key.NewBinding(
			key.WithKeys("s", "esc"),
			key.WithHelp("s", "stop"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "detach"),
		),
	}
}

// ShortHelp returns keybindings to show in the short help view.
func (k TimerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stop, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k TimerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Stop, k.Quit}}
}
