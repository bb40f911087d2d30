package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/runoshun/taskflow/internal/domain"
)

// Colors defines the color palette for the TUI.
var Colors = struct {
	// Base colors
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Error      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Background lipgloss.Color

	// Title/text colors
	TitleNormal   lipgloss.Color
	TitleSelected lipgloss.Color

	// Status colors
	InProgress      lipgloss.Color
	PendingApproval lipgloss.Color
	Completed       lipgloss.Color

	// Timer phases
	Work  lipgloss.Color
	Break lipgloss.Color

	// Group header
	GroupLine lipgloss.Color
}{
	Primary:    lipgloss.Color("#6C5CE7"), // Purple
	Secondary:  lipgloss.Color("#A29BFE"), // Lavender
	Muted:      lipgloss.Color("#636E72"), // Gray
	Error:      lipgloss.Color("#D63031"), // Red
	Success:    lipgloss.Color("#00B894"), // Green
	Warning:    lipgloss.Color("#FDCB6E"), // Yellow
	Background: lipgloss.Color("#2D3436"), // Dark gray

	TitleNormal:   lipgloss.Color("#DFE6E9"), // Light gray
	TitleSelected: lipgloss.Color("#FFEAA7"), // Yellow (selected)

	InProgress:      lipgloss.Color("#FDCB6E"), // Yellow
	PendingApproval: lipgloss.Color("#A29BFE"), // Lavender
	Completed:       lipgloss.Color("#00B894"), // Green

	Work:  lipgloss.Color("#E17055"), // Tomato
	Break: lipgloss.Color("#74B9FF"), // Light blue

	GroupLine: lipgloss.Color("#636E72"),
}

// Styles contains all the lipgloss styles for the TUI.
type Styles struct {
	// App
	App lipgloss.Style

	// Header
	Header     lipgloss.Style
	HeaderText lipgloss.Style
	HeaderInfo lipgloss.Style

	// Task list
	TaskTitle         lipgloss.Style
	TaskTitleSelected lipgloss.Style
	TaskMeta          lipgloss.Style
	CursorSelected    lipgloss.Style

	// Group header
	GroupHeaderLine  lipgloss.Style
	GroupHeaderLabel lipgloss.Style

	// Status badges
	StatusInProgress      lipgloss.Style
	StatusPendingApproval lipgloss.Style
	StatusCompleted       lipgloss.Style

	// Help
	Help lipgloss.Style

	// Footer
	Footer lipgloss.Style
	Notice lipgloss.Style

	// Dialog
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogPrompt lipgloss.Style

	// Error
	ErrorMsg lipgloss.Style

	// Detail view
	DetailTitle lipgloss.Style
	DetailLabel lipgloss.Style
	DetailValue lipgloss.Style
	DetailDesc  lipgloss.Style

	// Timer
	TimerClock lipgloss.Style
	PhaseWork  lipgloss.Style
	PhaseBreak lipgloss.Style
}

// DefaultStyles returns the default styles for the TUI.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary).
			MarginBottom(1),

		HeaderText: lipgloss.NewStyle().
			Bold(true),

		HeaderInfo: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		TaskTitle: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal),

		TaskTitleSelected: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected).
			Bold(true),

		TaskMeta: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		CursorSelected: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected).
			Bold(true),

		GroupHeaderLine: lipgloss.NewStyle().
			Foreground(Colors.GroupLine),

		GroupHeaderLabel: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		StatusInProgress: lipgloss.NewStyle().
			Foreground(Colors.InProgress),

		StatusPendingApproval: lipgloss.NewStyle().
			Foreground(Colors.PendingApproval),

		StatusCompleted: lipgloss.NewStyle().
			Foreground(Colors.Completed),

		Help: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted),

		Footer: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			MarginTop(1),

		Notice: lipgloss.NewStyle().
			Foreground(Colors.Success),

		Dialog: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Warning),

		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Warning),

		DialogPrompt: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error).
			Bold(true),

		DetailTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),

		DetailLabel: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Width(12),

		DetailValue: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal),

		DetailDesc: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal).
			MarginTop(1),

		TimerClock: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.TitleSelected),

		PhaseWork: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Work),

		PhaseBreak: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Break),
	}
}

// StatusStyle returns the style for a status badge.
func (s Styles) StatusStyle(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusPendingApproval:
		return s.StatusPendingApproval
	case domain.StatusCompleted:
		return s.StatusCompleted
	default:
		return s.StatusInProgress
	}
}

// StatusIcon returns the icon for a status.
func StatusIcon(status domain.Status) string {
	switch status {
	case domain.StatusPendingApproval:
		return "◐"
	case domain.StatusCompleted:
		return "●"
	default:
		return "○"
	}
}
