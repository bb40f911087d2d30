package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/runoshun/taskflow/internal/domain"
)

const dateLayout = "2006-01-02 15:04"

// View renders the TUI.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.mode == ModeTimer && m.timer != nil {
		return m.timer.View()
	}

	var content string
	switch m.mode {
	case ModeHelp:
		content = m.viewHelp()
	case ModeDetail:
		content = m.viewDetail()
	case ModeNormal, ModeConfirm, ModeTimer:
		content = m.viewMain()
	}

	return m.styles.App.Render(content)
}

// viewMain renders the grouped task board.
func (m *Model) viewMain() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(m.styles.ErrorMsg.Render("Error: "+m.err.Error()) + "\n\n")
	} else if m.notice != "" {
		b.WriteString(m.styles.Notice.Render(m.notice) + "\n\n")
	}

	b.WriteString(m.viewTaskList())

	if m.mode == ModeConfirm {
		b.WriteString("\n")
		b.WriteString(m.viewConfirmDialog())
	}

	b.WriteString("\n")
	b.WriteString(m.viewFooter())
	return b.String()
}

// viewHeader renders the title, the current user and the combined estimate.
func (m *Model) viewHeader() string {
	title := m.styles.HeaderText.Render("Tasks")

	info := "total " + domain.FormatEstimate(m.totalTime)
	if m.user.Name != "" {
		info = m.user.Name + " · " + info
	}
	rightText := m.styles.HeaderInfo.Render(info)

	headerWidth := max(40, m.width-6)
	spacing := max(1, headerWidth-lipgloss.Width(title)-lipgloss.Width(rightText))
	return m.styles.Header.Render(title + strings.Repeat(" ", spacing) + rightText)
}

// viewTaskList renders group headers and the task tree.
func (m *Model) viewTaskList() string {
	if len(m.rows) == 0 {
		return m.styles.TaskMeta.Render("No tasks. Create one with 'taskflow new'.") + "\n"
	}

	var b strings.Builder
	lineWidth := max(20, m.width-6)
	for i, r := range m.rows {
		if r.task == nil {
			b.WriteString(m.viewGroupHeader(r.label, lineWidth))
			b.WriteString("\n")
			continue
		}
		b.WriteString(m.viewTaskRow(r, i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

// viewGroupHeader renders "── Label ─────".
func (m *Model) viewGroupHeader(label string, width int) string {
	prefix := m.styles.GroupHeaderLine.Render("── ")
	text := m.styles.GroupHeaderLabel.Render(label)
	rest := max(0, width-lipgloss.Width(prefix)-lipgloss.Width(text)-1)
	return prefix + text + " " + m.styles.GroupHeaderLine.Render(strings.Repeat("─", rest))
}

// viewTaskRow renders one task line.
func (m *Model) viewTaskRow(r row, selected bool) string {
	t := r.task
	cursor := "  "
	titleStyle := m.styles.TaskTitle
	if selected {
		cursor = m.styles.CursorSelected.Render("> ")
		titleStyle = m.styles.TaskTitleSelected
	}

	indent := strings.Repeat("  ", r.depth)
	icon := m.styles.StatusStyle(t.Status).Render(StatusIcon(t.Status))
	meta := m.styles.TaskMeta.Render(fmt.Sprintf("  %s · %s · %s",
		t.AssignedUserName, domain.FormatEstimate(t.EstimatedTime), t.Status.Display()))

	return fmt.Sprintf("%s%s%s #%d %s%s", cursor, indent, icon, t.ID, titleStyle.Render(t.Title), meta)
}

// viewConfirmDialog renders the confirmation prompt.
func (m *Model) viewConfirmDialog() string {
	var question string
	switch m.confirmAction {
	case ConfirmDelete:
		question = fmt.Sprintf("Delete task #%d and its subtasks?", m.confirmTaskID)
	case ConfirmComplete:
		question = fmt.Sprintf("Mark task #%d completed without approval?", m.confirmTaskID)
	case ConfirmNone:
		return ""
	}
	content := m.styles.DialogTitle.Render(question) + "\n" +
		m.styles.DialogPrompt.Render("y: confirm · any other key: cancel")
	return m.styles.Dialog.Render(content)
}

// viewFooter renders the short help.
func (m *Model) viewFooter() string {
	return m.styles.Footer.Render(m.help.View(m.keys))
}

// viewHelp renders the full help overlay.
func (m *Model) viewHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.DetailTitle.Render("Keybindings"))
	b.WriteString("\n\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	return m.styles.Help.Render(b.String())
}

// viewDetail renders the detail of the loaded task.
func (m *Model) viewDetail() string {
	d := m.detail
	if d == nil || d.Task == nil {
		return "No task selected"
	}
	t := d.Task
	s := m.styles

	var lines []string
	field := func(label, value string) {
		lines = append(lines, s.DetailLabel.Render(label)+s.DetailValue.Render(value))
	}

	lines = append(lines, s.DetailTitle.Render(fmt.Sprintf("Task #%d", t.ID)))
	lines = append(lines, s.TaskTitleSelected.Render(t.Title))
	lines = append(lines, "")
	lines = append(lines, s.DetailLabel.Render("Status")+s.StatusStyle(t.Status).Render(t.Status.Display()))
	field("Assignee", t.AssignedUserName)
	field("Role", string(d.Role))
	field("Estimate", domain.FormatEstimate(t.EstimatedTime))
	if t.StartDate != nil {
		field("Start", t.StartDate.Local().Format(dateLayout))
	}
	if t.EndDate != nil {
		field("Deadline", t.EndDate.Local().Format(dateLayout))
	}
	if d.Countdown != "" {
		field("", d.Countdown)
	}
	field("Recorded", fmt.Sprintf("%s in %d sitting(s)", domain.FormatSittingDuration(d.SittingTotal), len(d.Sittings)))

	if len(d.Actions) > 0 {
		names := make([]string, len(d.Actions))
		for i, a := range d.Actions {
			names[i] = string(a)
		}
		field("Actions", strings.Join(names, ", "))
	}

	if len(t.Subtasks) > 0 {
		lines = append(lines, "", s.DetailLabel.Render("Subtasks"))
		for _, st := range t.Subtasks {
			lines = append(lines, fmt.Sprintf("  %s #%d %s", StatusIcon(st.Status), st.ID, st.Title))
		}
	}

	if t.Description != "" {
		lines = append(lines, "", s.DetailLabel.Render("Description"))
		width := max(40, m.width-12)
		lines = append(lines, s.DetailDesc.Width(width).Render(t.Description))
	}

	lines = append(lines, "", s.Footer.Render("esc: back"))
	return strings.Join(lines, "\n")
}
