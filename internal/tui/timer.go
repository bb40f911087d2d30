package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/worktimer"
)

const maxProgressWidth = 60

// TimerModel shows the running work timer of one task.
// Fields are ordered to minimize memory padding.
type TimerModel struct {
	engine   *worktimer.Engine
	task     *domain.Task
	result   *MsgTimerStopped
	keys     TimerKeyMap
	styles   Styles
	help     help.Model
	progress progress.Model
	snap     worktimer.Snapshot
	interval time.Duration

	resumed    bool
	stopping   bool
	standalone bool
}

// NewTimer creates the timer screen for a started engine.
func NewTimer(task *domain.Task, engine *worktimer.Engine, interval time.Duration, resumed bool) *TimerModel {
	if interval <= 0 {
		interval = domain.DefaultTick
	}
	return &TimerModel{
		engine:   engine,
		task:     task,
		keys:     DefaultTimerKeyMap(),
		styles:   DefaultStyles(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		snap:     engine.Snapshot(),
		interval: interval,
		resumed:  resumed,
	}
}

// NewStandaloneTimer creates a timer screen that quits the program once the
// session is stopped.
func NewStandaloneTimer(task *domain.Task, engine *worktimer.Engine, interval time.Duration, resumed bool) *TimerModel {
	m := NewTimer(task, engine, interval, resumed)
	m.standalone = true
	return m
}

// Result returns the outcome of stopping the session, if it was stopped.
func (m *TimerModel) Result() (MsgTimerStopped, bool) {
	if m.result == nil {
		return MsgTimerStopped{}, false
	}
	return *m.result, true
}

// Init starts the tick loop.
func (m *TimerModel) Init() tea.Cmd {
	return m.tick()
}

func (m *TimerModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return MsgTimerTick{}
	})
}

// stop closes the session and waits for the sittings to be saved.
func (m *TimerModel) stop() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		s, err := engine.Stop(context.Background())
		engine.Wait()
		return MsgTimerStopped{Sitting: s, Err: err, Total: engine.TotalSittingTime()}
	}
}

// Update handles timer ticks and keys.
func (m *TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(maxProgressWidth, max(10, msg.Width-8))
		return m, nil

	case MsgTimerTick:
		if m.stopping {
			return m, nil
		}
		m.snap = m.engine.Tick(context.Background())
		if !m.snap.Running() {
			m.stopping = true
			total := m.snap.Total
			return m, func() tea.Msg { return MsgTimerStopped{Total: total} }
		}
		return m, m.tick()

	case MsgTimerStopped:
		m.result = &msg
		m.snap = m.engine.Snapshot()
		if m.standalone {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Stop):
			if m.stopping {
				return m, nil
			}
			m.stopping = true
			return m, m.stop()
		case key.Matches(msg, m.keys.Quit):
			// The checkpoint stays behind; the next start resumes it.
			m.engine.Wait()
			return m, tea.Quit
		}
	}
	return m, nil
}

// phasePercent returns the completed fraction of the current Pomodoro phase.
func phasePercent(snap worktimer.Snapshot) float64 {
	length := snap.Settings.WorkTime
	if snap.Phase == worktimer.PhaseBreak {
		length = snap.Settings.BreakTime
	}
	if length <= 0 {
		return 0
	}
	p := 1 - float64(snap.Remaining)/float64(length)
	return min(1, max(0, p))
}

// View renders the timer screen.
func (m *TimerModel) View() string {
	var b strings.Builder
	s := m.styles

	b.WriteString(s.Header.Render(fmt.Sprintf("Task #%d: %s", m.task.ID, m.task.Title)))
	b.WriteString("\n")

	switch m.snap.Mode {
	case worktimer.ModePomodoro:
		phase := s.PhaseWork.Render("Work")
		if m.snap.Phase == worktimer.PhaseBreak {
			phase = s.PhaseBreak.Render("Break")
		}
		b.WriteString(fmt.Sprintf("Pomodoro · %s\n\n", phase))
		b.WriteString(s.TimerClock.Render(domain.FormatClock(m.snap.Remaining)))
		b.WriteString("\n")
		b.WriteString(m.progress.ViewAs(phasePercent(m.snap)))
		b.WriteString("\n")
	case worktimer.ModeManual:
		b.WriteString("Manual sitting\n\n")
		b.WriteString(s.TimerClock.Render(domain.FormatClock(m.snap.Elapsed)))
		b.WriteString("\n")
	default:
		b.WriteString("Stopped\n")
	}

	b.WriteString("\n")
	b.WriteString(s.HeaderInfo.Render(fmt.Sprintf("Recorded: %s in %d sitting(s)",
		domain.FormatSittingDuration(m.snap.Total), m.snap.Sittings)))
	b.WriteString("\n")

	if m.resumed {
		b.WriteString(s.Notice.Render("Resumed an interrupted session"))
		b.WriteString("\n")
	}
	if m.result != nil {
		if m.result.Err != nil {
			b.WriteString(s.ErrorMsg.Render("Error: " + m.result.Err.Error()))
		} else {
			b.WriteString(s.Notice.Render(stoppedNotice(*m.result)))
		}
		b.WriteString("\n")
	} else if m.stopping {
		b.WriteString(s.HeaderInfo.Render("Saving..."))
		b.WriteString("\n")
	}

	b.WriteString(s.Footer.Render(m.help.View(m.keys)))
	return s.App.Render(b.String())
}

// stoppedNotice summarizes a stopped session.
func stoppedNotice(msg MsgTimerStopped) string {
	if msg.Sitting == nil {
		return "Session stopped, nothing recorded"
	}
	return fmt.Sprintf("Recorded %s (total %s)",
		domain.FormatSittingDuration(msg.Sitting.Duration), domain.FormatSittingDuration(msg.Total))
}
