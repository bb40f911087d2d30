package tui

import (
	"strings"
	"testing"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestView_Loading(t *testing.T) {
	m := &Model{}
	assert.Equal(t, "Loading...", m.View())
}

func TestView_Board(t *testing.T) {
	m, _ := loadedModel(t, bob)
	view := m.View()

	assert.Contains(t, view, "Tasks")
	assert.Contains(t, view, "bob · total 1h")
	assert.Contains(t, view, "Today")
	assert.Contains(t, view, "#1 Task A")
	assert.Contains(t, view, "#3 Task C")
	assert.Contains(t, view, "In Progress")
	assert.Contains(t, view, "> ")
}

func TestView_SubtaskIndented(t *testing.T) {
	m, _ := loadedModel(t, bob)

	for line := range strings.SplitSeq(m.View(), "\n") {
		if strings.Contains(line, "#2 Task B") {
			assert.Contains(t, line, "  "+StatusIcon(domain.StatusInProgress)+" #2")
			return
		}
	}
	t.Fatal("subtask row not rendered")
}

func TestView_Empty(t *testing.T) {
	m, _ := newTestModel(t, bob)
	run(t, m, m.Init())

	assert.Contains(t, m.View(), "No tasks.")
}

func TestView_ErrorReplacesNotice(t *testing.T) {
	m, _ := loadedModel(t, bob)
	m.notice = "saved"
	m.Update(MsgError{Err: assert.AnError})

	view := m.View()
	assert.Contains(t, view, "Error: "+assert.AnError.Error())
	assert.NotContains(t, view, "saved")
}

func TestView_CompleteDialog(t *testing.T) {
	m, _ := loadedModel(t, alice)
	m.Update(keyPress("c"))

	assert.Contains(t, m.View(), "Mark task #1 completed without approval?")
}
