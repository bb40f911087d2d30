package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/testutil"
)

var (
	alice = domain.User{ID: 1, Name: "alice", Role: "member"}
	bob   = domain.User{ID: 2, Name: "bob", Role: "member"}
	now   = time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
)

// newTestModel builds a board over an in-memory backend, logged in as user.
func newTestModel(t *testing.T, user domain.User, tasks ...*domain.Task) (*Model, *testutil.MockBackend) {
	t.Helper()
	backend := testutil.NewMockBackend()
	backend.Users = []domain.User{alice, bob}
	for _, task := range tasks {
		backend.Add(task)
	}
	kv := testutil.NewMemoryKV()
	testutil.LoginAs(kv, user)
	c := app.NewWithDeps(app.Config{}, nil, backend, kv, &testutil.MockClock{NowTime: now}, &testutil.RecordingLogger{})
	m := New(c)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, backend
}

// task returns an in-progress task created by alice and assigned to bob.
func task(id int, parent *int) *domain.Task {
	return &domain.Task{
		ID:               id,
		ParentID:         parent,
		Title:            "Task " + string(rune('A'+id-1)),
		Description:      "Description",
		Status:           domain.StatusInProgress,
		UserID:           alice.ID,
		AssignedUserName: bob.Name,
		AssignedUserID:   bob.ID,
		EstimatedTime:    30,
		CreatedAt:        now.Add(-time.Duration(id) * time.Minute),
		UpdatedAt:        now.Add(-time.Duration(id) * time.Minute),
	}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	m.Update(msg)
	return msg
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func intPtr(i int) *int { return &i }
