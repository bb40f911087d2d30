package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/testutil"
)

var (
	alice = domain.User{ID: 1, Name: "alice", Email: "alice@example.com", Role: "member"}
	bob   = domain.User{ID: 2, Name: "bob", Email: "bob@example.com", Role: "member"}
	now   = time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
)

// testEnv bundles a container over in-memory fakes.
type testEnv struct {
	c       *app.Container
	backend *testutil.MockBackend
	kv      *testutil.MemoryKV
	clock   *testutil.MockClock
}

// newTestEnv creates a container with mock dependencies, logged in as user
// unless user is nil.
func newTestEnv(t *testing.T, user *domain.User, tasks ...*domain.Task) *testEnv {
	t.Helper()
	backend := testutil.NewMockBackend()
	backend.Users = []domain.User{alice, bob}
	for _, task := range tasks {
		backend.Add(task)
	}
	kv := testutil.NewMemoryKV()
	if user != nil {
		testutil.LoginAs(kv, *user)
	}
	clock := &testutil.MockClock{NowTime: now}
	c := app.NewWithDeps(app.Config{StateDir: t.TempDir()}, nil, backend, kv, clock, &testutil.RecordingLogger{})
	return &testEnv{c: c, backend: backend, kv: kv, clock: clock}
}

// task returns an in-progress task created by alice and assigned to bob.
func task(id int, parent *int) *domain.Task {
	start := now.Add(-time.Hour)
	end := now.Add(48 * time.Hour)
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
		StartDate:        &start,
		EndDate:          &end,
		CreatedAt:        now.Add(-time.Duration(id) * time.Minute),
		UpdatedAt:        now.Add(-time.Duration(id) * time.Minute),
	}
}

// execute runs cmd with args and returns stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func intPtr(i int) *int { return &i }
