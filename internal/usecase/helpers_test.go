package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/testutil"
	"github.com/runoshun/taskflow/internal/usecase/shared"
)

var (
	alice = domain.User{ID: 1, Name: "alice", Email: "alice@example.com", Role: "member"}
	bob   = domain.User{ID: 2, Name: "bob", Email: "bob@example.com", Role: "member"}
	carol = domain.User{ID: 3, Name: "carol", Email: "carol@example.com", Role: "member"}
)

var (
	taskStart = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	taskEnd   = time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)
)

// fixture wires a board to the in-memory service.
type fixture struct {
	svc      *testutil.MockTaskService
	work     *testutil.MockWorkLog
	kv       *testutil.MemoryKV
	inflight *shared.InFlight
	logger   *testutil.RecordingLogger
	clock    *testutil.MockClock
	board    *Board
}

func newFixture(t *testing.T, tasks ...*domain.Task) *fixture {
	t.Helper()
	svc := testutil.NewMockTaskService()
	svc.Users = []domain.User{alice, bob, carol}
	for _, task := range tasks {
		svc.Add(task)
	}
	return &fixture{
		svc:      svc,
		work:     testutil.NewMockWorkLog(),
		kv:       testutil.NewMemoryKV(),
		inflight: shared.NewInFlight(),
		logger:   &testutil.RecordingLogger{},
		clock:    &testutil.MockClock{NowTime: time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)},
		board:    NewBoard(svc),
	}
}

func (f *fixture) loginAs(u domain.User) {
	testutil.LoginAs(f.kv, u)
}

// newTask returns an in-progress task created by alice and assigned to bob.
func newTask(id int, status domain.Status) *domain.Task {
	start, end := taskStart, taskEnd
	return &domain.Task{
		ID:               id,
		UserID:           alice.ID,
		Title:            fmt.Sprintf("Task %d", id),
		Description:      "Description",
		Status:           status,
		AssignedUserName: bob.Name,
		AssignedUserID:   bob.ID,
		EstimatedTime:    30,
		StartDate:        &start,
		EndDate:          &end,
		CreatedAt:        taskStart,
		UpdatedAt:        taskStart.Add(time.Duration(id) * time.Second),
	}
}

// newSubtask returns a task under parentID.
func newSubtask(id, parentID int, estimate int) *domain.Task {
	t := newTask(id, domain.StatusInProgress)
	pid := parentID
	t.ParentID = &pid
	t.EstimatedTime = estimate
	return t
}

func ptr[T any](v T) *T {
	return &v
}
