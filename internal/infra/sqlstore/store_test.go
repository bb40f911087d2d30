package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/infra/crypto"
	"github.com/runoshun/taskflow/internal/testutil"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// harness is a store on a private in-memory database with a switchable session.
type harness struct {
	store  *Store
	clock  *testutil.MockClock
	logger *testutil.RecordingLogger
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:  &testutil.MockClock{NowTime: t0},
		logger: &testutil.RecordingLogger{},
	}
	db, err := Open("file:"+uuid.NewString()+"?mode=memory&cache=shared", h.clock, h.logger)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	h.store = New(db, crypto.NewHasher(bcrypt.MinCost), func() string { return h.token }, h.logger)
	return h
}

// signup registers a user and makes it the current session.
func (h *harness) signup(t *testing.T, name string) domain.User {
	t.Helper()
	session, err := h.store.Signup(context.Background(), name, name+"@example.com", "password1")
	require.NoError(t, err)
	h.token = session.Token
	return session.User
}

func (h *harness) as(t *testing.T, u domain.User) {
	t.Helper()
	session, err := h.store.Login(context.Background(), u.Email, "password1")
	require.NoError(t, err)
	h.token = session.Token
}

func (h *harness) create(t *testing.T, title, assignee string, parent *int) *domain.Task {
	t.Helper()
	task, err := h.store.CreateTask(context.Background(), domain.NewTaskRequest{
		StartDate:        t0,
		EndDate:          t0.Add(48 * time.Hour),
		ParentID:         parent,
		Title:            title,
		Description:      title + " details",
		AssignedUserName: assignee,
		EstimatedTime:    30,
	})
	require.NoError(t, err)
	return task
}

func TestStore_SignupLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.signup(t, "alice")
	bob := h.signup(t, "bob")

	assert.Equal(t, "admin", alice.Role, "first user is admin")
	assert.Equal(t, "member", bob.Role)

	session, err := h.store.Login(ctx, " ALICE@example.com ", "password1")
	require.NoError(t, err)
	assert.Equal(t, alice, session.User)
	assert.Len(t, session.Token, crypto.TokenSize*2)

	_, err = h.store.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = h.store.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = h.store.Signup(ctx, "alice2", "alice@example.com", "password1")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)

	_, err = h.store.Signup(ctx, "alice", "other@example.com", "password1")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestStore_RequiresSession(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "alice")
	ctx := context.Background()

	h.token = ""
	_, err := h.store.ListTasks(ctx)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)

	h.token = "stale"
	_, err = h.store.ListUsers(ctx)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestStore_ListUsers(t *testing.T) {
	h := newHarness(t)
	alice := h.signup(t, "alice")
	bob := h.signup(t, "bob")

	users, err := h.store.ListUsers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.User{alice, bob}, users)
}

func TestStore_CreateAndListTree(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "bob")
	alice := h.signup(t, "alice")

	root := h.create(t, "Release", "bob", nil)
	build := h.create(t, "Build", "bob", &root.ID)
	h.create(t, "Lint", "alice", &build.ID)
	h.create(t, "Docs", "bob", &root.ID)
	other := h.create(t, "Other", "alice", nil)

	assert.Equal(t, alice.ID, root.UserID)
	assert.Equal(t, domain.StatusInProgress, root.Status)
	assert.Equal(t, 1, root.AssignedUserID)
	assert.True(t, root.CreatedAt.Equal(t0))
	require.NotNil(t, root.StartDate)
	assert.True(t, root.StartDate.Equal(t0))

	tasks, err := h.store.ListTasks(context.Background())
	require.NoError(t, err)

	require.Len(t, tasks, 2)
	assert.Equal(t, root.ID, tasks[0].ID)
	assert.Equal(t, other.ID, tasks[1].ID)
	require.Len(t, tasks[0].Subtasks, 2)
	assert.Equal(t, "Build", tasks[0].Subtasks[0].Title)
	assert.Equal(t, "Docs", tasks[0].Subtasks[1].Title)
	require.Len(t, tasks[0].Subtasks[0].Subtasks, 1)
	lint := tasks[0].Subtasks[0].Subtasks[0]
	assert.Equal(t, "Lint", lint.Title)
	require.NotNil(t, lint.ParentID)
	assert.Equal(t, build.ID, *lint.ParentID)
	assert.Equal(t, alice.ID, lint.AssignedUserID)
}

func TestStore_CreateTask_Errors(t *testing.T) {
	h := newHarness(t)
	alice := h.signup(t, "alice")
	bob := h.signup(t, "bob")
	h.as(t, alice)
	root := h.create(t, "Release", "bob", nil)
	ctx := context.Background()

	req := domain.NewTaskRequest{
		StartDate: t0, EndDate: t0.Add(time.Hour), Title: "x", Description: "y",
		AssignedUserName: "bob", EstimatedTime: 5,
	}

	missing := 99
	bad := req
	bad.ParentID = &missing
	_, err := h.store.CreateTask(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrParentNotFound)

	bad = req
	bad.AssignedUserName = "zed"
	_, err = h.store.CreateTask(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	bad = req
	bad.Title = ""
	_, err = h.store.CreateTask(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Only the creator adds subtasks.
	h.as(t, bob)
	sub := req
	sub.ParentID = &root.ID
	_, err = h.store.CreateTask(ctx, sub)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestStore_Lifecycle(t *testing.T) {
	h := newHarness(t)
	alice := h.signup(t, "alice")
	bob := h.signup(t, "bob")
	h.as(t, alice)
	root := h.create(t, "Release", "bob", nil)
	h.create(t, "Build", "bob", &root.ID)
	ctx := context.Background()

	// Creator cannot request approval.
	_, err := h.store.RequestApproval(ctx, root.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	h.as(t, bob)
	h.clock.Advance(time.Hour)
	task, err := h.store.RequestApproval(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, task.Status)
	assert.Len(t, task.Subtasks, 1, "response carries the subtree")
	assert.True(t, task.UpdatedAt.Equal(t0.Add(time.Hour)))

	task, err = h.store.RevertToInProgress(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, task.Status)

	_, err = h.store.RequestApproval(ctx, root.ID)
	require.NoError(t, err)

	h.as(t, alice)
	task, err = h.store.Reject(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, task.Status)

	task, err = h.store.Complete(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, task.Status)

	// Completed is terminal.
	_, err = h.store.Complete(ctx, root.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = h.store.Approve(ctx, root.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = h.store.Approve(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestStore_UpdateTask(t *testing.T) {
	h := newHarness(t)
	alice := h.signup(t, "alice")
	bob := h.signup(t, "bob")
	h.as(t, alice)
	root := h.create(t, "Release", "bob", nil)
	leaf := h.create(t, "Build", "bob", &root.ID)
	ctx := context.Background()

	title := "Release v2"
	est := 45
	task, err := h.store.UpdateTask(ctx, root.ID, domain.TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Release v2", task.Title)
	assert.Equal(t, "Release details", task.Description)
	assert.Len(t, task.Subtasks, 1)

	_, err = h.store.UpdateTask(ctx, root.ID, domain.TaskUpdate{EstimatedTime: &est})
	assert.ErrorIs(t, err, domain.ErrValidation, "estimate of a parent is derived")

	task, err = h.store.UpdateTask(ctx, leaf.ID, domain.TaskUpdate{EstimatedTime: &est})
	require.NoError(t, err)
	assert.Equal(t, 45, task.EstimatedTime)

	_, err = h.store.UpdateTask(ctx, leaf.ID, domain.TaskUpdate{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)

	h.as(t, bob)
	_, err = h.store.UpdateTask(ctx, root.ID, domain.TaskUpdate{Title: &title})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestStore_DeleteTask(t *testing.T) {
	h := newHarness(t)
	alice := h.signup(t, "alice")
	bob := h.signup(t, "bob")
	h.as(t, alice)
	root := h.create(t, "Release", "bob", nil)
	build := h.create(t, "Build", "bob", &root.ID)
	h.create(t, "Lint", "bob", &build.ID)
	keep := h.create(t, "Keep", "bob", nil)
	ctx := context.Background()
	require.NoError(t, h.store.SavePomodoroSettings(ctx, build.ID, domain.PomodoroSettings{WorkTime: 60, BreakTime: 30}))
	require.NoError(t, h.store.SaveSitting(ctx, build.ID, domain.Sitting{Start: t0, End: t0.Add(time.Minute), Duration: 60}))

	h.as(t, bob)
	assert.ErrorIs(t, h.store.DeleteTask(ctx, root.ID), domain.ErrPermissionDenied)

	h.as(t, alice)
	require.NoError(t, h.store.DeleteTask(ctx, root.ID))

	tasks, err := h.store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, keep.ID, tasks[0].ID)

	sittings, err := h.store.ListSittings(ctx, build.ID)
	require.NoError(t, err)
	assert.Empty(t, sittings)
	_, err = h.store.GetPomodoroSettings(ctx, build.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	// Deleting again is not an error.
	require.NoError(t, h.store.DeleteTask(ctx, root.ID))
	assert.Equal(t, 1, h.logger.Count("WARN"))
}

func TestStore_PomodoroSettings(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "alice")
	task := h.create(t, "Release", "alice", nil)
	ctx := context.Background()

	_, err := h.store.GetPomodoroSettings(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	require.NoError(t, h.store.SavePomodoroSettings(ctx, task.ID, domain.PomodoroSettings{WorkTime: 1500, BreakTime: 300}))
	require.NoError(t, h.store.SavePomodoroSettings(ctx, task.ID, domain.PomodoroSettings{WorkTime: 3000, BreakTime: 600}))

	s, err := h.store.GetPomodoroSettings(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PomodoroSettings{WorkTime: 3000, BreakTime: 600}, s)

	err = h.store.SavePomodoroSettings(ctx, task.ID, domain.PomodoroSettings{WorkTime: 0, BreakTime: 600})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = h.store.SavePomodoroSettings(ctx, 99, domain.PomodoroSettings{WorkTime: 60, BreakTime: 60})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestStore_Sittings(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "alice")
	task := h.create(t, "Release", "alice", nil)
	ctx := context.Background()

	second := domain.Sitting{Start: t0.Add(time.Hour), End: t0.Add(time.Hour + 40*time.Second), ID: "s2", Duration: 40}
	first := domain.Sitting{Start: t0, End: t0.Add(25 * time.Minute), ID: "s1", Duration: 1500}
	require.NoError(t, h.store.SaveSitting(ctx, task.ID, second))
	require.NoError(t, h.store.SaveSitting(ctx, task.ID, first))
	// Retried save of the same sitting.
	require.NoError(t, h.store.SaveSitting(ctx, task.ID, first))
	require.NoError(t, h.store.SaveSitting(ctx, task.ID, domain.Sitting{Start: t0.Add(2 * time.Hour), End: t0.Add(2*time.Hour + time.Second), Duration: 1}))

	sittings, err := h.store.ListSittings(ctx, task.ID)
	require.NoError(t, err)

	require.Len(t, sittings, 3)
	assert.Equal(t, "s1", sittings[0].ID)
	assert.True(t, sittings[0].Start.Equal(t0))
	assert.Equal(t, "s2", sittings[1].ID)
	assert.NotEmpty(t, sittings[2].ID)
	assert.Equal(t, 1541, domain.TotalDuration(sittings))

	err = h.store.SaveSitting(ctx, 99, first)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/state"
	db, err := Open(dir+"/taskflow.db", &testutil.MockClock{NowTime: t0}, &testutil.RecordingLogger{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.DirExists(t, dir)
}
