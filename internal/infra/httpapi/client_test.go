package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// request is what the test server saw.
type request struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

// newServer starts a server answering every request with status and body.
func newServer(t *testing.T, status int, body string) (*Client, *[]request) {
	t.Helper()
	var seen []request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := request{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &req.Body)
		}
		seen = append(seen, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", 5*time.Second, func() string { return "tok" }, nil), &seen
}

const taskJSON = `{
	"id": 7, "user_id": 1, "title": "Ship", "description": "Release v2",
	"status": "pending_approval", "estimated_time": 90,
	"assigned_user_name": "bob", "assigned_user_id": 2, "parent_task_id": null,
	"created_at": "2024-05-01T09:00:00.000000Z", "updated_at": "2024-05-02T10:30:00.000000Z",
	"start_date": "2024-05-01 09:00:00", "end_date": "2024-05-03",
	"subtasks": [
		{"id": 8, "user_id": 1, "title": "Build", "status": "in_progress", "estimated_time": 60,
		 "parent_task_id": 7, "created_at": "2024-05-01T09:05:00Z", "updated_at": "2024-05-01T09:05:00Z",
		 "subtasks": [
			{"id": 9, "user_id": 1, "title": "Lint", "status": "completed", "estimated_time": 30,
			 "parent_task_id": 8, "created_at": "2024-05-01T09:06:00Z", "updated_at": "2024-05-01T09:06:00Z"}
		 ]}
	]
}`

func TestClient_ListTasks(t *testing.T) {
	// The service also lists subtasks at top level; they must not become roots.
	sub := `{"id": 8, "title": "Build", "status": "in_progress", "parent_task_id": 7, "created_at": "2024-05-01T09:05:00Z", "updated_at": "2024-05-01T09:05:00Z"}`
	c, seen := newServer(t, http.StatusOK, "["+taskJSON+","+sub+"]")

	tasks, err := c.ListTasks(context.Background())

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	root := tasks[0]
	assert.Equal(t, 7, root.ID)
	assert.Equal(t, domain.StatusPendingApproval, root.Status)
	assert.True(t, root.IsRoot())
	assert.Equal(t, "bob", root.AssignedUserName)
	assert.True(t, root.CreatedAt.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))
	require.NotNil(t, root.StartDate)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local), *root.StartDate)
	require.NotNil(t, root.EndDate)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.Local), *root.EndDate)

	require.Len(t, root.Subtasks, 1)
	build := root.Subtasks[0]
	assert.Equal(t, 8, build.ID)
	require.NotNil(t, build.ParentID)
	assert.Equal(t, 7, *build.ParentID)
	assert.Nil(t, build.StartDate)
	require.Len(t, build.Subtasks, 1)
	assert.Equal(t, domain.StatusCompleted, build.Subtasks[0].Status)
	assert.True(t, build.Subtasks[0].IsLeaf())

	require.Len(t, *seen, 1)
	assert.Equal(t, request{Method: http.MethodGet, Path: "/api/tasks", Auth: "Bearer tok"}, (*seen)[0])
}

func TestClient_NoToken(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Values("Authorization")
		_, _ = io.WriteString(w, "[]")
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second, nil, nil).ListUsers(context.Background())

	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestClient_CreateTask(t *testing.T) {
	c, seen := newServer(t, http.StatusCreated, taskJSON)
	parent := 3
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

	task, err := c.CreateTask(context.Background(), domain.NewTaskRequest{
		StartDate:        start,
		EndDate:          start.Add(48 * time.Hour),
		ParentID:         &parent,
		Title:            "Ship",
		Description:      "Release v2",
		AssignedUserName: "bob",
		UserID:           1,
		AssignedUserID:   2,
		EstimatedTime:    90,
	})

	require.NoError(t, err)
	assert.Equal(t, 7, task.ID)
	body := (*seen)[0].Body
	assert.Equal(t, http.MethodPost, (*seen)[0].Method)
	assert.Equal(t, "/api/tasks", (*seen)[0].Path)
	assert.Equal(t, "Ship", body["title"])
	assert.Equal(t, "in_progress", body["status"])
	assert.Equal(t, "2024-05-01T09:00:00", body["start_date"])
	assert.Equal(t, "2024-05-03T09:00:00", body["end_date"])
	assert.InDelta(t, 3, body["parent_task_id"], 0)
	assert.InDelta(t, 90, body["estimated_time"], 0)
	assert.InDelta(t, 2, body["assigned_user_id"], 0)
}

func TestClient_CreateTask_MissingParent(t *testing.T) {
	c, _ := newServer(t, http.StatusNotFound, `{"message": "No query results"}`)
	parent := 3

	_, err := c.CreateTask(context.Background(), domain.NewTaskRequest{ParentID: &parent})

	assert.ErrorIs(t, err, domain.ErrParentNotFound)
}

func TestClient_UpdateTask(t *testing.T) {
	c, seen := newServer(t, http.StatusOK, taskJSON)
	title := "Ship it"

	task, err := c.UpdateTask(context.Background(), 7, domain.TaskUpdate{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "Ship", task.Title)
	assert.Equal(t, http.MethodPut, (*seen)[0].Method)
	assert.Equal(t, "/api/tasks/7", (*seen)[0].Path)
	// Unset fields are not sent.
	assert.Equal(t, map[string]any{"title": "Ship it"}, (*seen)[0].Body)
}

func TestClient_DeleteTask(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"deleted", http.StatusNoContent, nil},
		{"ok with body", http.StatusOK, nil},
		{"already gone", http.StatusNotFound, nil},
		{"forbidden", http.StatusForbidden, domain.ErrPermissionDenied},
		{"server error", http.StatusInternalServerError, domain.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, seen := newServer(t, tt.status, "")

			err := c.DeleteTask(context.Background(), 7)

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, http.MethodDelete, (*seen)[0].Method)
			assert.Equal(t, "/api/tasks/7", (*seen)[0].Path)
		})
	}
}

func TestClient_Lifecycle(t *testing.T) {
	tests := []struct {
		call   func(c *Client) (*domain.Task, error)
		name   string
		path   string
		action domain.Action
	}{
		{func(c *Client) (*domain.Task, error) { return c.RequestApproval(context.Background(), 7) }, "request approval", "/api/tasks/7/request-approval", domain.ActionRequestApproval},
		{func(c *Client) (*domain.Task, error) { return c.Approve(context.Background(), 7) }, "approve", "/api/tasks/7/approve", domain.ActionApprove},
		{func(c *Client) (*domain.Task, error) { return c.Reject(context.Background(), 7) }, "reject", "/api/tasks/7/reject", domain.ActionReject},
		{func(c *Client) (*domain.Task, error) { return c.Complete(context.Background(), 7) }, "complete", "/api/tasks/7/complete", domain.ActionComplete},
		{func(c *Client) (*domain.Task, error) { return c.RevertToInProgress(context.Background(), 7) }, "revert", "/api/tasks/7/revert-to-in-progress", domain.ActionRevert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, seen := newServer(t, http.StatusOK, taskJSON)
			task, err := tt.call(c)
			require.NoError(t, err)
			assert.Equal(t, 7, task.ID)
			assert.Len(t, task.Subtasks, 1)
			assert.Equal(t, http.MethodPost, (*seen)[0].Method)
			assert.Equal(t, tt.path, (*seen)[0].Path)
		})

		t.Run(tt.name+" forbidden", func(t *testing.T) {
			c, _ := newServer(t, http.StatusForbidden, `{"message": "This action is unauthorized."}`)
			_, err := tt.call(c)

			var pe *domain.PermissionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.action, pe.Action)
			assert.Equal(t, 7, pe.TaskID)
			assert.Equal(t, domain.OutcomePermission, domain.OutcomeOf(err))
		})
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		want    error
		outcome domain.Outcome
	}{
		{"unauthorized", `{"message": "Unauthenticated."}`, http.StatusUnauthorized, domain.ErrNotLoggedIn, domain.OutcomeTransport},
		{"not found", `{}`, http.StatusNotFound, domain.ErrTaskNotFound, domain.OutcomeNotFound},
		{"conflict", `{"message": "Task is completed"}`, http.StatusConflict, domain.ErrInvalidTransition, domain.OutcomePermission},
		{"validation", `{"message": "invalid", "errors": {"title": ["The title field is required."], "description": ["x"]}}`, http.StatusUnprocessableEntity, domain.ErrValidation, domain.OutcomeValidation},
		{"bad gateway", `<html>`, http.StatusBadGateway, domain.ErrTransport, domain.OutcomeTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newServer(t, tt.status, tt.body)
			title := "x"

			_, err := c.UpdateTask(context.Background(), 7, domain.TaskUpdate{Title: &title})

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.outcome, domain.OutcomeOf(err))
		})
	}
}

func TestClient_ValidationErrorField(t *testing.T) {
	c, _ := newServer(t, http.StatusUnprocessableEntity,
		`{"errors": {"title": ["The title field is required."], "description": ["Too short."]}}`)

	_, err := c.CreateTask(context.Background(), domain.NewTaskRequest{})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "description", ve.Field)
	assert.Equal(t, "Too short.", ve.Message)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	logger := &testutil.RecordingLogger{}

	_, err := New(url, time.Second, nil, logger).ListTasks(context.Background())

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, 1, logger.Count("WARN"))
}

func TestClient_DecodeFailure(t *testing.T) {
	c, _ := newServer(t, http.StatusOK, `{"id": "not a number"}`)

	_, err := c.Approve(context.Background(), 7)

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_Login(t *testing.T) {
	c, seen := newServer(t, http.StatusOK,
		`{"token": "abc", "user": {"id": 2, "name": "bob", "email": "bob@example.com", "role": "member"}}`)

	session, err := c.Login(context.Background(), "bob@example.com", "pw")

	require.NoError(t, err)
	assert.Equal(t, &domain.Session{
		Token: "abc",
		User:  domain.User{ID: 2, Name: "bob", Email: "bob@example.com", Role: "member"},
	}, session)
	assert.Equal(t, "/api/login", (*seen)[0].Path)
	assert.Equal(t, map[string]any{"email": "bob@example.com", "password": "pw"}, (*seen)[0].Body)
}

func TestClient_Login_Errors(t *testing.T) {
	t.Run("bad credentials", func(t *testing.T) {
		c, _ := newServer(t, http.StatusUnauthorized, `{"message": "Invalid credentials"}`)
		_, err := c.Login(context.Background(), "bob@example.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("no token", func(t *testing.T) {
		c, _ := newServer(t, http.StatusOK, `{"user": {"id": 2}}`)
		_, err := c.Login(context.Background(), "bob@example.com", "pw")
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestClient_ListUsers(t *testing.T) {
	c, _ := newServer(t, http.StatusOK, `[{"id": 1, "name": "alice", "role": "admin"}, {"id": 2, "name": "bob", "role": "member"}]`)

	users, err := c.ListUsers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.User{
		{ID: 1, Name: "alice", Role: "admin"},
		{ID: 2, Name: "bob", Role: "member"},
	}, users)
}

func TestClient_PomodoroSettings(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		c, seen := newServer(t, http.StatusOK, `{"work_time": 1500, "break_time": 300}`)

		s, err := c.GetPomodoroSettings(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, domain.PomodoroSettings{WorkTime: 1500, BreakTime: 300}, s)
		assert.Equal(t, "/api/tasks/7/pomodoro-settings", (*seen)[0].Path)
	})

	t.Run("get missing", func(t *testing.T) {
		c, _ := newServer(t, http.StatusNotFound, `{}`)
		_, err := c.GetPomodoroSettings(context.Background(), 7)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("save", func(t *testing.T) {
		c, seen := newServer(t, http.StatusOK, `{"work_time": 3000, "break_time": 600}`)

		err := c.SavePomodoroSettings(context.Background(), 7, domain.PomodoroSettings{WorkTime: 3000, BreakTime: 600, IsBreak: true})

		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, (*seen)[0].Method)
		assert.Equal(t, map[string]any{"workTime": float64(3000), "breakTime": float64(600)}, (*seen)[0].Body)
	})
}

func TestClient_Sittings(t *testing.T) {
	t.Run("save", func(t *testing.T) {
		c, seen := newServer(t, http.StatusCreated, `{"id": 1}`)
		start := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

		err := c.SaveSitting(context.Background(), 7, domain.Sitting{
			Start: start, End: start.Add(25 * time.Minute), ID: "s1", Duration: 1500,
		})

		require.NoError(t, err)
		assert.Equal(t, "/api/tasks/7/sittings", (*seen)[0].Path)
		assert.Equal(t, map[string]any{
			"client_id":  "s1",
			"start_time": "2024-05-02T09:00:00Z",
			"end_time":   "2024-05-02T09:25:00Z",
			"duration":   float64(1500),
		}, (*seen)[0].Body)
	})

	t.Run("list", func(t *testing.T) {
		c, _ := newServer(t, http.StatusOK, `[
			{"id": 11, "start_time": "2024-05-02T09:00:00.000000Z", "end_time": "2024-05-02T09:25:00.000000Z", "duration": 1500},
			{"id": "s2", "start_time": "2024-05-02T10:00:00Z", "end_time": "2024-05-02T10:00:40Z", "duration": 40}
		]`)

		sittings, err := c.ListSittings(context.Background(), 7)

		require.NoError(t, err)
		require.Len(t, sittings, 2)
		assert.Equal(t, "11", sittings[0].ID)
		assert.Equal(t, 1500, sittings[0].Duration)
		assert.True(t, sittings[0].Start.Equal(time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)))
		assert.Equal(t, "s2", sittings[1].ID)
		assert.Equal(t, 1540, domain.TotalDuration(sittings))
	})

	t.Run("save failure", func(t *testing.T) {
		c, _ := newServer(t, http.StatusServiceUnavailable, ``)
		err := c.SaveSitting(context.Background(), 7, domain.Sitting{Duration: 1})
		assert.True(t, errors.Is(err, domain.ErrTransport))
	})
}

func TestClient_Signup(t *testing.T) {
	t.Run("registers", func(t *testing.T) {
		c, seen := newServer(t, http.StatusCreated, `{"token": "new", "user": {"id": 4, "name": "dave", "role": "member"}}`)

		session, err := c.Signup(context.Background(), "dave", "dave@example.com", "password1")

		require.NoError(t, err)
		assert.Equal(t, "new", session.Token)
		assert.Equal(t, 4, session.User.ID)
		assert.Equal(t, "/api/signup", (*seen)[0].Path)
		assert.Equal(t, "dave", (*seen)[0].Body["name"])
	})

	t.Run("email taken", func(t *testing.T) {
		c, _ := newServer(t, http.StatusUnprocessableEntity, `{"errors": {"email": ["The email has already been taken."]}}`)

		_, err := c.Signup(context.Background(), "dave", "dave@example.com", "password1")

		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "email", ve.Field)
	})
}
