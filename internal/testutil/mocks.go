// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
	mu      sync.Mutex
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.NowTime
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NowTime = m.NowTime.Add(d)
}

// Set moves the clock to t.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NowTime = t
}

// MockTaskService is an in-memory test double for domain.TaskService and domain.UserDirectory.
// Tasks are stored flat and nested on ListTasks. Lifecycle calls change the status
// without permission checks; set the Err fields to simulate failures.
// Fields are ordered to minimize memory padding.
type MockTaskService struct {
	Tasks  map[int]*domain.Task
	Users  []domain.User
	Calls  []string // Method names in call order
	OnCall func(method string, id int)

	ListErr       error
	CreateErr     error
	UpdateErr     error
	DeleteErr     error
	TransitionErr error
	UsersErr      error

	mu      sync.Mutex
	NextIDN int
	tick    int
}

// NewMockTaskService creates a new MockTaskService with initialized maps.
func NewMockTaskService() *MockTaskService {
	return &MockTaskService{
		Tasks:   make(map[int]*domain.Task),
		NextIDN: 1,
	}
}

// Ensure MockTaskService implements the service ports.
var (
	_ domain.TaskService   = (*MockTaskService)(nil)
	_ domain.UserDirectory = (*MockTaskService)(nil)
)

// Add stores a task as-is and returns it.
func (m *MockTaskService) Add(task *domain.Task) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tasks[task.ID] = task
	if task.ID >= m.NextIDN {
		m.NextIDN = task.ID + 1
	}
	return task
}

// CallCount returns how many times method was called.
func (m *MockTaskService) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == method {
			n++
		}
	}
	return n
}

// record appends the call and runs the hook outside the lock.
func (m *MockTaskService) record(method string, id int) {
	m.mu.Lock()
	m.Calls = append(m.Calls, method)
	hook := m.OnCall
	m.mu.Unlock()
	if hook != nil {
		hook(method, id)
	}
}

// touch returns a strictly increasing timestamp for UpdatedAt.
func (m *MockTaskService) touch() time.Time {
	m.tick++
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.tick) * time.Minute)
}

// ListTasks returns root tasks with subtasks nested, in ID order.
func (m *MockTaskService) ListTasks(_ context.Context) ([]*domain.Task, error) {
	m.record("ListTasks", 0)
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int, 0, len(m.Tasks))
	for id := range m.Tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	nodes := make(map[int]*domain.Task, len(ids))
	for _, id := range ids {
		c := *m.Tasks[id]
		c.Subtasks = nil
		nodes[id] = &c
	}
	var roots []*domain.Task
	for _, id := range ids {
		n := nodes[id]
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if p, ok := nodes[*n.ParentID]; ok {
			p.Subtasks = append(p.Subtasks, n)
		}
	}
	return roots, nil
}

// CreateTask stores a new task with the next ID.
func (m *MockTaskService) CreateTask(_ context.Context, req domain.NewTaskRequest) (*domain.Task, error) {
	m.record("CreateTask", 0)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	start, end := req.StartDate, req.EndDate
	status := req.Status
	if status == "" {
		status = domain.StatusInProgress
	}
	now := m.touch()
	task := &domain.Task{
		ID:               m.NextIDN,
		UserID:           req.UserID,
		ParentID:         req.ParentID,
		Title:            req.Title,
		Description:      req.Description,
		Status:           status,
		EstimatedTime:    req.EstimatedTime,
		AssignedUserName: req.AssignedUserName,
		AssignedUserID:   req.AssignedUserID,
		StartDate:        &start,
		EndDate:          &end,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.NextIDN++
	m.Tasks[task.ID] = task
	c := *task
	return &c, nil
}

// UpdateTask applies update to the stored task.
func (m *MockTaskService) UpdateTask(_ context.Context, id int, update domain.TaskUpdate) (*domain.Task, error) {
	m.record("UpdateTask", id)
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.Tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	updated := update.Apply(task)
	updated.UpdatedAt = m.touch()
	m.Tasks[id] = updated
	c := *updated
	return &c, nil
}

// DeleteTask removes the task and its descendants. Missing tasks are ignored.
func (m *MockTaskService) DeleteTask(_ context.Context, id int) error {
	m.record("DeleteTask", id)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	remove := []int{id}
	for len(remove) > 0 {
		cur := remove[len(remove)-1]
		remove = remove[:len(remove)-1]
		delete(m.Tasks, cur)
		for tid, t := range m.Tasks {
			if t.ParentID != nil && *t.ParentID == cur {
				remove = append(remove, tid)
			}
		}
	}
	return nil
}

func (m *MockTaskService) setStatus(method string, id int, status domain.Status) (*domain.Task, error) {
	m.record(method, id)
	if m.TransitionErr != nil {
		return nil, m.TransitionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.Tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	c := *task
	c.Status = status
	c.UpdatedAt = m.touch()
	m.Tasks[id] = &c
	out := c
	return &out, nil
}

// RequestApproval sets the status to pending approval.
func (m *MockTaskService) RequestApproval(_ context.Context, id int) (*domain.Task, error) {
	return m.setStatus("RequestApproval", id, domain.StatusPendingApproval)
}

// Approve sets the status to completed.
func (m *MockTaskService) Approve(_ context.Context, id int) (*domain.Task, error) {
	return m.setStatus("Approve", id, domain.StatusCompleted)
}

// Reject sets the status to in progress.
func (m *MockTaskService) Reject(_ context.Context, id int) (*domain.Task, error) {
	return m.setStatus("Reject", id, domain.StatusInProgress)
}

// Complete sets the status to completed.
func (m *MockTaskService) Complete(_ context.Context, id int) (*domain.Task, error) {
	return m.setStatus("Complete", id, domain.StatusCompleted)
}

// RevertToInProgress sets the status to in progress.
func (m *MockTaskService) RevertToInProgress(_ context.Context, id int) (*domain.Task, error) {
	return m.setStatus("RevertToInProgress", id, domain.StatusInProgress)
}

// ListUsers returns the configured users.
func (m *MockTaskService) ListUsers(_ context.Context) ([]domain.User, error) {
	m.record("ListUsers", 0)
	if m.UsersErr != nil {
		return nil, m.UsersErr
	}
	return slices.Clone(m.Users), nil
}

// MockWorkLog is an in-memory test double for domain.WorkLog.
// Fields are ordered to minimize memory padding.
type MockWorkLog struct {
	Settings        map[int]domain.PomodoroSettings
	Sittings        map[int][]domain.Sitting
	GetSettingsErr  error
	SaveSettingsErr error
	SaveSittingErr  error
	ListSittingsErr error
	mu              sync.Mutex
}

// NewMockWorkLog creates a new MockWorkLog with initialized maps.
func NewMockWorkLog() *MockWorkLog {
	return &MockWorkLog{
		Settings: make(map[int]domain.PomodoroSettings),
		Sittings: make(map[int][]domain.Sitting),
	}
}

var _ domain.WorkLog = (*MockWorkLog)(nil)

// GetPomodoroSettings returns stored settings or domain.ErrTaskNotFound.
func (m *MockWorkLog) GetPomodoroSettings(_ context.Context, taskID int) (domain.PomodoroSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetSettingsErr != nil {
		return domain.PomodoroSettings{}, m.GetSettingsErr
	}
	s, ok := m.Settings[taskID]
	if !ok {
		return domain.PomodoroSettings{}, domain.ErrTaskNotFound
	}
	return s, nil
}

// SavePomodoroSettings stores settings.
func (m *MockWorkLog) SavePomodoroSettings(_ context.Context, taskID int, settings domain.PomodoroSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveSettingsErr != nil {
		return m.SaveSettingsErr
	}
	m.Settings[taskID] = settings
	return nil
}

// SaveSitting appends a sitting.
func (m *MockWorkLog) SaveSitting(_ context.Context, taskID int, sitting domain.Sitting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveSittingErr != nil {
		return m.SaveSittingErr
	}
	m.Sittings[taskID] = append(m.Sittings[taskID], sitting)
	return nil
}

// ListSittings returns the sittings of a task, oldest first.
func (m *MockWorkLog) ListSittings(_ context.Context, taskID int) ([]domain.Sitting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListSittingsErr != nil {
		return nil, m.ListSittingsErr
	}
	return slices.Clone(m.Sittings[taskID]), nil
}

// SavedSittings returns a snapshot of the saved sittings of a task.
func (m *MockWorkLog) SavedSittings(taskID int) []domain.Sitting {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.Sittings[taskID])
}

// MockAuthenticator is a test double for domain.Authenticator.
type MockAuthenticator struct {
	Session   *domain.Session
	LoginErr  error
	SignupErr error
	Name      string
	Email     string
	Password  string
}

// Login records the credentials and returns the configured session.
func (m *MockAuthenticator) Login(_ context.Context, email, password string) (*domain.Session, error) {
	m.Email = email
	m.Password = password
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	return m.Session, nil
}

// Signup records the registration and returns the configured session.
func (m *MockAuthenticator) Signup(_ context.Context, name, email, password string) (*domain.Session, error) {
	m.Name = name
	m.Email = email
	m.Password = password
	if m.SignupErr != nil {
		return nil, m.SignupErr
	}
	return m.Session, nil
}

// MockBackend bundles the service mocks into a domain.Backend.
type MockBackend struct {
	*MockTaskService
	*MockWorkLog
	*MockAuthenticator
}

var _ domain.Backend = (*MockBackend)(nil)

// NewMockBackend creates a MockBackend with empty mocks.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		MockTaskService:   NewMockTaskService(),
		MockWorkLog:       NewMockWorkLog(),
		MockAuthenticator: &MockAuthenticator{},
	}
}

// MemoryKV is an in-memory domain.KeyValueStore. Values round-trip through JSON
// like the file-backed store.
// Fields are ordered to minimize memory padding.
type MemoryKV struct {
	Data   map[string][]byte
	GetErr error
	PutErr error
	Puts   int
	mu     sync.Mutex
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{Data: make(map[string][]byte)}
}

var _ domain.KeyValueStore = (*MemoryKV)(nil)

// Get decodes the value at key into v.
func (m *MemoryKV) Get(key string, v any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return false, m.GetErr
	}
	data, ok := m.Data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

// Put stores v at key.
func (m *MemoryKV) Put(key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.Data[key] = data
	m.Puts++
	return nil
}

// Delete removes key.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
	return nil
}

// Has reports whether key is present.
func (m *MemoryKV) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Data[key]
	return ok
}

// LoginAs stores a session for user in kv.
func LoginAs(kv domain.KeyValueStore, user domain.User) {
	_ = kv.Put(domain.SessionKey, domain.Session{Token: "test-token", User: user})
}

// RecordingLogger is a domain.Logger that keeps every line.
type RecordingLogger struct {
	Lines []LogLine
	mu    sync.Mutex
}

// LogLine is one recorded log call.
type LogLine struct {
	Level    string
	Category string
	Msg      string
	TaskID   int
}

var _ domain.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) add(level string, taskID int, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Lines = append(l.Lines, LogLine{Level: level, TaskID: taskID, Category: category, Msg: msg})
}

// Debug records a debug line.
func (l *RecordingLogger) Debug(taskID int, category, msg string) { l.add("DEBUG", taskID, category, msg) }

// Info records an info line.
func (l *RecordingLogger) Info(taskID int, category, msg string) { l.add("INFO", taskID, category, msg) }

// Warn records a warn line.
func (l *RecordingLogger) Warn(taskID int, category, msg string) { l.add("WARN", taskID, category, msg) }

// Error records an error line.
func (l *RecordingLogger) Error(taskID int, category, msg string) { l.add("ERROR", taskID, category, msg) }

// Count returns the number of lines at level.
func (l *RecordingLogger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.Lines {
		if line.Level == level {
			n++
		}
	}
	return n
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config  *domain.Config
	LoadErr error
}

// NewMockConfigLoader creates a new MockConfigLoader with default config.
func NewMockConfigLoader() *MockConfigLoader {
	return &MockConfigLoader{
		Config: domain.NewDefaultConfig(),
	}
}

var _ domain.ConfigLoader = (*MockConfigLoader)(nil)

// Load returns the configured config or error.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Config, nil
}

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitLocalErr     error
	InitGlobalErr    error
	LocalConfigInfo  domain.ConfigInfo
	GlobalConfigInfo domain.ConfigInfo
	InitLocalCalled  bool
	InitGlobalCalled bool
}

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		LocalConfigInfo: domain.ConfigInfo{
			Path: "/work/.taskflow.toml",
		},
		GlobalConfigInfo: domain.ConfigInfo{
			Path: "/home/test/.config/taskflow/config.toml",
		},
	}
}

var _ domain.ConfigManager = (*MockConfigManager)(nil)

// GetLocalConfigInfo returns the configured local config info.
func (m *MockConfigManager) GetLocalConfigInfo() domain.ConfigInfo {
	return m.LocalConfigInfo
}

// GetGlobalConfigInfo returns the configured global config info.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalConfigInfo
}

// InitLocalConfig records the call and returns configured error.
func (m *MockConfigManager) InitLocalConfig(_ *domain.Config) error {
	m.InitLocalCalled = true
	return m.InitLocalErr
}

// InitGlobalConfig records the call and returns configured error.
func (m *MockConfigManager) InitGlobalConfig(_ *domain.Config) error {
	m.InitGlobalCalled = true
	return m.InitGlobalErr
}
