// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/infra/config"
	"github.com/runoshun/taskflow/internal/infra/crypto"
	"github.com/runoshun/taskflow/internal/infra/httpapi"
	"github.com/runoshun/taskflow/internal/infra/jsonstore"
	"github.com/runoshun/taskflow/internal/infra/logging"
	"github.com/runoshun/taskflow/internal/infra/notify"
	"github.com/runoshun/taskflow/internal/infra/scheduler"
	"github.com/runoshun/taskflow/internal/infra/sqlstore"
	"github.com/runoshun/taskflow/internal/usecase"
	"github.com/runoshun/taskflow/internal/usecase/shared"
	"github.com/runoshun/taskflow/internal/worktimer"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the application paths.
type Config struct {
	WorkDir   string // Directory searched for .taskflow.toml
	GlobalDir string // Global config directory
	StateDir  string // Logs, the key-value store and the local database
	StatePath string // Path to state.json
	Verbose   bool   // Mirror log entries to stderr
}

// DefaultConfig resolves the default paths for workDir.
func DefaultConfig(workDir string) Config {
	stateDir := config.DefaultStateDir()
	return Config{
		WorkDir:   workDir,
		GlobalDir: config.DefaultGlobalConfigDir(),
		StateDir:  stateDir,
		StatePath: domain.StatePath(stateDir),
	}
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Backend       domain.Backend
	KV            domain.KeyValueStore
	Clock         domain.Clock
	Log           domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Pointer fields
	AppConfig *domain.Config
	Board     *usecase.Board
	InFlight  *shared.InFlight
	Notifier  *notify.Command
	Logger    *slog.Logger

	closers []io.Closer

	// Configuration
	Config Config
}

// New creates a new Container for the given working directory using the default paths.
func New(dir string) (*Container, error) {
	return NewWithConfig(DefaultConfig(dir))
}

// NewWithConfig creates a new Container with explicit paths.
func NewWithConfig(cfg Config) (*Container, error) {
	if cfg.StatePath == "" && cfg.StateDir != "" {
		cfg.StatePath = domain.StatePath(cfg.StateDir)
	}

	configLoader := config.NewLoaderWithGlobalDir(cfg.WorkDir, cfg.GlobalDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	clock := domain.RealClock{}
	logOpts := []logging.Option{logging.WithClock(clock)}
	if cfg.Verbose {
		logOpts = append(logOpts, logging.WithConsole(os.Stderr, slog.LevelDebug))
	}
	fileLog := logging.New(cfg.StateDir, logging.ParseLevel(appConfig.Log.Level), logOpts...)

	kv := jsonstore.New(cfg.StatePath)
	c := &Container{
		KV:            kv,
		Clock:         clock,
		Log:           fileLog,
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManagerWithGlobalDir(cfg.WorkDir, cfg.GlobalDir),
		AppConfig:     appConfig,
		InFlight:      shared.NewInFlight(),
		Notifier:      notify.New(appConfig.Timer.Notify, fileLog),
		Logger:        logger,
		closers:       []io.Closer{fileLog},
		Config:        cfg,
	}

	backend, closer, err := c.openBackend()
	if err != nil {
		_ = fileLog.Close()
		return nil, err
	}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
	c.Backend = backend
	c.Board = usecase.NewBoard(backend)
	return c, nil
}

// openBackend builds the persistence service selected by [api] backend.
func (c *Container) openBackend() (domain.Backend, io.Closer, error) {
	api := c.AppConfig.API
	switch api.Backend {
	case domain.BackendSQLite:
		dsn := api.DSN
		if dsn == "" {
			dsn = domain.DatabasePath(c.Config.StateDir)
		}
		db, err := sqlstore.Open(dsn, c.Clock, c.Log)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		hasher := crypto.NewHasher(bcrypt.DefaultCost)
		return sqlstore.New(db, hasher, c.token, c.Log), sqlDB, nil
	case domain.BackendHTTP, "":
		return httpapi.New(api.URL, api.Timeout, c.token, c.Log), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", api.Backend)
	}
}

// token returns the bearer token of the stored session.
func (c *Container) token() string {
	s, err := shared.CurrentSession(c.KV)
	if err != nil {
		return ""
	}
	return s.Token
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, appConfig *domain.Config, backend domain.Backend, kv domain.KeyValueStore, clock domain.Clock, log domain.Logger) *Container {
	if appConfig == nil {
		appConfig = domain.NewDefaultConfig()
	}
	return &Container{
		Backend:   backend,
		KV:        kv,
		Clock:     clock,
		Log:       log,
		AppConfig: appConfig,
		Board:     usecase.NewBoard(backend),
		InFlight:  shared.NewInFlight(),
		Notifier:  notify.New(appConfig.Timer.Notify, log),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:    cfg,
	}
}

// Close releases the log files and the database handle.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Timers returns the factory for task work timers.
// Pomodoro phase changes run the [timer] notify command when one is configured.
func (c *Container) Timers() usecase.TimerFactory {
	return func(taskID int) *worktimer.Engine {
		opts := worktimer.Options{
			TaskID:     taskID,
			Clock:      c.Clock,
			Store:      c.KV,
			Log:        c.Backend,
			Logger:     c.Log,
			Defaults:   c.AppConfig.Pomodoro.Settings(),
			StaleAfter: c.AppConfig.Timer.StaleAfter,
			LiveAfter:  c.AppConfig.Timer.LiveAfter,
		}
		if c.Notifier.Enabled() {
			opts.OnPhase = func(p worktimer.Phase) {
				_, _ = c.Notifier.Run(context.Background(), taskID, p.String())
			}
		}
		return worktimer.New(opts)
	}
}

// Scheduler returns a new cron scheduler logging to the application log.
func (c *Container) Scheduler() *scheduler.Scheduler {
	return scheduler.New(c.Log)
}

// UseCase factory methods

// LoginUseCase returns a new Login use case.
func (c *Container) LoginUseCase() *usecase.Login {
	return usecase.NewLogin(c.Backend, c.KV, c.Log)
}

// SignupUseCase returns a new Signup use case.
func (c *Container) SignupUseCase() *usecase.Signup {
	return usecase.NewSignup(c.Backend, c.KV, c.Log)
}

// LogoutUseCase returns a new Logout use case.
func (c *Container) LogoutUseCase() *usecase.Logout {
	return usecase.NewLogout(c.KV)
}

// ListUsersUseCase returns a new ListUsers use case.
func (c *Container) ListUsersUseCase() *usecase.ListUsers {
	return usecase.NewListUsers(c.Backend)
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Board, c.Clock)
}

// ShowTaskUseCase returns a new ShowTask use case.
func (c *Container) ShowTaskUseCase() *usecase.ShowTask {
	return usecase.NewShowTask(c.Board, c.Backend, c.KV, c.Clock, c.Log)
}

// NewTaskUseCase returns a new NewTask use case.
func (c *Container) NewTaskUseCase() *usecase.NewTask {
	return usecase.NewNewTask(c.Board, c.Backend, c.Backend, c.KV, c.InFlight, c.Log)
}

// EditTaskUseCase returns a new EditTask use case.
func (c *Container) EditTaskUseCase() *usecase.EditTask {
	return usecase.NewEditTask(c.Board, c.Backend, c.Backend, c.KV, c.InFlight, c.Log)
}

// DeleteTaskUseCase returns a new DeleteTask use case.
func (c *Container) DeleteTaskUseCase() *usecase.DeleteTask {
	return usecase.NewDeleteTask(c.Board, c.Backend, c.KV, c.InFlight, c.Log)
}

// CreateTasksFromFileUseCase returns a new CreateTasksFromFile use case.
func (c *Container) CreateTasksFromFileUseCase() *usecase.CreateTasksFromFile {
	return usecase.NewCreateTasksFromFile(c.Board, c.Backend, c.Backend, c.KV, c.Clock, c.Log)
}

// RequestApprovalUseCase returns a new RequestApproval use case.
func (c *Container) RequestApprovalUseCase() *usecase.RequestApproval {
	return usecase.NewRequestApproval(c.Board, c.Backend, c.KV, c.InFlight, c.Log)
}

// ApproveTaskUseCase returns a new ApproveTask use case.
func (c *Container) ApproveTaskUseCase() *usecase.ApproveTask {
	return usecase.NewApproveTask(c.Board, c.Backend, c.KV, c.InFlight, c.Log)
}

// RejectTaskUseCase returns a new RejectTask use case.
func (c *Container) RejectTaskUseCase() *usecase.RejectTask {
	return usecase.NewRejectTask(c.Board, c.Backend, c.KV, c.InFlight, c.Log)
}

// RevertTaskUseCase returns a new RevertTask use case.
func (c *Container) RevertTaskUseCase() *usecase.RevertTask {
	return usecase.NewRevertTask(c.Board, c.Backend, c.KV, c.InFlight, c.Log)
}

// CompleteTaskUseCase returns a new CompleteTask use case.
func (c *Container) CompleteTaskUseCase() *usecase.CompleteTask {
	return usecase.NewCompleteTask(c.Board, c.Backend, c.KV, c.InFlight, c.Log)
}

// StartWorkUseCase returns a new StartWork use case.
func (c *Container) StartWorkUseCase() *usecase.StartWork {
	return usecase.NewStartWork(c.Board, c.KV, c.Timers(), c.Log)
}

// StopWorkUseCase returns a new StopWork use case.
func (c *Container) StopWorkUseCase() *usecase.StopWork {
	return usecase.NewStopWork(c.Timers())
}

// WorkStatusUseCase returns a new WorkStatus use case.
func (c *Container) WorkStatusUseCase() *usecase.WorkStatus {
	return usecase.NewWorkStatus(c.KV, c.Clock)
}

// GetPomodoroSettingsUseCase returns a new GetPomodoroSettings use case.
func (c *Container) GetPomodoroSettingsUseCase() *usecase.GetPomodoroSettings {
	return usecase.NewGetPomodoroSettings(c.Backend, c.AppConfig.Pomodoro.Settings(), c.Log)
}

// UpdatePomodoroSettingsUseCase returns a new UpdatePomodoroSettings use case.
func (c *Container) UpdatePomodoroSettingsUseCase() *usecase.UpdatePomodoroSettings {
	return usecase.NewUpdatePomodoroSettings(c.Backend, c.Log)
}

// ListSittingsUseCase returns a new ListSittings use case.
func (c *Container) ListSittingsUseCase() *usecase.ListSittings {
	return usecase.NewListSittings(c.Backend)
}

// ShowLogsUseCase returns a new ShowLogs use case.
func (c *Container) ShowLogsUseCase() *usecase.ShowLogs {
	return usecase.NewShowLogs(c.Config.StateDir)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigTemplateUseCase returns a new ShowConfigTemplate use case.
func (c *Container) ShowConfigTemplateUseCase() *usecase.ShowConfigTemplate {
	return usecase.NewShowConfigTemplate()
}
