// Package sqlstore implements the persistence ports on a local SQLite database,
// for using taskflow without the team service.
package sqlstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/runoshun/taskflow/internal/domain"
)

// userRecord is a row of the users table.
type userRecord struct {
	CreatedAt    time.Time
	Name         string `gorm:"uniqueIndex"`
	Email        string `gorm:"uniqueIndex"`
	Role         string
	PasswordHash string
	Token        *string `gorm:"uniqueIndex"`
	ID           uint    `gorm:"primaryKey"`
}

func (userRecord) TableName() string { return "users" }

func (u userRecord) toDomain() domain.User {
	return domain.User{ID: int(u.ID), Name: u.Name, Email: u.Email, Role: u.Role}
}

// taskRecord is a row of the tasks table.
type taskRecord struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StartDate        *time.Time
	EndDate          *time.Time
	ParentID         *uint `gorm:"index"`
	Title            string
	Description      string
	Status           string `gorm:"index"`
	AssignedUserName string
	ID               uint `gorm:"primaryKey"`
	UserID           uint `gorm:"index"`
	AssignedUserID   uint `gorm:"index"`
	EstimatedTime    int
}

func (taskRecord) TableName() string { return "tasks" }

func (r *taskRecord) toDomain() *domain.Task {
	t := &domain.Task{
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		Title:            r.Title,
		Description:      r.Description,
		Status:           domain.Status(r.Status),
		AssignedUserName: r.AssignedUserName,
		ID:               int(r.ID),
		UserID:           int(r.UserID),
		AssignedUserID:   int(r.AssignedUserID),
		EstimatedTime:    r.EstimatedTime,
	}
	if r.ParentID != nil {
		p := int(*r.ParentID)
		t.ParentID = &p
	}
	return t
}

// settingsRecord holds the Pomodoro settings of one task.
type settingsRecord struct {
	TaskID    uint `gorm:"primaryKey;autoIncrement:false"`
	WorkTime  int
	BreakTime int
}

func (settingsRecord) TableName() string { return "pomodoro_settings" }

// sittingRecord is a row of the sittings table.
type sittingRecord struct {
	StartTime time.Time
	EndTime   time.Time
	ClientID  *string `gorm:"uniqueIndex"`
	ID        uint    `gorm:"primaryKey"`
	TaskID    uint    `gorm:"index"`
	Duration  int
}

func (sittingRecord) TableName() string { return "sittings" }

// dbWriter forwards gorm's log output to the application logger.
type dbWriter struct {
	logger domain.Logger
}

func (w dbWriter) Printf(format string, args ...any) {
	w.logger.Warn(0, "db", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Open opens the SQLite database at dsn and runs migrations.
func Open(dsn string, clock domain.Clock, log domain.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open db: empty dsn")
	}
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		dbWriter{logger: log},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  dbLogger,
		NowFunc: func() time.Time { return clock.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&userRecord{}, &taskRecord{}, &settingsRecord{}, &sittingRecord{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	// Ignore DSNs with explicit mode=memory.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
