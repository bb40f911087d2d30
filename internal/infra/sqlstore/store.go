package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/infra/crypto"
)

// Ensure Store implements domain.Backend.
var _ domain.Backend = (*Store)(nil)

// TokenSource returns the token of the current session, or "" when logged out.
type TokenSource func() string

// Store serves every persistence port from the database and enforces the
// lifecycle rules the team service enforces.
type Store struct {
	db     *gorm.DB
	hasher *crypto.Hasher
	token  TokenSource
	logger domain.Logger
}

// New creates a new Store.
func New(db *gorm.DB, hasher *crypto.Hasher, token TokenSource, logger domain.Logger) *Store {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Store{
		db:     db,
		hasher: hasher,
		token:  token,
		logger: logger,
	}
}

// dbErr reports a failed query as the service being unavailable.
func dbErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrTransport, op, err)
}

// currentUser resolves the session token to its user.
func (s *Store) currentUser(ctx context.Context) (domain.User, error) {
	token := s.token()
	if token == "" {
		return domain.User{}, domain.ErrNotLoggedIn
	}
	var u userRecord
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, domain.ErrNotLoggedIn
	}
	if err != nil {
		return domain.User{}, dbErr("find session user", err)
	}
	return u.toDomain(), nil
}

// findTask loads one task row.
func findTask(tx *gorm.DB, id int) (*taskRecord, error) {
	var rec taskRecord
	err := tx.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task #%d: %w", id, domain.ErrTaskNotFound)
	}
	if err != nil {
		return nil, dbErr("find task", err)
	}
	return &rec, nil
}

// loadForest loads every task and links subtasks under their parents.
func loadForest(tx *gorm.DB) ([]*domain.Task, error) {
	var recs []taskRecord
	if err := tx.Order("id").Find(&recs).Error; err != nil {
		return nil, dbErr("list tasks", err)
	}
	return buildForest(recs), nil
}

// buildForest links records ordered by id into trees. Orphans become roots.
func buildForest(recs []taskRecord) []*domain.Task {
	nodes := make(map[int]*domain.Task, len(recs))
	for i := range recs {
		t := recs[i].toDomain()
		nodes[t.ID] = t
	}
	var roots []*domain.Task
	for i := range recs {
		t := nodes[int(recs[i].ID)]
		if t.ParentID == nil {
			roots = append(roots, t)
			continue
		}
		parent, ok := nodes[*t.ParentID]
		if !ok {
			roots = append(roots, t)
			continue
		}
		parent.Subtasks = append(parent.Subtasks, t)
	}
	return roots
}

// subtree returns the task with its descendants.
func subtree(tx *gorm.DB, id int) (*domain.Task, error) {
	forest, err := loadForest(tx)
	if err != nil {
		return nil, err
	}
	node := domain.FindNode(forest, id)
	if node == nil {
		return nil, fmt.Errorf("task #%d: %w", id, domain.ErrTaskNotFound)
	}
	return node, nil
}

// ListTasks returns root tasks with subtasks inlined.
func (s *Store) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	if _, err := s.currentUser(ctx); err != nil {
		return nil, err
	}
	return loadForest(s.db.WithContext(ctx))
}

// CreateTask creates a root task or a subtask.
func (s *Store) CreateTask(ctx context.Context, req domain.NewTaskRequest) (*domain.Task, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := taskRecord{
			Title:            req.Title,
			Description:      req.Description,
			Status:           string(domain.StatusInProgress),
			AssignedUserName: req.AssignedUserName,
			UserID:           uint(user.ID),
			EstimatedTime:    req.EstimatedTime,
		}
		start, end := req.StartDate.UTC(), req.EndDate.UTC()
		rec.StartDate, rec.EndDate = &start, &end
		if req.Status != "" {
			rec.Status = string(req.Status)
		}

		if req.ParentID != nil {
			parent, err := findTask(tx, *req.ParentID)
			if errors.Is(err, domain.ErrTaskNotFound) {
				return fmt.Errorf("task #%d: %w", *req.ParentID, domain.ErrParentNotFound)
			}
			if err != nil {
				return err
			}
			if err := domain.Permit(domain.ActionAddSubtask, parent.toDomain(), user); err != nil {
				return err
			}
			pid := parent.ID
			rec.ParentID = &pid
		}

		var assignee userRecord
		err := tx.Where("name = ?", req.AssignedUserName).First(&assignee).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%q: %w", req.AssignedUserName, domain.ErrUserNotFound)
		}
		if err != nil {
			return dbErr("find assignee", err)
		}
		rec.AssignedUserID = assignee.ID

		if err := tx.Create(&rec).Error; err != nil {
			return dbErr("create task", err)
		}
		created = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug(created.ID, "db", "task created")
	return created, nil
}

// UpdateTask applies a partial update and returns the stored task.
func (s *Store) UpdateTask(ctx context.Context, id int, update domain.TaskUpdate) (*domain.Task, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	var out *domain.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := subtree(tx, id)
		if err != nil {
			return err
		}
		if err := domain.Permit(domain.ActionEdit, task, user); err != nil {
			return err
		}
		if err := update.Validate(task); err != nil {
			return err
		}

		fields := map[string]any{}
		if update.Title != nil {
			fields["title"] = *update.Title
		}
		if update.Description != nil {
			fields["description"] = *update.Description
		}
		if update.AssignedUserName != nil {
			fields["assigned_user_name"] = *update.AssignedUserName
		}
		if update.AssignedUserID != nil {
			fields["assigned_user_id"] = *update.AssignedUserID
		}
		if update.EstimatedTime != nil {
			fields["estimated_time"] = *update.EstimatedTime
		}
		if err := tx.Model(&taskRecord{ID: uint(id)}).Updates(fields).Error; err != nil {
			return dbErr("update task", err)
		}
		out, err = subtree(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTask removes a task and its subtree. A missing task is not an error.
func (s *Store) DeleteTask(ctx context.Context, id int) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := subtree(tx, id)
		if errors.Is(err, domain.ErrTaskNotFound) {
			s.logger.Warn(id, "db", "task not found or already deleted")
			return nil
		}
		if err != nil {
			return err
		}
		if err := domain.Permit(domain.ActionDelete, task, user); err != nil {
			return err
		}

		var ids []uint
		domain.Walk([]*domain.Task{task}, func(t *domain.Task, _ int) bool {
			ids = append(ids, uint(t.ID))
			return true
		})
		if err := tx.Where("task_id IN ?", ids).Delete(&sittingRecord{}).Error; err != nil {
			return dbErr("delete sittings", err)
		}
		if err := tx.Where("task_id IN ?", ids).Delete(&settingsRecord{}).Error; err != nil {
			return dbErr("delete settings", err)
		}
		if err := tx.Where("id IN ?", ids).Delete(&taskRecord{}).Error; err != nil {
			return dbErr("delete tasks", err)
		}
		return nil
	})
}

// transition applies a lifecycle action after checking it against the rules.
func (s *Store) transition(ctx context.Context, id int, action domain.Action) (*domain.Task, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	var out *domain.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := findTask(tx, id)
		if err != nil {
			return err
		}
		if err := domain.Permit(action, rec.toDomain(), user); err != nil {
			return err
		}
		to, _ := domain.TargetStatus(action)
		if err := tx.Model(rec).Update("status", string(to)).Error; err != nil {
			return dbErr("update status", err)
		}
		out, err = subtree(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequestApproval moves an in-progress task to pending approval.
func (s *Store) RequestApproval(ctx context.Context, id int) (*domain.Task, error) {
	return s.transition(ctx, id, domain.ActionRequestApproval)
}

// Approve completes a task pending approval.
func (s *Store) Approve(ctx context.Context, id int) (*domain.Task, error) {
	return s.transition(ctx, id, domain.ActionApprove)
}

// Reject sends a task pending approval back to in progress.
func (s *Store) Reject(ctx context.Context, id int) (*domain.Task, error) {
	return s.transition(ctx, id, domain.ActionReject)
}

// Complete marks a task completed without approval.
func (s *Store) Complete(ctx context.Context, id int) (*domain.Task, error) {
	return s.transition(ctx, id, domain.ActionComplete)
}

// RevertToInProgress withdraws an approval request.
func (s *Store) RevertToInProgress(ctx context.Context, id int) (*domain.Task, error) {
	return s.transition(ctx, id, domain.ActionRevert)
}

// ListUsers returns the user directory.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	if _, err := s.currentUser(ctx); err != nil {
		return nil, err
	}
	var recs []userRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, dbErr("list users", err)
	}
	users := make([]domain.User, len(recs))
	for i, r := range recs {
		users[i] = r.toDomain()
	}
	return users, nil
}

// Login checks the password and issues a new session token.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var u userRecord
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("login: %w", domain.ErrPermissionDenied)
	}
	if err != nil {
		return nil, dbErr("find user", err)
	}
	if err := s.hasher.Check(u.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			return nil, fmt.Errorf("login: %w", domain.ErrPermissionDenied)
		}
		return nil, err
	}
	return s.issueToken(ctx, &u)
}

// Signup registers a user. The first user becomes admin.
func (s *Store) Signup(ctx context.Context, name, email, password string) (*domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, &domain.ValidationError{Field: "password", Message: err.Error()}
	}

	u := userRecord{Name: name, Email: email, Role: "member", PasswordHash: hash}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&userRecord{}).Where("email = ?", email).Count(&taken).Error; err != nil {
			return dbErr("check email", err)
		}
		if taken > 0 {
			return &domain.ValidationError{Field: "email", Message: "The email has already been taken."}
		}
		if err := tx.Model(&userRecord{}).Where("name = ?", name).Count(&taken).Error; err != nil {
			return dbErr("check name", err)
		}
		if taken > 0 {
			return &domain.ValidationError{Field: "name", Message: "The name has already been taken."}
		}
		var users int64
		if err := tx.Model(&userRecord{}).Count(&users).Error; err != nil {
			return dbErr("count users", err)
		}
		if users == 0 {
			u.Role = "admin"
		}
		if err := tx.Create(&u).Error; err != nil {
			return dbErr("create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.issueToken(ctx, &u)
}

func (s *Store) issueToken(ctx context.Context, u *userRecord) (*domain.Session, error) {
	token, err := crypto.NewToken()
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("token", token).Error; err != nil {
		return nil, dbErr("save token", err)
	}
	return &domain.Session{Token: token, User: u.toDomain()}, nil
}

// GetPomodoroSettings returns the settings stored for a task.
func (s *Store) GetPomodoroSettings(ctx context.Context, taskID int) (domain.PomodoroSettings, error) {
	if _, err := s.currentUser(ctx); err != nil {
		return domain.PomodoroSettings{}, err
	}
	var rec settingsRecord
	err := s.db.WithContext(ctx).Where("task_id = ?", taskID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.PomodoroSettings{}, fmt.Errorf("pomodoro settings of task #%d: %w", taskID, domain.ErrTaskNotFound)
	}
	if err != nil {
		return domain.PomodoroSettings{}, dbErr("find settings", err)
	}
	return domain.PomodoroSettings{WorkTime: rec.WorkTime, BreakTime: rec.BreakTime}, nil
}

// SavePomodoroSettings stores the settings of a task.
func (s *Store) SavePomodoroSettings(ctx context.Context, taskID int, settings domain.PomodoroSettings) error {
	if _, err := s.currentUser(ctx); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if _, err := findTask(db, taskID); err != nil {
		return err
	}
	rec := settingsRecord{TaskID: uint(taskID), WorkTime: settings.WorkTime, BreakTime: settings.BreakTime}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"work_time", "break_time"}),
	}).Create(&rec).Error
	if err != nil {
		return dbErr("save settings", err)
	}
	return nil
}

// SaveSitting records a sitting. Saving the same client ID twice keeps one row.
func (s *Store) SaveSitting(ctx context.Context, taskID int, sitting domain.Sitting) error {
	if _, err := s.currentUser(ctx); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if _, err := findTask(db, taskID); err != nil {
		return err
	}
	rec := sittingRecord{
		StartTime: sitting.Start.UTC(),
		EndTime:   sitting.End.UTC(),
		TaskID:    uint(taskID),
		Duration:  sitting.Duration,
	}
	if sitting.ID != "" {
		id := sitting.ID
		rec.ClientID = &id
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
		return dbErr("save sitting", err)
	}
	return nil
}

// ListSittings returns the sittings of a task, oldest first.
func (s *Store) ListSittings(ctx context.Context, taskID int) ([]domain.Sitting, error) {
	if _, err := s.currentUser(ctx); err != nil {
		return nil, err
	}
	var recs []sittingRecord
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Order("start_time, id").Find(&recs).Error; err != nil {
		return nil, dbErr("list sittings", err)
	}
	sittings := make([]domain.Sitting, len(recs))
	for i, r := range recs {
		id := strconv.FormatUint(uint64(r.ID), 10)
		if r.ClientID != nil {
			id = *r.ClientID
		}
		sittings[i] = domain.Sitting{Start: r.StartTime, End: r.EndTime, ID: id, Duration: r.Duration}
	}
	return sittings, nil
}
