// Package worktimer records work sittings on a task, either as one manual
// session or as alternating Pomodoro work and break phases.
package worktimer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runoshun/taskflow/internal/domain"
)

// Mode is the kind of session the engine is running.
type Mode int

const (
	ModeIdle Mode = iota
	ModeManual
	ModePomodoro
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModePomodoro:
		return "pomodoro"
	default:
		return "idle"
	}
}

// Phase is the current half of the Pomodoro cycle.
type Phase int

const (
	PhaseWork Phase = iota
	PhaseBreak
)

func (p Phase) String() string {
	if p == PhaseBreak {
		return "break"
	}
	return "work"
}

// Snapshot is the observable timer state.
// Fields are ordered to minimize memory padding.
type Snapshot struct {
	SessionStart time.Time
	PhaseStart   time.Time
	Settings     domain.PomodoroSettings // Settings the next phase starts with
	Mode         Mode
	Phase        Phase
	Elapsed      int // Seconds since the session started
	Remaining    int // Seconds left in the current phase, Pomodoro only
	Total        int // Sum of recorded sitting durations in seconds
	Sittings     int // Number of recorded sittings
}

// Running reports whether a session is active.
func (s Snapshot) Running() bool {
	return s.Mode != ModeIdle
}

// Options configures an Engine.
// Fields are ordered to minimize memory padding.
type Options struct {
	Clock      domain.Clock
	Store      domain.KeyValueStore
	Log        domain.WorkLog
	Logger     domain.Logger
	NewID      func() string // Sitting ID generator; defaults to random UUIDs
	OnPhase    func(Phase)   // Called in the background when a live Pomodoro phase begins
	Defaults   domain.PomodoroSettings
	StaleAfter time.Duration // Checkpoints older than this close the session instead of resuming it; 0 disables
	LiveAfter  time.Duration // Checkpoints ticked more recently than this belong to a running process; 0 uses domain.DefaultLiveAfter, negative disables
	TaskID     int
}

// Engine is the work timer of one task. All methods are safe for concurrent use.
//
// Sittings are persisted asynchronously. A failed save is logged and the sitting
// stays in the in-memory list. Use Wait to block until pending saves finish.
// Fields are ordered to minimize memory padding.
type Engine struct {
	clock   domain.Clock
	store   domain.KeyValueStore
	log     domain.WorkLog
	logger  domain.Logger
	newID   func() string
	onPhase func(Phase)
	owner   string // Written into every checkpoint; another value means another process owns the session

	sessionStart time.Time
	phaseStart   time.Time
	lastTick     time.Time
	sittings     []domain.Sitting
	settings     domain.PomodoroSettings
	defaults     domain.PomodoroSettings

	wg         sync.WaitGroup
	mu         sync.Mutex
	staleAfter time.Duration
	liveAfter  time.Duration
	phaseLen   time.Duration
	total      int
	taskID     int
	mode       Mode
	phase      Phase

	checkpointFailed  bool
	checkpointWritten bool
}

// New creates an idle engine.
func New(opts Options) *Engine {
	e := &Engine{
		clock:      opts.Clock,
		store:      opts.Store,
		log:        opts.Log,
		logger:     opts.Logger,
		newID:      opts.NewID,
		onPhase:    opts.OnPhase,
		defaults:   opts.Defaults.WithDefaults(),
		staleAfter: opts.StaleAfter,
		liveAfter:  opts.LiveAfter,
		taskID:     opts.TaskID,
		owner:      uuid.NewString(),
	}
	if e.liveAfter == 0 {
		e.liveAfter = domain.DefaultLiveAfter
	}
	if e.clock == nil {
		e.clock = domain.RealClock{}
	}
	if e.logger == nil {
		e.logger = domain.NopLogger{}
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.NewString() }
	}
	e.settings = e.defaults
	return e
}

// Load reads the task's Pomodoro settings and recorded sittings.
// Failures fall back to the defaults and an empty list; they are logged, not returned.
func (e *Engine) Load(ctx context.Context) {
	settings, err := e.log.GetPomodoroSettings(ctx, e.taskID)
	if err == nil {
		err = settings.Validate()
	}
	if err != nil {
		e.logger.Warn(e.taskID, "timer", fmt.Sprintf("load pomodoro settings, using defaults: %v", err))
		settings = e.defaults
	}
	settings.IsBreak = false

	sittings, err := e.log.ListSittings(ctx, e.taskID)
	if err != nil {
		e.logger.Warn(e.taskID, "timer", fmt.Sprintf("load sittings: %v", err))
		sittings = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = settings
	e.sittings = sittings
	e.total = domain.TotalDuration(sittings)
}

// Settings returns the settings the next phase starts with.
func (e *Engine) Settings() domain.PomodoroSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings validates and saves new Pomodoro settings. A running phase keeps
// its length; the new durations apply from the next phase.
func (e *Engine) UpdateSettings(ctx context.Context, settings domain.PomodoroSettings) error {
	settings.IsBreak = false
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := e.log.SavePomodoroSettings(ctx, e.taskID, settings); err != nil {
		e.logger.Error(e.taskID, "timer", fmt.Sprintf("save pomodoro settings: %v", err))
		return fmt.Errorf("save pomodoro settings: %w", err)
	}
	e.mu.Lock()
	e.settings = settings
	e.mu.Unlock()
	e.logger.Info(e.taskID, "timer", fmt.Sprintf("pomodoro settings: work %ds, break %ds", settings.WorkTime, settings.BreakTime))
	return nil
}

// StartManual starts a session that records one sitting when stopped.
func (e *Engine) StartManual(ctx context.Context) error {
	return e.start(ctx, ModeManual)
}

// StartPomodoro starts a session in the work phase.
func (e *Engine) StartPomodoro(ctx context.Context) error {
	return e.start(ctx, ModePomodoro)
}

func (e *Engine) start(_ context.Context, mode Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeIdle {
		return domain.ErrTimerRunning
	}
	var cp domain.Checkpoint
	if ok, err := e.store.Get(domain.CheckpointKey(e.taskID), &cp); err == nil && ok && cp.Working {
		// Another process owns a session for this task.
		return fmt.Errorf("task #%d: %w", e.taskID, domain.ErrTimerRunning)
	}

	now := e.clock.Now()
	e.mode = mode
	e.sessionStart = now
	e.lastTick = now
	if mode == ModePomodoro {
		e.beginPhase(PhaseWork, now)
	}
	e.writeCheckpoint()
	e.logger.Info(e.taskID, "timer", fmt.Sprintf("%s session started", mode))
	return nil
}

// beginPhase starts phase at t with the current settings.
func (e *Engine) beginPhase(phase Phase, t time.Time) {
	e.phase = phase
	e.phaseStart = t
	if phase == PhaseBreak {
		e.phaseLen = e.settings.BreakDuration()
	} else {
		e.phaseLen = e.settings.WorkDuration()
	}
}

func (e *Engine) phaseEnd() time.Time {
	return e.phaseStart.Add(e.phaseLen)
}

// Tick samples the clock. In Pomodoro mode a phase that has run its length ends
// at the current time; leaving a work phase records a sitting.
func (e *Engine) Tick(ctx context.Context) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeIdle {
		return e.snapshot(e.clock.Now())
	}
	now := e.clock.Now()
	if e.lostOwnership() {
		// The session was stopped or taken over elsewhere; what it owes is recorded there.
		e.mode = ModeIdle
		e.phase = PhaseWork
		e.logger.Warn(e.taskID, "timer", "session closed by another process")
		return e.snapshot(now)
	}
	if e.mode == ModePomodoro && !now.Before(e.phaseEnd()) {
		if e.phase == PhaseWork {
			e.persist(ctx, e.record(e.phaseStart, now))
			e.beginPhase(PhaseBreak, now)
			e.logger.Debug(e.taskID, "timer", "break started")
		} else {
			e.beginPhase(PhaseWork, now)
			e.logger.Debug(e.taskID, "timer", "work started")
		}
		e.notify(e.phase)
	}
	e.lastTick = now
	e.writeCheckpoint()
	return e.snapshot(now)
}

// lostOwnership reports whether the stored checkpoint was removed or rewritten by
// another engine since this one last wrote it. Read failures keep the session.
func (e *Engine) lostOwnership() bool {
	if !e.checkpointWritten {
		return false
	}
	var cp domain.Checkpoint
	ok, err := e.store.Get(domain.CheckpointKey(e.taskID), &cp)
	if err != nil {
		return false
	}
	return !ok || !cp.Working || cp.Owner != e.owner
}

// notify reports a phase change without holding the lock.
func (e *Engine) notify(p Phase) {
	if e.onPhase == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.onPhase(p)
	}()
}

// Stop ends the session. A manual session records one sitting from its start.
// A Pomodoro work phase records the partial phase if it lasted more than a second;
// stopping during a break records nothing. The returned sitting is nil when nothing
// was recorded.
func (e *Engine) Stop(ctx context.Context) (*domain.Sitting, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeIdle {
		return nil, domain.ErrTimerIdle
	}
	s := e.closeAt(ctx, e.clock.Now())
	e.logger.Info(e.taskID, "timer", "session stopped")
	return s, nil
}

// closeAt records what the session owes at end and returns to idle. Pending
// sittings are saved together with it.
func (e *Engine) closeAt(ctx context.Context, end time.Time, pending ...domain.Sitting) *domain.Sitting {
	var s *domain.Sitting
	switch {
	case e.mode == ModeManual:
		last := e.record(e.sessionStart, end)
		s = &last
	case e.mode == ModePomodoro && e.phase == PhaseWork:
		if domain.FloorSeconds(end.Sub(e.phaseStart)) > 1 {
			last := e.record(e.phaseStart, end)
			s = &last
		}
	}
	if s != nil {
		pending = append(pending, *s)
	}
	e.persist(ctx, pending...)
	e.mode = ModeIdle
	e.phase = PhaseWork
	if err := e.store.Delete(domain.CheckpointKey(e.taskID)); err != nil {
		e.logger.Warn(e.taskID, "timer", fmt.Sprintf("delete checkpoint: %v", err))
	}
	return s
}

// record appends a sitting to the in-memory list. Callers save it with persist.
func (e *Engine) record(start, end time.Time) domain.Sitting {
	s := domain.Sitting{
		ID:       e.newID(),
		Start:    start,
		End:      end,
		Duration: domain.FloorSeconds(end.Sub(start)),
	}
	e.sittings = append(e.sittings, s)
	e.total += s.Duration
	return s
}

// persist saves sittings in the background, one after another.
func (e *Engine) persist(ctx context.Context, sittings ...domain.Sitting) {
	if len(sittings) == 0 {
		return
	}
	saveCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for _, s := range sittings {
			if err := e.log.SaveSitting(saveCtx, e.taskID, s); err != nil {
				e.logger.Error(e.taskID, "timer", fmt.Sprintf("save sitting %s (%ds): %v", s.ID, s.Duration, err))
				continue
			}
			e.logger.Info(e.taskID, "timer", fmt.Sprintf("sitting recorded: %ds", s.Duration))
		}
	}()
}

// Wait blocks until every pending sitting save has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Restore resumes a session from its checkpoint after a restart. Pomodoro phase
// boundaries that passed while the process was down are replayed at their nominal
// times. A checkpoint older than the stale limit closes the session at its last
// tick instead. Returns true if a session is running afterwards.
//
// A checkpoint ticked within the live window belongs to a running process and
// is refused with domain.ErrTimerRunning.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	return e.restore(ctx, false)
}

// Takeover is Restore without the live check. The process that was running the
// session notices on its next tick and goes idle without recording.
func (e *Engine) Takeover(ctx context.Context) (bool, error) {
	return e.restore(ctx, true)
}

func (e *Engine) restore(ctx context.Context, force bool) (bool, error) {
	var cp domain.Checkpoint
	ok, err := e.store.Get(domain.CheckpointKey(e.taskID), &cp)
	if err != nil {
		return false, fmt.Errorf("read checkpoint: %w", err)
	}
	if !ok || !cp.Working {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeIdle {
		return false, domain.ErrTimerRunning
	}

	now := e.clock.Now()
	if !force && e.liveAfter > 0 && !cp.LastTick.IsZero() && now.Sub(cp.LastTick) < e.liveAfter {
		return false, fmt.Errorf("task #%d is timed by another process: %w", e.taskID, domain.ErrTimerRunning)
	}
	lastTick := cp.LastTick
	if lastTick.IsZero() {
		lastTick = now
	}
	e.sessionStart = cp.SessionStart
	e.lastTick = lastTick
	if cp.Settings.Validate() == nil {
		e.settings = cp.Settings
		e.settings.IsBreak = false
	}

	e.mode = ModeManual
	if cp.UsingPomodoro {
		e.mode = ModePomodoro
		e.restorePhase(cp, lastTick)
	}

	end := now
	stale := e.staleAfter > 0 && now.Sub(lastTick) > e.staleAfter
	if stale {
		end = lastTick
	}
	var pending []domain.Sitting
	if e.mode == ModePomodoro {
		pending = e.catchUp(end)
	}

	if stale {
		e.closeAt(ctx, end, pending...)
		e.logger.Warn(e.taskID, "timer", fmt.Sprintf("stale session closed at %s", end.Format(time.RFC3339)))
		return false, nil
	}
	e.persist(ctx, pending...)
	e.lastTick = now
	e.writeCheckpoint()
	e.logger.Info(e.taskID, "timer", fmt.Sprintf("%s session resumed", e.mode))
	return true, nil
}

// restorePhase rebuilds the current phase from a checkpoint.
func (e *Engine) restorePhase(cp domain.Checkpoint, lastTick time.Time) {
	phase := PhaseWork
	if cp.Settings.IsBreak {
		phase = PhaseBreak
	}
	e.beginPhase(phase, cp.PhaseStart)
	if !cp.PhaseEnd.IsZero() && cp.PhaseEnd.After(cp.PhaseStart) {
		e.phaseLen = cp.PhaseEnd.Sub(cp.PhaseStart)
	}
	if cp.PhaseStart.IsZero() {
		// Only the remaining seconds are known.
		end := lastTick.Add(time.Duration(cp.Remaining) * time.Second)
		e.phaseStart = end.Add(-e.phaseLen)
	}
}

// catchUp replays the phase boundaries up to end at their nominal times and
// returns the work phases it recorded, unsaved.
func (e *Engine) catchUp(end time.Time) []domain.Sitting {
	var recorded []domain.Sitting
	for e.phaseLen > 0 && !end.Before(e.phaseEnd()) {
		boundary := e.phaseEnd()
		if e.phase == PhaseWork {
			recorded = append(recorded, e.record(e.phaseStart, boundary))
			e.beginPhase(PhaseBreak, boundary)
		} else {
			e.beginPhase(PhaseWork, boundary)
		}
	}
	return recorded
}

// writeCheckpoint stores the current state. Failures are logged once until a write succeeds.
func (e *Engine) writeCheckpoint() {
	now := e.lastTick
	settings := e.settings
	settings.IsBreak = e.mode == ModePomodoro && e.phase == PhaseBreak
	cp := domain.Checkpoint{
		SessionStart:  e.sessionStart,
		LastTick:      now,
		Settings:      settings,
		Elapsed:       domain.FloorSeconds(now.Sub(e.sessionStart)),
		Owner:         e.owner,
		Working:       true,
		UsingPomodoro: e.mode == ModePomodoro,
	}
	if e.mode == ModePomodoro {
		cp.PhaseStart = e.phaseStart
		cp.PhaseEnd = e.phaseEnd()
		cp.Remaining = domain.CeilSeconds(e.phaseEnd().Sub(now))
	}
	if err := e.store.Put(domain.CheckpointKey(e.taskID), cp); err != nil {
		if !e.checkpointFailed {
			e.logger.Warn(e.taskID, "timer", fmt.Sprintf("write checkpoint: %v", err))
		}
		e.checkpointFailed = true
		return
	}
	e.checkpointFailed = false
	e.checkpointWritten = true
}

// Snapshot returns the current state without advancing phases.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(e.clock.Now())
}

func (e *Engine) snapshot(now time.Time) Snapshot {
	s := Snapshot{
		Mode:     e.mode,
		Settings: e.settings,
		Total:    e.total,
		Sittings: len(e.sittings),
	}
	if e.mode == ModeIdle {
		return s
	}
	s.SessionStart = e.sessionStart
	s.Elapsed = domain.FloorSeconds(now.Sub(e.sessionStart))
	if e.mode == ModePomodoro {
		s.Phase = e.phase
		s.PhaseStart = e.phaseStart
		s.Remaining = domain.CeilSeconds(e.phaseEnd().Sub(now))
	}
	return s
}

// Sittings returns the recorded sittings, oldest first.
func (e *Engine) Sittings() []domain.Sitting {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Sitting, len(e.sittings))
	copy(out, e.sittings)
	return out
}

// TotalSittingTime returns the sum of recorded sitting durations in seconds.
func (e *Engine) TotalSittingTime() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// Run ticks every interval until ctx is done, passing each snapshot to onTick.
// Cancellation tears the loop down without stopping the session, so the
// checkpoint survives for Restore.
func (e *Engine) Run(ctx context.Context, interval time.Duration, onTick func(Snapshot)) {
	if interval <= 0 {
		interval = domain.DefaultTick
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := e.Tick(ctx)
			if onTick != nil {
				onTick(snap)
			}
			if !snap.Running() {
				return
			}
		}
	}
}
