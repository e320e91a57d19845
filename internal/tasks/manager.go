// Package tasks runs minimizations in the background with a bounded number
// of concurrent runs.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/semaphore"

	"github.com/usestring/reqmin/internal/pipeline"
)

// State is the lifecycle state of a task.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Finished reports whether s is terminal.
func (s State) Finished() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// RunFunc executes one minimization. It must report progress through the
// given callback and return when ctx is done.
type RunFunc func(ctx context.Context, progress func(pipeline.Progress)) (*pipeline.Result, error)

type taskIDKey struct{}

// IDFromContext returns the ID of the task whose run owns ctx.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(taskIDKey{}).(string)
	return id, ok
}

// Manager schedules tasks. Runs beyond the concurrency limit wait in
// StateQueued. Finished tasks stay queryable until evicted from the history.
type Manager struct {
	sem        *semaphore.Weighted
	runTimeout time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	active  map[string]*Task
	history *lru.Cache[string, *Task]
}

// Option configures a Manager.
type Option func(*Manager)

// WithRunTimeout bounds every run. Zero means no deadline.
func WithRunTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.runTimeout = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager running at most maxConcurrent tasks at once
// and remembering historySize finished tasks.
func NewManager(maxConcurrent, historySize int, opts ...Option) (*Manager, error) {
	if maxConcurrent < 1 {
		return nil, fmt.Errorf("tasks: max concurrent runs must be positive, got %d", maxConcurrent)
	}
	history, err := lru.New[string, *Task](historySize)
	if err != nil {
		return nil, fmt.Errorf("tasks: creating history: %w", err)
	}

	m := &Manager{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		logger:  slog.Default(),
		active:  make(map[string]*Task),
		history: history,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start schedules run and returns its task immediately. The run's context
// is detached from the caller; use Task.Cancel to stop it.
func (m *Manager) Start(name string, run RunFunc) *Task {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), taskIDKey{}, id))
	if m.runTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, m.runTimeout)
		parent := cancel
		cancel = func() {
			timeoutCancel()
			parent()
		}
	}

	t := &Task{
		ID:        id,
		Name:      name,
		state:     StateQueued,
		createdAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.active[t.ID] = t
	m.mu.Unlock()

	go m.execute(ctx, t, run)
	return t
}

func (m *Manager) execute(ctx context.Context, t *Task, run RunFunc) {
	defer close(t.done)
	defer t.cancel()

	log := m.logger.With("task_id", t.ID)

	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.retire(t, nil, err)
		log.Info("task cancelled while queued", "name", t.Name)
		return
	}
	defer m.sem.Release(1)

	// Acquire may succeed on an already cancelled context.
	if err := ctx.Err(); err != nil {
		m.retire(t, nil, err)
		log.Info("task cancelled while queued", "name", t.Name)
		return
	}

	t.mu.Lock()
	t.state = StateRunning
	t.startedAt = time.Now()
	t.mu.Unlock()
	log.Debug("task started", "name", t.Name)

	res, err := run(ctx, t.setProgress)
	m.retire(t, res, err)

	snap := t.Snapshot()
	log.Info("task finished", "name", t.Name, "state", snap.State,
		"duration_ms", snap.FinishedAt.Sub(snap.StartedAt).Milliseconds())
}

// retire records the outcome and moves t from the active set to the
// history. It runs before t.done closes so Wait observers can look t up.
func (m *Manager) retire(t *Task, res *pipeline.Result, err error) {
	t.finish(res, err)

	m.mu.Lock()
	delete(m.active, t.ID)
	m.mu.Unlock()
	m.history.Add(t.ID, t)
}

// Get returns an active or remembered task.
func (m *Manager) Get(id string) (*Task, bool) {
	m.mu.Lock()
	t, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		return t, true
	}
	return m.history.Get(id)
}

// Cancel cancels a task. It reports false for unknown or finished tasks.
func (m *Manager) Cancel(id string) bool {
	t, ok := m.Get(id)
	if !ok || t.State().Finished() {
		return false
	}
	t.Cancel()
	return true
}

// Active returns the number of queued and running tasks.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Shutdown cancels every active task and waits for them, or for ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	active := make([]*Task, 0, len(m.active))
	for _, t := range m.active {
		active = append(active, t)
	}
	m.mu.Unlock()

	for _, t := range active {
		t.Cancel()
	}
	for _, t := range active {
		select {
		case <-t.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Task is a handle on one scheduled run.
type Task struct {
	ID   string
	Name string

	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	state      State
	progress   pipeline.Progress
	result     *pipeline.Result
	err        error
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
}

// Cancel stops the run at its next trial boundary.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done. It returns the run's
// result and error; a cancelled run still returns its partial result.
func (t *Task) Wait(ctx context.Context) (*pipeline.Result, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// State returns the current state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) setProgress(p pipeline.Progress) {
	t.mu.Lock()
	t.progress = p
	t.mu.Unlock()
}

func (t *Task) finish(res *pipeline.Result, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.result = res
	t.err = err
	t.finishedAt = time.Now()
	if t.startedAt.IsZero() {
		t.startedAt = t.finishedAt
	}
	switch {
	case err == nil:
		t.state = StateSucceeded
	case errors.Is(err, context.Canceled):
		t.state = StateCancelled
	default:
		t.state = StateFailed
	}
	if res != nil {
		t.progress.Trials = res.Trials
		t.progress.Accepted = res.Accepted
	}
}

// Snapshot is a point-in-time copy of a task, safe to serialize.
type Snapshot struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	State      State             `json:"state"`
	Progress   pipeline.Progress `json:"progress"`
	Error      string            `json:"error,omitempty"`
	Result     *pipeline.Result  `json:"result,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	StartedAt  time.Time         `json:"started_at,omitzero"`
	FinishedAt time.Time         `json:"finished_at,omitzero"`
}

// Snapshot returns the task's current state.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		ID:         t.ID,
		Name:       t.Name,
		State:      t.state,
		Progress:   t.progress,
		Result:     t.result,
		CreatedAt:  t.createdAt,
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
	if t.err != nil {
		s.Error = t.err.Error()
	}
	return s
}
