package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/reqmin/internal/pipeline"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestManager_Succeeds(t *testing.T) {
	m, err := NewManager(2, 8)
	require.NoError(t, err)

	task := m.Start("view-1", func(ctx context.Context, progress func(pipeline.Progress)) (*pipeline.Result, error) {
		progress(pipeline.Progress{Stage: pipeline.StageHeaders, Trials: 1})
		return &pipeline.Result{Trials: 3, Accepted: 1}, nil
	})

	res, err := task.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Trials)

	snap := task.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, 3, snap.Progress.Trials)
	assert.Equal(t, 1, snap.Progress.Accepted)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.FinishedAt.IsZero())

	got, ok := m.Get(task.ID)
	require.True(t, ok)
	assert.Same(t, task, got)
	assert.Equal(t, 0, m.Active())
}

func TestManager_Failed(t *testing.T) {
	m, err := NewManager(1, 8)
	require.NoError(t, err)

	boom := errors.New("baseline failed")
	task := m.Start("view-1", func(context.Context, func(pipeline.Progress)) (*pipeline.Result, error) {
		return nil, boom
	})

	_, err = task.Wait(waitCtx(t))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, task.State())
	assert.Equal(t, "baseline failed", task.Snapshot().Error)
}

func TestManager_CancelRunning(t *testing.T) {
	m, err := NewManager(1, 8)
	require.NoError(t, err)

	started := make(chan struct{})
	task := m.Start("view-1", func(ctx context.Context, _ func(pipeline.Progress)) (*pipeline.Result, error) {
		close(started)
		<-ctx.Done()
		return &pipeline.Result{Accepted: 2}, ctx.Err()
	})

	<-started
	assert.Equal(t, StateRunning, task.State())
	assert.True(t, m.Cancel(task.ID))

	res, err := task.Wait(waitCtx(t))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res, "partial result survives cancellation")
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, StateCancelled, task.State())

	assert.False(t, m.Cancel(task.ID), "finished tasks cannot be cancelled")
	assert.False(t, m.Cancel("missing"))
}

func TestManager_QueuesBeyondLimit(t *testing.T) {
	m, err := NewManager(1, 8)
	require.NoError(t, err)

	release := make(chan struct{})
	first := m.Start("a", func(ctx context.Context, _ func(pipeline.Progress)) (*pipeline.Result, error) {
		<-release
		return &pipeline.Result{}, nil
	})
	second := m.Start("b", func(ctx context.Context, _ func(pipeline.Progress)) (*pipeline.Result, error) {
		return &pipeline.Result{}, nil
	})

	require.Eventually(t, func() bool { return first.State() == StateRunning }, time.Second, time.Millisecond)
	assert.Equal(t, StateQueued, second.State())
	assert.Equal(t, 2, m.Active())

	close(release)
	_, err = second.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, second.State())
}

func TestManager_CancelQueued(t *testing.T) {
	m, err := NewManager(1, 8)
	require.NoError(t, err)

	release := make(chan struct{})
	defer close(release)
	first := m.Start("a", func(ctx context.Context, _ func(pipeline.Progress)) (*pipeline.Result, error) {
		<-release
		return nil, nil
	})
	require.Eventually(t, func() bool { return first.State() == StateRunning }, time.Second, time.Millisecond)

	ran := false
	queued := m.Start("b", func(context.Context, func(pipeline.Progress)) (*pipeline.Result, error) {
		ran = true
		return nil, nil
	})
	queued.Cancel()

	_, err = queued.Wait(waitCtx(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, queued.State())
	assert.False(t, ran)
}

func TestManager_RunTimeout(t *testing.T) {
	m, err := NewManager(1, 8, WithRunTimeout(20*time.Millisecond))
	require.NoError(t, err)

	task := m.Start("slow", func(ctx context.Context, _ func(pipeline.Progress)) (*pipeline.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err = task.Wait(waitCtx(t))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, task.State())
}

func TestManager_HistoryEviction(t *testing.T) {
	m, err := NewManager(1, 1)
	require.NoError(t, err)

	noop := func(context.Context, func(pipeline.Progress)) (*pipeline.Result, error) { return nil, nil }
	a := m.Start("a", noop)
	_, _ = a.Wait(waitCtx(t))
	b := m.Start("b", noop)
	_, _ = b.Wait(waitCtx(t))

	_, ok := m.Get(a.ID)
	assert.False(t, ok)
	_, ok = m.Get(b.ID)
	assert.True(t, ok)
}

func TestManager_WaitContext(t *testing.T) {
	m, err := NewManager(1, 8)
	require.NoError(t, err)

	task := m.Start("a", func(ctx context.Context, _ func(pipeline.Progress)) (*pipeline.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	defer task.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = task.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, task.State().Finished())
}

func TestManager_Shutdown(t *testing.T) {
	m, err := NewManager(2, 8)
	require.NoError(t, err)

	block := func(ctx context.Context, _ func(pipeline.Progress)) (*pipeline.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	a := m.Start("a", block)
	b := m.Start("b", block)

	require.NoError(t, m.Shutdown(waitCtx(t)))
	assert.Equal(t, StateCancelled, a.State())
	assert.Equal(t, StateCancelled, b.State())
}

func TestNewManager_Invalid(t *testing.T) {
	_, err := NewManager(0, 8)
	assert.Error(t, err)
	_, err = NewManager(1, 0)
	assert.Error(t, err)
}

func TestIDFromContext(t *testing.T) {
	m, err := NewManager(1, 8)
	require.NoError(t, err)

	var got string
	task := m.Start("a", func(ctx context.Context, _ func(pipeline.Progress)) (*pipeline.Result, error) {
		got, _ = IDFromContext(ctx)
		return nil, nil
	})
	_, err = task.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, task.ID, got)

	_, ok := IDFromContext(context.Background())
	assert.False(t, ok)
}
