package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRunsUntilCancelled(t *testing.T) {
	s := New()
	defer s.Stop()

	var runs atomic.Int64
	s.Every("tick", 10*time.Millisecond, FuncJob(func(context.Context) { runs.Add(1) }))

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Running("tick"))

	s.Cancel("tick")
	assert.False(t, s.Running("tick"))

	stopped := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, runs.Load(), stopped+1)
}

func TestOnceAfterFiresOnce(t *testing.T) {
	s := New()
	defer s.Stop()

	var runs atomic.Int64
	s.OnceAfter("timer", 20*time.Millisecond, FuncJob(func(context.Context) { runs.Add(1) }))
	assert.True(t, s.Running("timer"))

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	// The name is released once the job fired.
	assert.Eventually(t, func() bool { return !s.Running("timer") }, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, runs.Load())
}

func TestOnceAfterCancelledBeforeFiring(t *testing.T) {
	s := New()
	defer s.Stop()

	var runs atomic.Int64
	s.OnceAfter("timer", 50*time.Millisecond, FuncJob(func(context.Context) { runs.Add(1) }))
	s.Cancel("timer")

	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 0, runs.Load())
}

// Registering under an existing name must replace the previous task, the way
// a second question timer replaces the first.
func TestRegisterReplacesExistingTask(t *testing.T) {
	s := New()
	defer s.Stop()

	var old, replacement atomic.Int64
	s.OnceAfter("timer", 30*time.Millisecond, FuncJob(func(context.Context) { old.Add(1) }))
	s.OnceAfter("timer", 30*time.Millisecond, FuncJob(func(context.Context) { replacement.Add(1) }))

	require.Eventually(t, func() bool { return replacement.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 0, old.Load())
}

// An expired one-shot that was replaced before it could release its name must
// not cancel the replacement, and must not run.
func TestExpiredTimerCannotReleaseReplacement(t *testing.T) {
	s := New()
	defer s.Stop()

	var stale, replacement atomic.Int64
	s.OnceAfter("timer", time.Hour, FuncJob(func(context.Context) { stale.Add(1) }))

	s.mu.Lock()
	first := s.tasks["timer"]
	s.mu.Unlock()

	s.OnceAfter("timer", 30*time.Millisecond, FuncJob(func(context.Context) { replacement.Add(1) }))

	// The stale timer expiring now finds a foreign entry under its name.
	assert.False(t, s.release("timer", first))
	assert.True(t, s.Running("timer"))

	require.Eventually(t, func() bool { return replacement.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 0, stale.Load())
}

func TestStopCancelsEverything(t *testing.T) {
	s := New()

	var runs atomic.Int64
	s.Every("a", 10*time.Millisecond, FuncJob(func(context.Context) { runs.Add(1) }))
	s.Every("b", 10*time.Millisecond, FuncJob(func(context.Context) { runs.Add(1) }))

	s.Stop()
	assert.False(t, s.Running("a"))
	assert.False(t, s.Running("b"))

	stopped := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, runs.Load(), stopped+2)
}
