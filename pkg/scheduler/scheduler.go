package scheduler

import (
	"context"
	"sync"
	"time"
)

// Job is one unit of scheduled work.
type Job interface{ Run(ctx context.Context) }

// FuncJob adapts a function to Job.
type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// task pairs a context with its cancel so a finished one-shot can prove the
// map entry under its name is still its own before releasing it.
type task struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Scheduler runs named, individually cancellable periodic and one-shot tasks.
// Starting a task under a name that is already running replaces the old task.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	tasks map[string]*task
}

// New creates an empty scheduler.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel, tasks: make(map[string]*task)}
}

// Stop cancels every task and the scheduler itself.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for name, t := range s.tasks {
		t.cancel()
		delete(s.tasks, name)
	}
	s.mu.Unlock()
	s.cancel()
}

// Every runs job on a fixed interval under the given name until cancelled.
func (s *Scheduler) Every(name string, d time.Duration, job Job) {
	t := s.register(name)
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-t.ctx.Done():
				return
			case <-ticker.C:
				job.Run(t.ctx)
			}
		}
	}()
}

// OnceAfter runs job once after d under the given name, unless cancelled
// first. The name is released when the job fires. A timer that loses its map
// entry to a replacement between expiring and releasing does not run.
func (s *Scheduler) OnceAfter(name string, d time.Duration, job Job) {
	t := s.register(name)
	go func() {
		select {
		case <-t.ctx.Done():
			return
		case <-time.After(d):
			if !s.release(name, t) {
				return
			}
			job.Run(s.ctx)
		}
	}()
}

// Cancel stops the named task. Unknown names are a no-op.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		t.cancel()
		delete(s.tasks, name)
	}
}

// Running reports whether a task with the name is currently scheduled.
func (s *Scheduler) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

func (s *Scheduler) register(name string) *task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	t := &task{ctx: ctx, cancel: cancel}
	s.tasks[name] = t
	return t
}

// release removes the name only when the stored task is the caller's own.
// Returns false when the entry was cancelled or replaced in the meantime.
func (s *Scheduler) release(name string, t *task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks[name] != t {
		return false
	}
	t.cancel()
	delete(s.tasks, name)
	return true
}
