package sched

import (
	"context"
	"sync"

	"crm-call-insights/internal/domain"
)

// Task is an opaque asynchronous unit of work. Timeouts are the task's own
// responsibility; the scheduler imposes none.
type Task func(ctx context.Context) (interface{}, error)

// Future resolves exactly once with the task's result or error.
type Future struct {
	done chan struct{}
	val  interface{}
	err  error
}

// Wait blocks until the task resolves or the caller's context is done. The
// task itself keeps running if the wait is abandoned.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type entry struct {
	ctx  context.Context
	task Task
	fut  *Future
}

// TaskScheduler admits submitted tasks in strict FIFO order and runs at most
// `limit` of them concurrently. One task's failure resolves only its own
// future; siblings are unaffected. The FIFO queue and the active counter are
// the only shared state, and every mutation happens under the one mutex —
// admission of the next task and release of a slot are a single step.
type TaskScheduler struct {
	mu     sync.Mutex
	limit  int
	active int
	queue  []*entry
	closed bool
}

func NewTaskScheduler(limit int) *TaskScheduler {
	if limit <= 0 {
		limit = 2
	}
	return &TaskScheduler{limit: limit}
}

// Submit enqueues a task and returns its future immediately. The task starts
// right away if a slot is free, otherwise when the tasks ahead of it finish.
func (s *TaskScheduler) Submit(ctx context.Context, task Task) *Future {
	fut := &Future{done: make(chan struct{})}
	e := &entry{ctx: ctx, task: task, fut: fut}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fut.err = domain.ErrSchedulerClosed
		close(fut.done)
		return fut
	}
	if s.active < s.limit {
		s.active++
		s.mu.Unlock()
		go s.run(e)
		return fut
	}
	s.queue = append(s.queue, e)
	s.mu.Unlock()
	return fut
}

// Close fails all queued (not yet started) tasks and rejects new submissions.
// Already running tasks finish normally.
func (s *TaskScheduler) Close() {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.closed = true
	s.mu.Unlock()

	for _, e := range pending {
		e.fut.err = domain.ErrSchedulerClosed
		close(e.fut.done)
	}
}

func (s *TaskScheduler) run(e *entry) {
	defer s.release()
	e.fut.val, e.fut.err = e.task(e.ctx)
	close(e.fut.done)
}

// release hands the freed slot straight to the head of the queue, or gives it
// back when nothing is waiting.
func (s *TaskScheduler) release() {
	s.mu.Lock()
	if len(s.queue) > 0 && !s.closed {
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		go s.run(next)
		return
	}
	s.active--
	s.mu.Unlock()
}
