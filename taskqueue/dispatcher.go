// Package taskqueue runs pipeline work on a bounded pool of workers so
// request goroutines only wait for results.
package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"vidstego/logger"
)

// JobState represents the current state of a job
type JobState int

const (
	JobStatePending JobState = iota
	JobStateProcessing
	JobStateCompleted
	JobStateFailed
)

func (s JobState) String() string {
	switch s {
	case JobStatePending:
		return "pending"
	case JobStateProcessing:
		return "processing"
	case JobStateCompleted:
		return "completed"
	case JobStateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("dispatcher closed")

type task struct {
	ctx   context.Context
	id    string
	fn    func() error
	taken chan struct{} // closed when a worker picks the task up
	done  chan error
}

// Dispatcher feeds submitted tasks to a fixed number of workers.
type Dispatcher struct {
	tasks chan *task
	wg    sync.WaitGroup

	mu     sync.RWMutex
	states map[string]JobState

	closeMu sync.RWMutex // held for reading while sending on tasks
	closed  bool
}

// NewDispatcher starts workers goroutines (at least one).
func NewDispatcher(workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		tasks:  make(chan *task),
		states: make(map[string]JobState),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Infof("Dispatcher started with %d workers", workers)
	return d
}

func (d *Dispatcher) worker(n int) {
	defer d.wg.Done()
	for t := range d.tasks {
		// the submitter may have given up while we were busy
		if t.ctx.Err() != nil {
			t.done <- t.ctx.Err()
			continue
		}
		close(t.taken)
		d.setState(t.id, JobStateProcessing)
		logger.Debugf("worker %d running job %s", n, t.id)

		err := d.run(t)
		if err != nil {
			d.setState(t.id, JobStateFailed)
		} else {
			d.setState(t.id, JobStateCompleted)
		}
		t.done <- err
	}
}

func (d *Dispatcher) run(t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("job %s panicked: %v", t.id, r)
			err = fmt.Errorf("job %s panicked: %v", t.id, r)
		}
	}()
	return t.fn()
}

// Submit queues fn under id and blocks until it has run, returning its
// error. If ctx ends before a worker takes the task, fn never runs and
// ctx.Err() is returned. Once running, fn always completes.
func (d *Dispatcher) Submit(ctx context.Context, id string, fn func() error) error {
	d.closeMu.RLock()
	if d.closed {
		d.closeMu.RUnlock()
		return ErrClosed
	}

	t := &task{
		ctx:   ctx,
		id:    id,
		fn:    fn,
		taken: make(chan struct{}),
		done:  make(chan error, 1),
	}
	d.setState(id, JobStatePending)

	select {
	case d.tasks <- t:
		d.closeMu.RUnlock()
	case <-ctx.Done():
		d.closeMu.RUnlock()
		d.setState(id, JobStateFailed)
		return ctx.Err()
	}

	select {
	case <-t.taken:
		return <-t.done
	case err := <-t.done:
		// dropped by the worker because ctx expired first
		d.setState(id, JobStateFailed)
		return err
	}
}

// State returns the state of a submitted job.
func (d *Dispatcher) State(id string) (JobState, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.states[id]
	return s, ok
}

// Forget drops the state of a finished job.
func (d *Dispatcher) Forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.states, id)
}

func (d *Dispatcher) setState(id string, s JobState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[id] = s
}

// Close stops accepting work and waits for running tasks to finish.
func (d *Dispatcher) Close() {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return
	}
	d.closed = true
	d.closeMu.Unlock()

	close(d.tasks)
	d.wg.Wait()
	logger.Info("Dispatcher stopped")
}
