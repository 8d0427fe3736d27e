// Package jobs tracks background processes until they're reclaimed.
package jobs

import (
	"errors"
	"sync"
)

// ErrTableFull is returned by Register when no more jobs can be tracked.
var ErrTableFull = errors.New("job table full")

// Job is a background process owned by the table.
type Job struct {
	// Pid is the operating system process ID.
	Pid int
	// Seq is the order the job was registered in, starting at 1.
	Seq int
	// Args holds the command line the job was started with.
	Args []string
}

// Waiter checks whether a process has terminated without blocking.
type Waiter interface {
	// Exited returns true if the process is gone. A non-nil error means the
	// process can't be waited on anymore.
	Exited(pid int) (bool, error)
}

// WaiterFunc adapts a function to the Waiter interface.
type WaiterFunc func(pid int) (bool, error)

// Exited implements Waiter.
func (f WaiterFunc) Exited(pid int) (bool, error) {
	return f(pid)
}

var _ Waiter = (WaiterFunc)(nil)

// Table is a bounded registry of background jobs.
type Table struct {
	capacity int
	waiter   Waiter

	mu      sync.Mutex
	lastSeq int
	jobs    []Job
}

// New creates a table that holds at most capacity jobs.
func New(capacity int, waiter Waiter) *Table {
	return &Table{
		capacity: capacity,
		waiter:   waiter,
	}
}

// Capacity returns the maximum number of tracked jobs.
func (t *Table) Capacity() int {
	return t.capacity
}

// Len returns the number of tracked jobs.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.jobs)
}

// List returns a snapshot of the tracked jobs in registration order.
func (t *Table) List() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// Register starts tracking pid. Finished jobs are reclaimed first to make
// room; if the table is still full ErrTableFull is returned along with the
// reclaimed jobs.
func (t *Table) Register(pid int, args []string) (Job, []Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	reaped := t.reapLocked()
	if len(t.jobs) >= t.capacity {
		return Job{}, reaped, ErrTableFull
	}

	t.lastSeq++
	job := Job{
		Pid:  pid,
		Seq:  t.lastSeq,
		Args: append([]string(nil), args...),
	}
	t.jobs = append(t.jobs, job)
	return job, reaped, nil
}

// Reap removes and returns all jobs whose process has terminated.
func (t *Table) Reap() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.reapLocked()
}

func (t *Table) reapLocked() []Job {
	var reaped []Job
	remaining := t.jobs[:0]
	for _, job := range t.jobs {
		exited, err := t.waiter.Exited(job.Pid)
		if exited || err != nil {
			reaped = append(reaped, job)
			continue
		}
		remaining = append(remaining, job)
	}

	// Clear the tail so removed jobs can be collected.
	for i := len(remaining); i < len(t.jobs); i++ {
		t.jobs[i] = Job{}
	}
	t.jobs = remaining
	return reaped
}
