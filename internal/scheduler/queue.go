// Package scheduler provides a single-threaded cooperative job queue driven
// by virtual time. Jobs run one at a time in due order; jobs with the same
// due time run in submission order. Submitted jobs are never cancelled.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of work run by the queue.
type Job func(ctx context.Context)

type entry struct {
	name string
	due  time.Time
	seq  uint64
	job  Job
}

type jobHeap []*entry

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if !h[i].due.Equal(h[j].due) {
		return h[i].due.Before(h[j].due)
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue holds pending jobs and the virtual clock. It is safe for concurrent
// submitters; execution is serialised.
type Queue struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	jobs   jobHeap
	runMu  sync.Mutex
	logger *slog.Logger
	ran    uint64
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger routes job lifecycle logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// New returns an empty queue whose virtual clock starts at start.
func New(start time.Time, opts ...Option) *Queue {
	q := &Queue{now: start, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Now reports the virtual time.
func (q *Queue) Now() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.now
}

// Pending reports the number of jobs not yet run.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Executed reports how many jobs have run.
func (q *Queue) Executed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ran
}

// Submit schedules job at the current virtual time.
func (q *Queue) Submit(name string, job Job) {
	q.SubmitAfter(name, 0, job)
}

// SubmitAfter schedules job delay after the current virtual time. Negative
// delays count as zero.
func (q *Queue) SubmitAfter(name string, delay time.Duration, job Job) {
	if job == nil {
		return
	}
	if delay < 0 {
		delay = 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	heap.Push(&q.jobs, &entry{name: name, due: q.now.Add(delay), seq: q.seq, job: job})
}

// RunDue runs every job due at or before the current virtual time, including
// jobs those jobs submit for immediate execution. It returns the count run.
func (q *Queue) RunDue(ctx context.Context) int {
	return q.AdvanceTo(ctx, q.Now())
}

// Advance moves virtual time forward by d, running jobs as their due time is
// reached.
func (q *Queue) Advance(ctx context.Context, d time.Duration) int {
	if d < 0 {
		d = 0
	}
	return q.AdvanceTo(ctx, q.Now().Add(d))
}

// AdvanceTo moves virtual time to target, running due jobs in order. While a
// job runs, Now reports that job's due time so follow-up submissions are
// scheduled relative to it. Time never moves backwards.
func (q *Queue) AdvanceTo(ctx context.Context, target time.Time) int {
	q.runMu.Lock()
	defer q.runMu.Unlock()

	ran := 0
	for {
		next, ok := q.popDue(target)
		if !ok {
			break
		}
		q.execute(ctx, next)
		ran++
	}

	q.mu.Lock()
	if target.After(q.now) {
		q.now = target
	}
	q.mu.Unlock()
	return ran
}

func (q *Queue) popDue(target time.Time) (*entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 || q.jobs[0].due.After(target) {
		return nil, false
	}
	next := heap.Pop(&q.jobs).(*entry)
	if next.due.After(q.now) {
		q.now = next.due
	}
	return next, true
}

func (q *Queue) execute(ctx context.Context, e *entry) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("scheduled job panicked", "job", e.name, "seq", e.seq, "panic", fmt.Sprint(r))
		}
		q.mu.Lock()
		q.ran++
		q.mu.Unlock()
	}()
	q.logger.Debug("running scheduled job", "job", e.name, "seq", e.seq, "due", e.due)
	e.job(ctx)
}
