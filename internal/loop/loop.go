// Package loop provides the single logical thread that owns picker state.
//
// Producers on any goroutine (timers, async filters) Post closures; the owner
// runs them one at a time with Drain, Next or Run. Nothing posted is ever
// executed concurrently with anything else posted to the same Loop.
package loop

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultLimit is the queue length at which the oldest job is dropped.
const DefaultLimit = 50000

// Loop is an unbounded job queue with a single consumer.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	limit  int
	ready  chan struct{}
	logger *log.Logger
}

// New creates a Loop. A nil logger discards warnings.
func New(logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loop{
		queue:  make([]func(), 0, 64),
		limit:  DefaultLimit,
		ready:  make(chan struct{}, 1),
		logger: logger,
	}
}

// SetLimit changes the safety valve. Values below 1 are ignored.
func (l *Loop) SetLimit(n int) {
	if n < 1 {
		return
	}
	l.mu.Lock()
	l.limit = n
	l.mu.Unlock()
}

// Post enqueues job. It never blocks.
func (l *Loop) Post(job func()) {
	l.mu.Lock()
	// Safety valve: a dead consumer must not grow the queue forever.
	if len(l.queue) >= l.limit {
		l.logger.Warn("loop queue limit reached, dropping oldest job", "limit", l.limit)
		l.queue = l.queue[1:]
	}
	l.queue = append(l.queue, job)
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
}

// Ready returns a channel that receives after Post. A receive does not
// guarantee a job is still queued; call Drain.
func (l *Loop) Ready() <-chan struct{} {
	return l.ready
}

// Len returns the number of queued jobs.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	job := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return job, true
}

// Drain runs queued jobs, including any they post, until the queue is
// empty. It returns the number of jobs run.
func (l *Loop) Drain() int {
	n := 0
	for {
		job, ok := l.pop()
		if !ok {
			return n
		}
		job()
		n++
	}
}

// Next blocks until a job is available, runs it and returns true. It returns
// false if ctx ends first.
func (l *Loop) Next(ctx context.Context) bool {
	for {
		if job, ok := l.pop(); ok {
			job()
			return true
		}
		select {
		case <-l.ready:
		case <-ctx.Done():
			return false
		}
	}
}

// Run executes jobs until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for l.Next(ctx) {
	}
	return ctx.Err()
}
