// Package timer turns elapsed time into work posted on the owner's event loop.
package timer

import "time"

// Dispatcher posts a job onto the owner's event loop. It must not run the job
// synchronously and must be safe to call from any goroutine.
type Dispatcher func(job func())

// Scheduler runs jobs after a delay.
type Scheduler interface {
	// Schedule asks to run job after d. The returned function cancels it.
	Schedule(d time.Duration, job func()) (cancel func())
}

// LoopScheduler translates timers into jobs posted through a Dispatcher.
// The receiver is responsible for executing the job on its own goroutine.
type LoopScheduler struct {
	dispatch Dispatcher
}

// NewScheduler creates a Scheduler that posts fired jobs through dispatch.
func NewScheduler(dispatch Dispatcher) *LoopScheduler {
	return &LoopScheduler{dispatch: dispatch}
}

// Schedule implements Scheduler. A zero delay still goes through the timer
// goroutine, so the job never runs inside the caller's stack.
func (s *LoopScheduler) Schedule(d time.Duration, job func()) (cancel func()) {
	t := time.AfterFunc(d, func() {
		s.dispatch(job)
	})
	return func() { t.Stop() }
}
