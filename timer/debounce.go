package timer

import (
	"sync"
	"time"
)

// Debouncer runs only the last of a burst of triggers, once delay has passed
// without another trigger.
//
// Every trigger gets a fresh ID. A job whose timer already fired and was
// queued before a newer trigger or Cancel is dropped when it reaches the
// loop, so cancellation holds even for work that is already in flight.
type Debouncer struct {
	sched Scheduler
	delay time.Duration

	mu      sync.Mutex
	nextID  uint64
	current uint64 // ID allowed to run; 0 = nothing pending
	cancel  func() // stops the pending timer
	stopped bool
}

// NewDebouncer creates a Debouncer on the given scheduler.
func NewDebouncer(s Scheduler, delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{sched: s, delay: delay}
}

// Trigger replaces any pending job with job and restarts the quiet period.
func (d *Debouncer) Trigger(job func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.cancelLocked()

	d.nextID++
	id := d.nextID
	d.current = id
	d.cancel = d.sched.Schedule(d.delay, func() {
		d.fire(id, job)
	})
}

func (d *Debouncer) fire(id uint64, job func()) {
	d.mu.Lock()
	if d.stopped || d.current != id {
		d.mu.Unlock()
		return // Superseded or cancelled after the timer fired
	}
	d.current = 0
	d.cancel = nil
	d.mu.Unlock()

	job()
}

// Cancel drops the pending job, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer) cancelLocked() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.current = 0
}

// Stop cancels the pending job and ignores all later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// Pending reports whether a job is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != 0
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

// SetDelay changes the quiet period for subsequent triggers.
func (d *Debouncer) SetDelay(delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	d.mu.Lock()
	d.delay = delay
	d.mu.Unlock()
}

// Debounce wraps fn so that a burst of calls delivers only the last argument.
// The returned cancel drops a pending call and disables the trigger.
func Debounce[T any](s Scheduler, delay time.Duration, fn func(T)) (trigger func(T), cancel func()) {
	d := NewDebouncer(s, delay)
	trigger = func(arg T) {
		d.Trigger(func() { fn(arg) })
	}
	return trigger, d.Stop
}
