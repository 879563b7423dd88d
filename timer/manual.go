package timer

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by explicit calls to Advance. Jobs run on the
// goroutine that calls Advance, in due-time order. It is meant for tests
// that must not depend on wall-clock timing.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	queued []*manualJob
}

type manualJob struct {
	due       time.Duration
	seq       int
	job       func()
	cancelled bool
}

// NewManual creates a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Schedule implements Scheduler.
func (m *Manual) Schedule(d time.Duration, job func()) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	j := &manualJob{due: m.now + d, seq: m.seq, job: job}
	m.queued = append(m.queued, j)
	return func() {
		m.mu.Lock()
		j.cancelled = true
		m.mu.Unlock()
	}
}

// Advance moves time forward by d and runs every job that became due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		j := m.popDue(target)
		if j == nil {
			break
		}
		j.job()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// Flush runs every queued job regardless of its due time.
func (m *Manual) Flush() {
	m.mu.Lock()
	var latest time.Duration
	for _, j := range m.queued {
		if j.due > latest {
			latest = j.due
		}
	}
	d := latest - m.now
	m.mu.Unlock()
	m.Advance(d)
}

// Pending returns the number of live jobs.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.queued {
		if !j.cancelled {
			n++
		}
	}
	return n
}

func (m *Manual) popDue(target time.Duration) *manualJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.queued[:0]
	for _, j := range m.queued {
		if !j.cancelled {
			live = append(live, j)
		}
	}
	m.queued = live

	sort.SliceStable(m.queued, func(i, k int) bool {
		if m.queued[i].due != m.queued[k].due {
			return m.queued[i].due < m.queued[k].due
		}
		return m.queued[i].seq < m.queued[k].seq
	})
	if len(m.queued) == 0 || m.queued[0].due > target {
		return nil
	}
	j := m.queued[0]
	m.queued = m.queued[1:]
	m.now = j.due
	return j
}
