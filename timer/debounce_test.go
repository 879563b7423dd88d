package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebounceCoalescesBurst(t *testing.T) {
	m := NewManual()
	var calls []string
	trigger, _ := Debounce(m, 50*time.Millisecond, func(q string) {
		calls = append(calls, q)
	})

	trigger("a")
	m.Advance(10 * time.Millisecond)
	trigger("ab")
	m.Advance(10 * time.Millisecond)
	trigger("abc")
	m.Advance(49 * time.Millisecond)
	assert.Empty(t, calls)

	m.Advance(time.Millisecond)
	assert.Equal(t, []string{"abc"}, calls)

	m.Advance(time.Second)
	assert.Equal(t, []string{"abc"}, calls, "no trailing executions")
}

func TestDebounceZeroDelayDefers(t *testing.T) {
	m := NewManual()
	d := NewDebouncer(m, 0)
	ran := false
	d.Trigger(func() { ran = true })

	assert.False(t, ran, "zero delay must not run synchronously")
	assert.True(t, d.Pending())

	m.Advance(0)
	assert.True(t, ran)
	assert.False(t, d.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	m := NewManual()
	d := NewDebouncer(m, 20*time.Millisecond)
	ran := 0
	d.Trigger(func() { ran++ })
	d.Cancel()
	m.Flush()
	assert.Zero(t, ran)

	d.Trigger(func() { ran++ })
	m.Flush()
	assert.Equal(t, 1, ran, "cancel does not disable the debouncer")
}

func TestDebouncerStopPreventsLaterTriggers(t *testing.T) {
	m := NewManual()
	trigger, cancel := Debounce(m, 5*time.Millisecond, func(int) {
		t.Fatal("job ran after stop")
	})
	trigger(1)
	cancel()
	trigger(2)
	m.Flush()
	assert.Zero(t, m.Pending())
}

// A timer that already fired and queued its job on the loop must still be
// dropped if a newer trigger arrived before the loop ran it.
func TestDebouncerDropsQueuedStaleJob(t *testing.T) {
	m := NewManual()
	d := NewDebouncer(m, 0)
	var got []int
	d.Trigger(func() { got = append(got, 1) })

	// Simulate the first timer firing into a queue that is not yet drained.
	stale := m.popDue(0)
	require.NotNil(t, stale)

	d.Trigger(func() { got = append(got, 2) })
	stale.job()
	m.Flush()

	assert.Equal(t, []int{2}, got)
}

func TestLoopSchedulerPostsThroughDispatcher(t *testing.T) {
	jobs := make(chan func(), 1)
	s := NewScheduler(func(job func()) { jobs <- job })

	ran := false
	s.Schedule(0, func() { ran = true })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	select {
	case job := <-jobs:
		assert.False(t, ran, "job must be posted, not run on the timer goroutine")
		job()
		assert.True(t, ran)
	case <-ctx.Done():
		t.Fatal("timer never fired")
	}
}

func TestLoopSchedulerCancel(t *testing.T) {
	jobs := make(chan func(), 1)
	s := NewScheduler(func(job func()) { jobs <- job })
	cancel := s.Schedule(50*time.Millisecond, func() {})
	cancel()

	select {
	case <-jobs:
		t.Fatal("cancelled timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}
