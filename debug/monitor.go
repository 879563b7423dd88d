// Package debug provides runtime monitoring and diagnostics.
package debug

import (
	"context"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drake/pick/autocomplete"
	"github.com/drake/pick/internal/loop"
)

// Enabled returns true if debug mode is active (PICK_DEBUG=1).
func Enabled() bool {
	return os.Getenv("PICK_DEBUG") == "1"
}

// Stats is one sample of picker state.
type Stats struct {
	Phase      autocomplete.Phase
	Query      string
	Filtered   int
	Active     int
	Selected   int
	Loading    bool
	QueueLen   int
	Goroutines int
}

// Monitor periodically logs controller statistics. Samples are taken on the
// controller's loop, so the Controller is never touched concurrently.
type Monitor struct {
	ctrl     *autocomplete.Controller
	loop     *loop.Loop
	interval time.Duration
	ctx      context.Context
	logger   *log.Logger
}

// NewMonitor creates a monitor for ctrl. If debug mode is not enabled,
// returns nil.
func NewMonitor(ctx context.Context, ctrl *autocomplete.Controller, l *loop.Loop, logger *log.Logger) *Monitor {
	if !Enabled() {
		return nil
	}
	return newMonitor(ctx, ctrl, l, logger, 5*time.Second)
}

func newMonitor(ctx context.Context, ctrl *autocomplete.Controller, l *loop.Loop, logger *log.Logger, interval time.Duration) *Monitor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Monitor{
		ctrl:     ctrl,
		loop:     l,
		interval: interval,
		ctx:      ctx,
		logger:   logger.WithPrefix("debug"),
	}
}

// Start begins the monitoring loop in a goroutine.
func (m *Monitor) Start() {
	if m == nil {
		return
	}
	go m.run()
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Debug("monitor started")

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Debug("monitor stopped")
			return
		case <-ticker.C:
			m.loop.Post(func() { m.logStats(m.Sample()) })
		}
	}
}

// Sample reads the current statistics. Call it on the controller's loop.
func (m *Monitor) Sample() Stats {
	snap := m.ctrl.Snapshot()
	return Stats{
		Phase:      snap.Phase,
		Query:      snap.Query,
		Filtered:   len(snap.Options),
		Active:     snap.Active,
		Selected:   snap.Value.Len(),
		Loading:    snap.Loading,
		QueueLen:   m.loop.Len(),
		Goroutines: runtime.NumGoroutine(),
	}
}

func (m *Monitor) logStats(s Stats) {
	m.logger.Info("stats",
		"phase", s.Phase,
		"query", s.Query,
		"filtered", s.Filtered,
		"active", s.Active,
		"selected", s.Selected,
		"loading", s.Loading,
		"queue", s.QueueLen,
		"goroutines", s.Goroutines,
	)
}
