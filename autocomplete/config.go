package autocomplete

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/drake/pick/candidate"
	"github.com/drake/pick/filter"
	"github.com/drake/pick/selection"
	"github.com/drake/pick/timer"
)

// DefaultPlaceholder is shown in an empty input.
const DefaultPlaceholder = "Search"

// Config describes one widget instance.
type Config struct {
	Label       string
	Description string
	Placeholder string

	// Multiple selects an ordered set instead of a single candidate. The
	// mode is fixed for the lifetime of the Controller.
	Multiple bool
	Disabled bool

	// Debounce is the quiet period between the last keystroke and the
	// filter call. Zero still defers the call to the next loop turn.
	Debounce time.Duration

	// Options is the candidate universe. It is copied.
	Options []candidate.Candidate

	Filter filter.Filterer // defaults to filter.Substring
	Render Renderer        // defaults to DefaultRenderer

	// Value is the caller's initial value. Nil means nothing selected.
	Value *selection.Value

	OnChange      func(selection.Value) // required
	OnInputChange func(string)
	OnError       func(query string, err error)

	// Loading forces the loading indicator on, independently of filtering.
	Loading bool

	// KeepQuery keeps the query after a confirm in Multiple mode.
	KeepQuery bool

	// Async runs the filter on its own goroutine. Results are posted back
	// through the Dispatcher.
	Async bool

	Logger *log.Logger
}

func (c Config) validate() error {
	if c.OnChange == nil {
		return &ConfigError{Field: "OnChange", Err: ErrMissingOnChange}
	}
	if c.Debounce < 0 {
		return &ConfigError{Field: "Debounce", Err: ErrNegativeDebounce}
	}
	return nil
}

// Option configures a Controller at construction.
type Option func(*Controller)

// WithScheduler replaces the timer-backed scheduler. Tests pass a
// timer.Manual to fire debounced requests deterministically.
func WithScheduler(s timer.Scheduler) Option {
	return func(c *Controller) {
		c.sched = s
	}
}
