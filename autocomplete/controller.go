// Package autocomplete implements the state machine behind an incremental
// filter-and-select input.
//
// A Controller owns the query, the filtered candidate list, the active
// index, the open/loading flags and the selection value. Callers feed it
// events (Focus, Input, Next, Confirm, Blur, ...) and read back the render
// state. Every method must be called from the owner's event loop; timer
// firings and async filter results are posted back onto that loop through
// the Dispatcher given to New.
package autocomplete

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/drake/pick/candidate"
	"github.com/drake/pick/filter"
	"github.com/drake/pick/navigation"
	"github.com/drake/pick/selection"
	"github.com/drake/pick/timer"
)

// Phase is the coarse state of the widget.
type Phase int

const (
	Closed        Phase = iota
	OpenIdle            // open, showing the full universe
	OpenFiltering       // a filter request is pending
	OpenReady           // showing the most recent filter result
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case OpenIdle:
		return "idle"
	case OpenFiltering:
		return "filtering"
	case OpenReady:
		return "ready"
	}
	return "unknown"
}

// Controller is the autocomplete state machine. It is not safe for
// concurrent use.
type Controller struct {
	label       string
	description string
	placeholder string
	keepQuery   bool
	async       bool

	model    selection.Model
	filter   filter.Filterer
	render   Renderer
	logger   *log.Logger
	dispatch timer.Dispatcher
	sched    timer.Scheduler
	debounce *timer.Debouncer

	onChange      func(selection.Value)
	onInputChange func(string)
	onError       func(string, error)

	ctx      context.Context
	stop     context.CancelFunc
	inFlight context.CancelFunc

	options    []candidate.Candidate
	list       []candidate.Candidate
	query      string
	value      selection.Value
	active     int
	seq        uint64
	open       bool
	ready      bool
	loading    bool
	extLoading bool
	disabled   bool
	closed     bool
	err        error
}

// New validates cfg and creates a Controller. dispatch posts closures onto
// the caller's event loop; it may be nil only when a scheduler is supplied
// with WithScheduler and Async is off.
func New(cfg Config, dispatch timer.Dispatcher, opts ...Option) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	model := selection.NewModel(selection.ModeOf(cfg.Multiple))
	value, err := model.Initial(cfg.Value)
	if err != nil {
		return nil, &ConfigError{Field: "Value", Err: err}
	}

	c := &Controller{
		label:         cfg.Label,
		description:   cfg.Description,
		placeholder:   cfg.Placeholder,
		keepQuery:     cfg.KeepQuery,
		async:         cfg.Async,
		model:         model,
		filter:        cfg.Filter,
		render:        cfg.Render,
		logger:        cfg.Logger,
		dispatch:      dispatch,
		onChange:      cfg.OnChange,
		onInputChange: cfg.OnInputChange,
		onError:       cfg.OnError,
		options:       clone(cfg.Options),
		value:         value,
		active:        navigation.None,
		extLoading:    cfg.Loading,
		disabled:      cfg.Disabled,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.placeholder == "" {
		c.placeholder = DefaultPlaceholder
	}
	if c.filter == nil {
		c.filter = filter.Substring
	}
	if c.render == nil {
		c.render = DefaultRenderer
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.dispatch == nil && (c.async || c.sched == nil) {
		return nil, &ConfigError{Field: "dispatch", Err: ErrMissingDispatcher}
	}
	if c.sched == nil {
		c.sched = timer.NewScheduler(c.dispatch)
	}

	c.ctx, c.stop = context.WithCancel(context.Background())
	c.debounce = timer.NewDebouncer(c.sched, cfg.Debounce)
	c.list = clone(c.options)
	return c, nil
}

// Focus opens the widget. With an empty query it shows the full universe
// with nothing active; otherwise the list is recomputed for the query right
// away, so it never disagrees with the text box.
func (c *Controller) Focus() {
	if c.closed || c.disabled || c.open {
		return
	}
	c.open = true
	c.ready = false
	c.active = navigation.None
	if c.query != "" {
		c.logger.Debug("focus", "query", c.query)
		c.request(false)
		return
	}
	c.list = clone(c.options)
	c.logger.Debug("focus", "options", len(c.list))
}

// Input records a new query and schedules a debounced filter request. It
// opens a closed widget.
func (c *Controller) Input(text string) {
	if c.closed || c.disabled {
		return
	}
	c.setQuery(text)
	c.open = true
	c.request(true)
}

// Next highlights the following candidate, wrapping at the end.
func (c *Controller) Next() {
	c.move(navigation.Next)
}

// Previous highlights the preceding candidate, wrapping at the start.
func (c *Controller) Previous() {
	c.move(navigation.Previous)
}

func (c *Controller) move(dir navigation.Direction) {
	if c.closed || !c.open {
		return
	}
	c.active = navigation.Advance(c.active, dir, len(c.list))
}

// Confirm selects the active candidate. It reports false when nothing is
// active.
func (c *Controller) Confirm() bool {
	cand, ok := c.Active()
	if !ok || c.disabled {
		return false
	}
	c.Select(cand)
	return true
}

// Select confirms cand as if it had been clicked.
func (c *Controller) Select(cand candidate.Candidate) {
	if c.closed || c.disabled {
		return
	}

	next := c.model.Apply(c.value, cand)
	c.value = next
	c.logger.Debug("select", "candidate", cand.Label(), "mode", c.model.Mode, "count", next.Len())
	c.onChange(next)

	if c.model.Mode == selection.Multiple {
		if c.keepQuery || c.query == "" {
			if c.open && !c.loading {
				c.ready = true
			}
			return
		}
		c.setQuery("")
		if c.open {
			c.request(true)
		}
		return
	}

	text, _ := cand.Text()
	if text != c.query {
		c.setQuery(text)
	}
	c.dismiss()
}

// Blur closes the widget and drops any pending or in-flight request.
func (c *Controller) Blur() {
	if c.closed {
		return
	}
	c.dismiss()
}

// SetOptions replaces the candidate universe. An open widget is refiltered
// against the current query without waiting for the debounce.
func (c *Controller) SetOptions(options []candidate.Candidate) {
	if c.closed {
		return
	}
	c.options = clone(options)
	if !c.open {
		// Focus recomputes the list for a non-empty query.
		if c.query == "" {
			c.list = clone(c.options)
		}
		c.active = navigation.None
		return
	}
	if c.query == "" && !c.ready && !c.loading {
		// Idle with nothing typed: the universe is the list.
		c.list = clone(c.options)
		c.active = navigation.Clamp(c.active, len(c.list))
		return
	}
	c.request(false)
}

// SetFilter replaces the filter function. An open widget re-requests the
// current query through the usual debounce.
func (c *Controller) SetFilter(f filter.Filterer) {
	if c.closed {
		return
	}
	if f == nil {
		f = filter.Substring
	}
	c.filter = f
	if c.open {
		c.request(true)
	}
}

// SetValue pushes the caller's value. It must match the selection mode.
func (c *Controller) SetValue(v selection.Value) error {
	if err := c.model.Validate(v); err != nil {
		return err
	}
	c.value = v
	return nil
}

// SetLoading forces the loading indicator on or releases the override.
func (c *Controller) SetLoading(b bool) {
	c.extLoading = b
}

// SetDisabled enables or disables the widget. Disabling also closes it.
func (c *Controller) SetDisabled(b bool) {
	c.disabled = b
	if b && !c.closed {
		c.dismiss()
	}
}

// Close tears the Controller down. Pending work is dropped and every later
// event is ignored.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.dismiss()
	c.closed = true
	c.debounce.Stop()
	c.stop()
}

func (c *Controller) setQuery(text string) {
	if c.onInputChange != nil {
		c.onInputChange(text)
	}
	c.query = text
}

func (c *Controller) dismiss() {
	c.debounce.Cancel()
	c.cancelInFlight()
	c.seq++
	c.open = false
	c.ready = false
	c.loading = false
}

func (c *Controller) cancelInFlight() {
	if c.inFlight != nil {
		c.inFlight()
		c.inFlight = nil
	}
}

// request issues a filter call for the current query with a fresh sequence
// number. Only the result of the newest request is ever applied.
func (c *Controller) request(debounced bool) {
	c.seq++
	seq := c.seq
	query := c.query
	c.loading = true
	c.cancelInFlight()

	c.logger.Debug("filter requested", "seq", seq, "query", query, "debounced", debounced)
	if debounced {
		c.debounce.Trigger(func() { c.run(seq, query) })
		return
	}
	c.debounce.Cancel()
	c.run(seq, query)
}

func (c *Controller) run(seq uint64, query string) {
	if c.closed || seq != c.seq {
		c.logger.Debug("filter request superseded", "seq", seq, "current", c.seq)
		return
	}

	options := clone(c.options)
	f := c.filter

	if !c.async {
		list, err := call(c.ctx, f, options, query)
		c.apply(seq, query, list, err)
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.inFlight = cancel
	go func() {
		list, err := call(ctx, f, options, query)
		c.dispatch(func() {
			cancel()
			c.apply(seq, query, list, err)
		})
	}()
}

func (c *Controller) apply(seq uint64, query string, list []candidate.Candidate, err error) {
	if c.closed || seq != c.seq {
		c.logger.Debug("stale filter result dropped", "seq", seq, "current", c.seq)
		return
	}
	c.inFlight = nil
	c.loading = false
	c.ready = true

	if err != nil {
		c.err = err
		c.logger.Warn("filter failed", "query", query, "err", err)
		if c.onError != nil {
			c.onError(query, err)
		}
		return
	}

	c.err = nil
	c.list = list
	c.active = navigation.Reconcile(len(list))
	c.logger.Debug("filter applied", "seq", seq, "query", query, "results", len(list))
}

func call(ctx context.Context, f filter.Filterer, options []candidate.Candidate, query string) (list []candidate.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			list = nil
			err = &FilterError{Query: query, Err: fmt.Errorf("%v", r), Panic: true}
		}
	}()
	list, err = f(ctx, options, query)
	if err != nil {
		return nil, &FilterError{Query: query, Err: err}
	}
	return list, nil
}

func clone(list []candidate.Candidate) []candidate.Candidate {
	out := make([]candidate.Candidate, len(list))
	copy(out, list)
	return out
}
