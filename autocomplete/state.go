package autocomplete

import (
	"github.com/drake/pick/candidate"
	"github.com/drake/pick/selection"
)

// Snapshot is the complete render state at one point in time.
type Snapshot struct {
	Query    string
	Phase    Phase
	Options  []candidate.Candidate
	Active   int
	Loading  bool
	Value    selection.Value
	Err      error
	Disabled bool
}

// Open reports whether the candidate list is shown.
func (s Snapshot) Open() bool { return s.Phase != Closed }

// Snapshot copies the current render state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Query:    c.query,
		Phase:    c.Phase(),
		Options:  c.FilteredOptions(),
		Active:   c.active,
		Loading:  c.Loading(),
		Value:    c.value,
		Err:      c.err,
		Disabled: c.disabled,
	}
}

// InputValue returns the current query.
func (c *Controller) InputValue() string { return c.query }

// IsOpen reports whether the candidate list is shown.
func (c *Controller) IsOpen() bool { return c.open }

// FilteredOptions returns a copy of the displayed candidates.
func (c *Controller) FilteredOptions() []candidate.Candidate { return clone(c.list) }

// ActiveIndex returns the highlighted index or navigation.None.
func (c *Controller) ActiveIndex() int { return c.active }

// Active returns the highlighted candidate.
func (c *Controller) Active() (candidate.Candidate, bool) {
	if !c.open || c.active < 0 || c.active >= len(c.list) {
		return candidate.Candidate{}, false
	}
	return c.list[c.active], true
}

// Loading reports whether a filter request is outstanding or the caller
// forced the indicator on.
func (c *Controller) Loading() bool { return c.loading || c.extLoading }

// Phase returns the coarse widget state.
func (c *Controller) Phase() Phase {
	switch {
	case !c.open:
		return Closed
	case c.loading:
		return OpenFiltering
	case c.ready:
		return OpenReady
	}
	return OpenIdle
}

// Value returns the current selection.
func (c *Controller) Value() selection.Value { return c.value }

// IsSelected reports whether cand is part of the current selection.
func (c *Controller) IsSelected(cand candidate.Candidate) bool {
	return selection.IsSelected(c.value, cand)
}

// Render formats cand with the configured Renderer.
func (c *Controller) Render(cand candidate.Candidate) string {
	return c.render(cand, c.Multiple(), c.IsSelected(cand))
}

// Err returns the error of the most recent filter result, if it failed.
func (c *Controller) Err() error { return c.err }

func (c *Controller) Label() string       { return c.label }
func (c *Controller) Description() string { return c.description }
func (c *Controller) Placeholder() string { return c.placeholder }
func (c *Controller) Disabled() bool      { return c.disabled }
func (c *Controller) Multiple() bool      { return c.model.Mode == selection.Multiple }
