// Package selection applies single and multiple selection semantics to
// candidates.
package selection

import (
	"errors"
	"fmt"

	"github.com/drake/pick/candidate"
)

// ErrModeMismatch is returned when a value's shape does not match the
// configured mode.
var ErrModeMismatch = errors.New("selection value does not match mode")

// Mode decides whether a value holds at most one candidate or an ordered set.
type Mode int

const (
	Single Mode = iota
	Multiple
)

func (m Mode) String() string {
	if m == Multiple {
		return "multiple"
	}
	return "single"
}

// ModeOf maps a multiple flag to a Mode.
func ModeOf(multiple bool) Mode {
	if multiple {
		return Multiple
	}
	return Single
}

// Value is an immutable selection. In Single mode it holds zero or one
// candidate; in Multiple mode an insertion-ordered set.
type Value struct {
	mode  Mode
	items []candidate.Candidate
}

// None is the empty single-mode value.
func None() Value { return Value{mode: Single} }

// One is a single-mode value holding c.
func One(c candidate.Candidate) Value {
	return Value{mode: Single, items: []candidate.Candidate{c}}
}

// Empty is the empty multiple-mode value.
func Empty() Value { return Value{mode: Multiple} }

// Set is a multiple-mode value. Duplicates keep their first position.
func Set(cs ...candidate.Candidate) Value {
	v := Value{mode: Multiple}
	for _, c := range cs {
		if candidate.Index(v.items, c) < 0 {
			v.items = append(v.items, c)
		}
	}
	return v
}

// Mode returns the value's shape.
func (v Value) Mode() Mode { return v.mode }

// Single returns the selected candidate of a single-mode value.
func (v Value) Single() (candidate.Candidate, bool) {
	if v.mode != Single || len(v.items) == 0 {
		return candidate.Candidate{}, false
	}
	return v.items[0], true
}

// Items returns a copy of the selected candidates in order.
func (v Value) Items() []candidate.Candidate {
	out := make([]candidate.Candidate, len(v.items))
	copy(out, v.items)
	return out
}

// Len returns the number of selected candidates.
func (v Value) Len() int { return len(v.items) }

// IsEmpty reports whether nothing is selected.
func (v Value) IsEmpty() bool { return len(v.items) == 0 }

// Equal reports whether both values have the same mode and the same
// candidates in the same order.
func (v Value) Equal(o Value) bool {
	if v.mode != o.mode || len(v.items) != len(o.items) {
		return false
	}
	for i := range v.items {
		if !v.items[i].Equal(o.items[i]) {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	if v.mode == Single {
		if c, ok := v.Single(); ok {
			return c.Label()
		}
		return "<none>"
	}
	return fmt.Sprint(v.items)
}

// Toggle removes c from a multiple-mode value if present, otherwise appends
// it. The relative order of the remaining candidates is preserved.
func Toggle(current Value, c candidate.Candidate) Value {
	next := Value{mode: Multiple}
	idx := candidate.Index(current.items, c)
	if idx < 0 {
		next.items = make([]candidate.Candidate, 0, len(current.items)+1)
		next.items = append(next.items, current.items...)
		next.items = append(next.items, c)
		return next
	}
	next.items = make([]candidate.Candidate, 0, len(current.items)-1)
	next.items = append(next.items, current.items[:idx]...)
	next.items = append(next.items, current.items[idx+1:]...)
	return next
}

// Replace returns the single-mode value holding c.
func Replace(c candidate.Candidate) Value { return One(c) }

// Contains reports whether c is in a multiple-mode value.
func Contains(current Value, c candidate.Candidate) bool {
	return current.mode == Multiple && candidate.Index(current.items, c) >= 0
}

// IsSelected is the view predicate for either mode: membership in Multiple
// mode, equality with the current value in Single mode.
func IsSelected(current Value, c candidate.Candidate) bool {
	if current.mode == Multiple {
		return Contains(current, c)
	}
	s, ok := current.Single()
	return ok && s.Equal(c)
}

// Model binds the selection operations to a fixed mode.
type Model struct {
	Mode Mode
}

// NewModel creates a Model for mode.
func NewModel(mode Mode) Model { return Model{Mode: mode} }

// Validate checks that v has the model's shape.
func (m Model) Validate(v Value) error {
	if v.mode != m.Mode {
		return fmt.Errorf("%w: want %s, got %s", ErrModeMismatch, m.Mode, v.mode)
	}
	if m.Mode == Single && len(v.items) > 1 {
		return fmt.Errorf("%w: single value holds %d candidates", ErrModeMismatch, len(v.items))
	}
	return nil
}

// Initial returns v, or the empty value of the model's mode when v is nil.
func (m Model) Initial(v *Value) (Value, error) {
	if v == nil {
		if m.Mode == Multiple {
			return Empty(), nil
		}
		return None(), nil
	}
	if err := m.Validate(*v); err != nil {
		return Value{}, err
	}
	return *v, nil
}

// Apply confirms c against current: Toggle in Multiple mode, Replace in
// Single mode.
func (m Model) Apply(current Value, c candidate.Candidate) Value {
	if m.Mode == Multiple {
		return Toggle(current, c)
	}
	return Replace(c)
}
