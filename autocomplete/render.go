package autocomplete

import "github.com/drake/pick/candidate"

// Renderer formats one candidate for display. multiple reports the
// selection mode and selected whether the candidate is part of the current
// value.
type Renderer func(c candidate.Candidate, multiple, selected bool) string

// Check markers used by DefaultRenderer in Multiple mode.
const (
	CheckOn  = "[x] "
	CheckOff = "[ ] "
)

// DefaultRenderer renders the candidate label, prefixed by a check marker
// in Multiple mode.
func DefaultRenderer(c candidate.Candidate, multiple, selected bool) string {
	switch {
	case !multiple:
		return c.Label()
	case selected:
		return CheckOn + c.Label()
	default:
		return CheckOff + c.Label()
	}
}
