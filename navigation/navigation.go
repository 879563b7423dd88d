// Package navigation tracks the highlighted entry of a filtered list.
package navigation

// None marks the absence of an active entry.
const None = -1

// Direction is a keyboard movement through the list.
type Direction int

const (
	Next Direction = iota
	Previous
)

func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// Advance moves active one step in dir over a list of length n, wrapping at
// both ends. An empty list has no active entry.
func Advance(active int, dir Direction, n int) int {
	if n <= 0 {
		return None
	}
	if active < 0 || active >= n {
		// Nothing highlighted yet: enter from the matching end.
		if dir == Previous {
			return n - 1
		}
		return 0
	}
	switch dir {
	case Previous:
		active--
		if active < 0 {
			active = n - 1
		}
	default:
		active++
		if active >= n {
			active = 0
		}
	}
	return active
}

// Reconcile returns the active index for a freshly replaced list. The
// previously highlighted candidate is not carried over, even when it is
// still present.
func Reconcile(n int) int {
	if n > 0 {
		return 0
	}
	return None
}

// Clamp keeps active valid for a list of length n without resetting it.
func Clamp(active, n int) int {
	if n <= 0 || active < 0 {
		return None
	}
	if active >= n {
		return n - 1
	}
	return active
}

// Scroll returns the first visible row of a window of height visible that
// keeps active on screen, moving offset as little as possible.
func Scroll(active, offset, visible int) int {
	if visible < 1 {
		visible = 1
	}
	if active < 0 {
		return max(0, offset)
	}
	if active < offset {
		return active
	}
	if active >= offset+visible {
		return active - visible + 1
	}
	return max(0, offset)
}
