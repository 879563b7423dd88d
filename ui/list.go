package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/drake/pick/filter"
	"github.com/drake/pick/navigation"
	"github.com/drake/pick/ui/style"
)

// ListConfig holds list configuration.
type ListConfig struct {
	MaxVisible int
	EmptyText  string
}

// Row is one rendered candidate. Label is the part of Text that match
// highlighting applies to; decorations around it are never highlighted.
type Row struct {
	Text    string
	Label   string
	Checked bool
}

// List draws the filtered candidates with a scroll window that follows the
// active row. It owns no candidate state; the Controller does.
type List struct {
	config    ListConfig
	styles    style.Styles
	scrollOff int
	width     int
}

// NewList creates a list.
func NewList(config ListConfig, styles style.Styles) *List {
	if config.MaxVisible <= 0 {
		config.MaxVisible = 10
	}
	if config.EmptyText == "" {
		config.EmptyText = "No matches"
	}
	return &List{config: config, styles: styles}
}

// SetWidth updates the list width.
func (l *List) SetWidth(w int) {
	l.width = w
}

// Height returns the rendered height of n rows including the border.
func (l *List) Height(n int) int {
	h := min(n, l.config.MaxVisible)
	if h == 0 {
		h = 1 // "No matches" placeholder
	}
	return h + 2
}

// View renders rows, keeping active inside the visible window. Characters
// matching query are highlighted.
func (l *List) View(rows []Row, active int, query string) string {
	inner := max(l.width-4, 10)

	if len(rows) == 0 {
		l.scrollOff = 0
		line := l.styles.Muted.Render("  " + l.config.EmptyText)
		return l.styles.ListBorder.Width(inner).Render(line)
	}

	l.scrollOff = navigation.Scroll(active, min(l.scrollOff, len(rows)-1), l.config.MaxVisible)
	start := l.scrollOff
	end := min(start+l.config.MaxVisible, len(rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(rows[i], inner, i == active, query))
	}
	return l.styles.ListBorder.Width(inner).Render(strings.Join(lines, "\n"))
}

func (l *List) renderRow(row Row, width int, selected bool, query string) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}

	text := runewidth.Truncate(row.Text, width-runewidth.StringWidth(prefix), "…")

	visible := utf8.RuneCountInString(text)
	if text != row.Text {
		visible-- // ellipsis
	}
	matchSet := make(map[int]bool)
	for _, pos := range matchPositions(row, query) {
		if pos < visible {
			matchSet[pos] = true
		}
	}

	normal := l.styles.ListNormal
	if row.Checked {
		normal = l.styles.ListChecked
	}

	var result strings.Builder
	for idx, r := range []rune(text) {
		ch := string(r)
		switch {
		case matchSet[idx] && selected:
			result.WriteString(l.styles.ListMatchSelected.Render(ch))
		case matchSet[idx]:
			result.WriteString(l.styles.ListMatch.Render(ch))
		case selected:
			result.WriteString(l.styles.ListSelected.Render(ch))
		default:
			result.WriteString(normal.Render(ch))
		}
	}

	if selected {
		return l.styles.ListSelected.Render(prefix) + result.String()
	}
	return l.styles.ListNormal.Render(prefix) + result.String()
}

// matchPositions returns the rune offsets in row.Text of the characters
// matching query, scored against the label alone.
func matchPositions(row Row, query string) []int {
	if query == "" || row.Label == "" {
		return nil
	}
	at := strings.Index(row.Text, row.Label)
	if at < 0 {
		return nil
	}
	_, positions := filter.Score(query, row.Label)
	offset := utf8.RuneCountInString(row.Text[:at])
	for i := range positions {
		positions[i] += offset
	}
	return positions
}
