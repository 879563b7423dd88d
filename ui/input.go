package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/pick/ui/style"
)

// Input handles text entry.
// This is a dumb text box; the query itself belongs to the Controller and
// is pushed back with SetValue after every transition.
type Input struct {
	textinput textinput.Model
	width     int
}

// NewInput creates a focused input.
func NewInput(placeholder string, styles style.Styles) Input {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.CharLimit = 0 // No limit
	ti.Width = 80
	ti.PromptStyle = styles.InputPrompt
	ti.TextStyle = styles.InputText
	ti.PlaceholderStyle = styles.Placeholder
	ti.Focus()

	return Input{textinput: ti}
}

// SetWidth updates the input width.
func (m *Input) SetWidth(w int) {
	m.width = w
	m.textinput.Width = w - 2 // Account for prompt
}

// Value returns the current input text.
func (m *Input) Value() string {
	return m.textinput.Value()
}

// SetValue replaces the text and moves the cursor to the end.
func (m *Input) SetValue(s string) {
	if m.textinput.Value() == s {
		return
	}
	m.textinput.SetValue(s)
	m.textinput.CursorEnd()
}

// Focus gives focus to the input.
func (m *Input) Focus() tea.Cmd {
	return m.textinput.Focus()
}

// Blur removes focus from the input.
func (m *Input) Blur() {
	m.textinput.Blur()
}

// Update handles tea messages for the input.
func (m *Input) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return cmd
}

// View renders the input line.
func (m *Input) View() string {
	return m.textinput.View()
}
