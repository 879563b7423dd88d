// Package ui is a bubbletea front-end for an autocomplete.Controller.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/pick/autocomplete"
	"github.com/drake/pick/internal/loop"
	"github.com/drake/pick/selection"
	"github.com/drake/pick/ui/style"
)

// Options configures the Model.
type Options struct {
	MaxVisible int
	Styles     *style.Styles
	Keys       *KeyMap
}

// Model drives a Controller from terminal key events. Timer firings and
// async filter results reach the Controller through the loop, which the
// Model drains whenever it signals readiness.
type Model struct {
	ctrl    *autocomplete.Controller
	loop    *loop.Loop
	input   Input
	list    *List
	spinner spinner.Model
	help    help.Model
	keys    KeyMap
	styles  style.Styles

	width    int
	accepted bool
	quitting bool
}

// New creates a Model. The Controller must post its work onto l.
func New(ctrl *autocomplete.Controller, l *loop.Loop, opts Options) Model {
	styles := style.DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := Model{
		ctrl:    ctrl,
		loop:    l,
		input:   NewInput(ctrl.Placeholder(), styles),
		list:    NewList(ListConfig{MaxVisible: opts.MaxVisible}, styles),
		spinner: sp,
		help:    help.New(),
		keys:    keys,
		styles:  styles,
	}
	m.input.SetValue(ctrl.InputValue())
	ctrl.Focus()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.input.Focus(),
		m.spinner.Tick,
		waitForLoop(m.loop),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(msg.Width)
		m.list.SetWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	// Controller work posted from timers or filter goroutines
	case loopReadyMsg:
		m.loop.Drain()
		m.syncInput()
		return m, waitForLoop(m.loop)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Abort):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Accept):
		return m.accept()

	case key.Matches(msg, m.keys.Dismiss):
		if !m.ctrl.IsOpen() {
			return m.accept()
		}
		m.ctrl.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if !m.ctrl.IsOpen() {
			m.ctrl.Focus()
			return m, nil
		}
		m.ctrl.Previous()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if !m.ctrl.IsOpen() {
			m.ctrl.Focus()
			return m, nil
		}
		m.ctrl.Next()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if !m.ctrl.Confirm() {
			return m, nil
		}
		m.syncInput()
		if !m.ctrl.Multiple() {
			return m.accept()
		}
		return m, nil
	}

	if m.ctrl.Disabled() {
		return m, nil
	}

	before := m.input.Value()
	cmd := m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.ctrl.Input(after)
	}
	m.syncInput()
	return m, cmd
}

func (m Model) accept() (tea.Model, tea.Cmd) {
	m.ctrl.Blur()
	m.accepted = true
	m.quitting = true
	return m, tea.Quit
}

// syncInput pushes the Controller's query into the text box. The query can
// change without a keystroke, for example after a confirm.
func (m *Model) syncInput() {
	m.input.SetValue(m.ctrl.InputValue())
}

// Result returns the final value and whether the user accepted it.
func (m Model) Result() (selection.Value, bool) {
	return m.ctrl.Value(), m.accepted
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	if label := m.ctrl.Label(); label != "" {
		b.WriteString(m.styles.Label.Render(label))
		b.WriteString("\n")
	}
	if desc := m.ctrl.Description(); desc != "" {
		b.WriteString(m.styles.Description.Render(desc))
		b.WriteString("\n")
	}

	if m.ctrl.Disabled() {
		b.WriteString(m.styles.Disabled.Render(m.input.View()))
	} else {
		b.WriteString(m.input.View())
	}
	if m.ctrl.Loading() {
		b.WriteString(" ")
		b.WriteString(m.spinner.View())
	}
	b.WriteString("\n")

	if m.ctrl.IsOpen() {
		b.WriteString(m.list.View(m.rows(), m.ctrl.ActiveIndex(), m.ctrl.InputValue()))
		b.WriteString("\n")
	}
	if err := m.ctrl.Err(); err != nil {
		b.WriteString(m.styles.Error.Render(err.Error()))
		b.WriteString("\n")
	}
	if m.ctrl.Multiple() {
		b.WriteString(m.styles.Muted.Render(m.selectedSummary()))
		b.WriteString("\n")
	}

	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Confirm, m.keys.Accept,
	}))
	return b.String()
}

func (m Model) rows() []Row {
	options := m.ctrl.FilteredOptions()
	rows := make([]Row, len(options))
	for i, c := range options {
		rows[i] = Row{Text: m.ctrl.Render(c), Label: c.Label(), Checked: m.ctrl.IsSelected(c)}
	}
	return rows
}

func (m Model) selectedSummary() string {
	items := m.ctrl.Value().Items()
	if len(items) == 0 {
		return "nothing selected"
	}
	names := make([]string, len(items))
	for i, c := range items {
		names[i] = c.Label()
	}
	return "selected: " + strings.Join(names, ", ")
}
