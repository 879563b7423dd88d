package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/pick/internal/loop"
)

// loopReadyMsg reports that jobs were posted to the controller's loop.
type loopReadyMsg struct{}

// waitForLoop blocks until the loop has work.
func waitForLoop(l *loop.Loop) tea.Cmd {
	return func() tea.Msg {
		<-l.Ready()
		return loopReadyMsg{}
	}
}
