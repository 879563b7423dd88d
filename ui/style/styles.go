package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the lipgloss styles for the picker.
type Styles struct {
	// Header
	Label       lipgloss.Style
	Description lipgloss.Style

	// Input
	InputPrompt lipgloss.Style
	InputText   lipgloss.Style
	Placeholder lipgloss.Style
	Spinner     lipgloss.Style

	// List
	ListBorder        lipgloss.Style
	ListSelected      lipgloss.Style
	ListNormal        lipgloss.Style
	ListMatch         lipgloss.Style
	ListMatchSelected lipgloss.Style // Match highlighting on the active row
	ListChecked       lipgloss.Style

	// Misc
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Disabled lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),
		Description: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),

		InputPrompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		InputText: lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")), // Muted yellow

		ListBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		ListSelected: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")),
		ListNormal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		ListMatch: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // Magenta for matched chars
			Bold(true),
		ListMatchSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Background(lipgloss.Color("62")). // Same background as ListSelected
			Bold(true),
		ListChecked: lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")), // Muted green

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		Disabled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")),
	}
}
