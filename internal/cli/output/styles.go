package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles a renderer applies in text mode.
// They are bound to the renderer's color profile, so in markdown and
// JSON modes every Render call degrades to plain text.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// TopicKey styles a catalog topic key wherever one is listed.
	TopicKey lipgloss.Style

	// StatusSuccess and StatusFailed carry their icon as the style's
	// string value; use String() to get the rendered icon.
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

func newStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),

		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("9")),
		Info:    lr.NewStyle().Foreground(lipgloss.Color("12")),

		TopicKey: lr.NewStyle().Foreground(lipgloss.Color("13")),

		StatusSuccess: lr.NewStyle().SetString("✓").Foreground(lipgloss.Color("10")),
		StatusFailed:  lr.NewStyle().SetString("✗").Foreground(lipgloss.Color("9")),
	}
}
