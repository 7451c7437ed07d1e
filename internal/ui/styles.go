package ui

import "github.com/charmbracelet/lipgloss"

// styles holds the browser's lipgloss styles.
type styles struct {
	listTitle     lipgloss.Style
	selectedTitle lipgloss.Style
	selectedDesc  lipgloss.Style

	previewBorder lipgloss.Style
	previewTitle  lipgloss.Style

	muted   lipgloss.Style
	ok      lipgloss.Style
	fail    lipgloss.Style
	spinner lipgloss.Style
}

func newStyles() styles {
	accent := lipgloss.Color("13")
	return styles{
		listTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		selectedTitle: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(accent).
			Foreground(accent).
			Padding(0, 0, 0, 1),
		selectedDesc: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(accent).
			Foreground(lipgloss.Color("8")).
			Padding(0, 0, 0, 1),

		previewBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
		previewTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),

		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		spinner: lipgloss.NewStyle().Foreground(accent),
	}
}

// previewFrame is the horizontal space the preview border and padding
// consume.
func (s styles) previewFrame() int {
	return s.previewBorder.GetHorizontalFrameSize()
}

// previewFrameVertical is the vertical space the preview border
// consumes.
func (s styles) previewFrameVertical() int {
	return s.previewBorder.GetVerticalFrameSize()
}
