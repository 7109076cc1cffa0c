package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the colours used on a terminal. Each style renders plain text
// when the writer it was built for does not support colour.
type Styles struct {
	Label lipgloss.Style
	Bar   lipgloss.Style
	Empty lipgloss.Style
	Bad   lipgloss.Style
	Dim   lipgloss.Style
}

// NewStyles builds the styles for w
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Label: r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		Bar:   r.NewStyle().Foreground(lipgloss.Color("2")),
		Empty: r.NewStyle().Foreground(lipgloss.Color("8")),
		Bad:   r.NewStyle().Foreground(lipgloss.Color("1")),
		Dim:   r.NewStyle().Faint(true),
	}
}
