package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/leapkpi/internal/benchmark"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	// KPI highlights KPI identifiers.
	KPI lipgloss.Style
}

// NewStyles builds styles bound to w. With color false every style renders
// plain text.
func NewStyles(w io.Writer, color bool) *Styles {
	lr := lipgloss.NewRenderer(w)
	switch {
	case !color || termenv.EnvNoColor():
		lr.SetColorProfile(termenv.Ascii)
	case lr.ColorProfile() == termenv.Ascii:
		// A simulated or redirected TTY still gets basic colors.
		lr.SetColorProfile(termenv.ANSI)
	}

	return &Styles{
		Header:  lr.NewStyle().Bold(true).Underline(true),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
		Success: lr.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Info:    lr.NewStyle().Foreground(lipgloss.Color("6")),
		KPI:     lr.NewStyle().Foreground(lipgloss.Color("4")),
	}
}

// Label returns the style of a performance label.
func (s *Styles) Label(label string) lipgloss.Style {
	switch label {
	case benchmark.LabelTopQuartile:
		return s.Success
	case benchmark.LabelAboveMedian:
		return s.Info
	case benchmark.LabelBelowMedian:
		return s.Warning
	case benchmark.LabelBottomQuartile:
		return s.Error
	default:
		return s.Muted
	}
}
