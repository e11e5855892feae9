package watch

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// Colors used in the watch TUI.
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#9CA3AF") // Light gray
)

// Styles holds the styles for the watch TUI.
type Styles struct {
	Title    lipgloss.Style
	Selected lipgloss.Style
	Normal   lipgloss.Style
	Path     lipgloss.Style
	Idle     lipgloss.Style
	Active   lipgloss.Style
	QAWait   lipgloss.Style
	QABad    lipgloss.Style
	Loading  lipgloss.Style
	Help     lipgloss.Style
	Error    lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 1),
		Normal: lipgloss.NewStyle().
			Padding(0, 1),
		Path: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Idle: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Active: lipgloss.NewStyle().
			Foreground(ColorSuccess),
		QAWait: lipgloss.NewStyle().
			Foreground(ColorWarning),
		QABad: lipgloss.NewStyle().
			Foreground(ColorError),
		Loading: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
	}
}

// phaseStyle maps a phase to its display style.
func (s Styles) phaseStyle(p domain.Phase) lipgloss.Style {
	switch p {
	case domain.PhaseIdle, domain.PhaseArchived:
		return s.Idle
	case domain.PhaseMergedPendingQA:
		return s.QAWait
	case domain.PhaseQAFailed:
		return s.QABad
	default:
		return s.Active
	}
}
