package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/aiyflowers/wslusb/pkg/usbipd"
)

// GitHub-dark palette.
const (
	colorAccent        = "#58a6ff"
	colorDanger        = "#f85149"
	colorSuccess       = "#3fb950"
	colorWarning       = "#d29922"
	colorTextPrimary   = "#e6edf3"
	colorTextSecondary = "#8b949e"
	colorBorder        = "#30363d"
	colorBrandPink     = "#e94560"
)

// Styling with lipgloss.
type styles struct {
	title, badge, subtitle       lipgloss.Style
	tableFrame                   lipgloss.Style
	stateAttached, stateShared   lipgloss.Style
	stateNotShared, stateUnknown lipgloss.Style
	statusInfo, statusSuccess    lipgloss.Style
	statusWarn, statusError      lipgloss.Style
	help, prompt, promptKey      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true),
		badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorBrandPink)).
			Bold(true),
		subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorTextSecondary)),
		tableFrame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)),
		stateAttached: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess)),
		stateShared: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)),
		stateNotShared: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorTextSecondary)),
		stateUnknown: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarning)),
		statusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorTextSecondary)),
		statusSuccess: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess)),
		statusWarn: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarning)),
		statusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorDanger)).
			Bold(true),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorTextSecondary)),
		prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarning)).
			Bold(true),
		promptKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)),
	}
}

// stateStyle maps a device state category to its rendering style; the enum
// is decided once at parse time, never re-derived from text here.
func (s styles) stateStyle(state usbipd.State) lipgloss.Style {
	switch state {
	case usbipd.StateAttached:
		return s.stateAttached
	case usbipd.StateShared:
		return s.stateShared
	case usbipd.StateNotShared:
		return s.stateNotShared
	default:
		return s.stateUnknown
	}
}
