package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PulseInterval is the blink period of the unread marker.
const PulseInterval = 600 * time.Millisecond

const (
	launcherIcon = "💬"
	pulseMarker  = "●"
	unreadBadge  = "1"
)

// PulseMsg advances the unread marker animation.
type PulseMsg struct{}

// PulseCmd schedules the next PulseMsg.
func PulseCmd() tea.Cmd {
	return tea.Tick(PulseInterval, func(time.Time) tea.Msg { return PulseMsg{} })
}

// Launcher is the round chat button drawn in the bottom-right corner.
type Launcher struct {
	Open   bool
	Unread bool
	// Frame alternates the pulse marker between bright and dim.
	Frame int
}

var (
	launcherStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#1e3a8a")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3b82f6")).
			Padding(0, 1)
	launcherOpenStyle = launcherStyle.BorderForeground(lipgloss.Color("#93c5fd"))
	pulseBright       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	pulseDim          = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f1d1d"))
	badgeStyle        = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffffff")).
				Background(lipgloss.Color("#dc2626")).
				Bold(true).
				Padding(0, 1)
)

// View renders the button. The pulse marker and badge appear only while a
// reply is unread.
func (l Launcher) View() string {
	style := launcherStyle
	if l.Open {
		style = launcherOpenStyle
	}
	button := style.Render(launcherIcon)
	if !l.Unread {
		return button
	}
	pulse := pulseBright
	if l.Frame%2 == 1 {
		pulse = pulseDim
	}
	marker := lipgloss.JoinHorizontal(lipgloss.Center, pulse.Render(pulseMarker), " ", badgeStyle.Render(unreadBadge))
	return lipgloss.JoinVertical(lipgloss.Right, marker, button)
}
