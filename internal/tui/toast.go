package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultToastDuration is how long a toast stays on screen.
const DefaultToastDuration = 3 * time.Second

// ToastModel renders a short-lived notice in the top-right corner.
type ToastModel struct {
	message  string
	visible  bool
	shownAt  time.Time
	width    int
	duration time.Duration
}

// ShowToastMsg asks the toast to display Message.
type ShowToastMsg struct{ Message string }

// HideToastMsg hides the toast that was shown at shownAt.
type HideToastMsg struct{ shownAt time.Time }

// ShowToastCmd returns a command that displays message.
func ShowToastCmd(message string) tea.Cmd {
	return func() tea.Msg { return ShowToastMsg{Message: message} }
}

func NewToastModel() ToastModel { return ToastModel{duration: DefaultToastDuration} }

func (m ToastModel) Update(msg tea.Msg) (ToastModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ShowToastMsg:
		m.message = msg.Message
		m.visible = true
		m.shownAt = time.Now()
		shownAt := m.shownAt
		d := m.duration
		if d <= 0 {
			d = DefaultToastDuration
		}
		return m, tea.Tick(d, func(time.Time) tea.Msg { return HideToastMsg{shownAt: shownAt} })
	case HideToastMsg:
		// A newer toast may have replaced the one this hide was scheduled for.
		if msg.shownAt.IsZero() || msg.shownAt.Equal(m.shownAt) {
			m.visible = false
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}
	return m, nil
}

// Visible reports whether a toast is on screen.
func (m ToastModel) Visible() bool { return m.visible }

// Message returns the current toast text.
func (m ToastModel) Message() string { return m.message }

func (m ToastModel) View() string {
	if !m.visible {
		return ""
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("#1e3a8a")).
		Padding(0, 2).
		MarginRight(2).
		Bold(true)
	toast := style.Render(m.message)
	if m.width <= 0 {
		return toast
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, toast)
}
