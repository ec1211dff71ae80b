package tui

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// CopyCmd copies text to the system clipboard and reports the outcome as a
// toast. An empty text produces emptyNotice instead.
func CopyCmd(text, copiedNotice, emptyNotice, failedNotice string) tea.Cmd {
	return func() tea.Msg {
		if text == "" {
			return ShowToastMsg{Message: emptyNotice}
		}
		if err := writeClipboard(text); err != nil {
			return ShowToastMsg{Message: failedNotice + ": " + err.Error()}
		}
		return ShowToastMsg{Message: copiedNotice}
	}
}
