package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// MessageType classifies output for prefixing and routing.
type MessageType int

const (
	InfoMessage MessageType = iota
	WarningMessage
	ErrorMessage
	SuccessMessage
	DebugMessage
)

// OutputMessage is one line of user-facing output.
type OutputMessage struct {
	Type    MessageType
	Content string
	Writer  io.Writer // used outside TUI mode
	NoEmoji bool
}

// TUIMessageMsg carries output into a running Bubble Tea program so that
// writes to stdout/stderr don't tear the screen.
type TUIMessageMsg struct {
	Message OutputMessage
}

type outputState struct {
	mu            sync.RWMutex
	program       *tea.Program
	inTUIMode     bool
	queue         []OutputMessage
	disableEmojis bool
	stdout        io.Writer
	stderr        io.Writer
}

var outputManager = &outputState{stdout: os.Stdout, stderr: os.Stderr}

// SetTUIMode routes output to program and flushes anything queued.
func SetTUIMode(program *tea.Program) {
	outputManager.mu.Lock()
	defer outputManager.mu.Unlock()
	outputManager.program = program
	outputManager.inTUIMode = true
	if program != nil {
		queued := outputManager.queue
		outputManager.queue = nil
		go func() {
			for _, msg := range queued {
				program.Send(TUIMessageMsg{Message: msg})
			}
		}()
	}
}

// ClearTUIMode restores direct output.
func ClearTUIMode() {
	outputManager.mu.Lock()
	defer outputManager.mu.Unlock()
	outputManager.program = nil
	outputManager.inTUIMode = false
	outputManager.queue = nil
}

// SetEmojiEnabled turns message prefixes on or off.
func SetEmojiEnabled(enabled bool) {
	outputManager.mu.Lock()
	defer outputManager.mu.Unlock()
	outputManager.disableEmojis = !enabled
}

// SetOutputWriters redirects direct output. Tests use it to capture what
// commands print; nil restores the process streams.
func SetOutputWriters(stdout, stderr io.Writer) {
	outputManager.mu.Lock()
	defer outputManager.mu.Unlock()
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	outputManager.stdout = stdout
	outputManager.stderr = stderr
}

func sendMessage(msgType MessageType, format string, args ...interface{}) {
	sendMessageWithOptions(msgType, false, format, args...)
}

func sendMessageWithOptions(msgType MessageType, noEmoji bool, format string, args ...interface{}) {
	outputManager.mu.Lock()
	msg := OutputMessage{
		Type:    msgType,
		Content: fmt.Sprintf(format, args...),
		Writer:  outputManager.writerFor(msgType),
		NoEmoji: noEmoji || outputManager.disableEmojis,
	}
	inTUI := outputManager.inTUIMode
	program := outputManager.program
	if inTUI && program == nil {
		outputManager.queue = append(outputManager.queue, msg)
	}
	outputManager.mu.Unlock()

	if inTUI {
		// Send blocks until the event loop reads it, and callers may be
		// inside Update.
		if program != nil {
			go program.Send(TUIMessageMsg{Message: msg})
		}
		return
	}
	out := FormatMessage(msg)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	fmt.Fprint(msg.Writer, out)
}

func (o *outputState) writerFor(msgType MessageType) io.Writer {
	switch msgType {
	case ErrorMessage, WarningMessage, DebugMessage:
		return o.stderr
	default:
		return o.stdout
	}
}

// OutputInfo prints an informational line.
func OutputInfo(format string, args ...interface{}) {
	sendMessage(InfoMessage, format, args...)
}

// OutputInfoPlain prints without a prefix. Tables and JSON go through here.
func OutputInfoPlain(format string, args ...interface{}) {
	sendMessageWithOptions(InfoMessage, true, format, args...)
}

func OutputWarning(format string, args ...interface{}) {
	sendMessage(WarningMessage, format, args...)
}

func OutputError(format string, args ...interface{}) {
	sendMessage(ErrorMessage, format, args...)
}

func OutputSuccess(format string, args ...interface{}) {
	sendMessage(SuccessMessage, format, args...)
}

// OutputDebug prints only when debug is enabled.
func OutputDebug(format string, args ...interface{}) {
	if !enableDebug.Load() {
		return
	}
	sendMessage(DebugMessage, format, args...)
}

// FormatMessage renders msg with its type prefix.
func FormatMessage(msg OutputMessage) string {
	if msg.NoEmoji {
		return msg.Content
	}
	var prefix string
	switch msg.Type {
	case InfoMessage:
		prefix = "ℹ️"
	case WarningMessage:
		prefix = "⚠️"
	case ErrorMessage:
		prefix = "❌"
	case SuccessMessage:
		prefix = "✅"
	case DebugMessage:
		prefix = "🐛"
	}
	return fmt.Sprintf("%s  %s", prefix, msg.Content)
}
