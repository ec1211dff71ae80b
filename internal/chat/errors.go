package chat

import (
	"errors"
	"fmt"
)

// DefaultErrorText is shown as the assistant's message when an exchange fails.
const DefaultErrorText = "Sunucuya bağlanılamadı."

var (
	// ErrEmptyLog is returned when the tail is updated on an empty log.
	ErrEmptyLog = errors.New("chat: message log is empty")
	// ErrLastNotAssistant is returned when the tail being updated was written by the user.
	ErrLastNotAssistant = errors.New("chat: last message is not an assistant message")
)

// TransportError describes a failed exchange with the assistant backend:
// the server was unreachable, answered with a non-2xx status, or sent a body
// that did not have the expected shape.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
