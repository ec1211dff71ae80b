package chat

// Sender identifies who authored a message.
type Sender int

const (
	SenderUser Sender = iota
	SenderAssistant
)

func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderAssistant:
		return "assistant"
	}
	return "unknown"
}

// Message is a single entry in the conversation.
type Message struct {
	Sender Sender
	Text   string
}

// MessageLog is the ordered record of the conversation. Entries are only ever
// appended; the one exception is the trailing assistant entry, whose text may
// be replaced while a reply is being revealed.
type MessageLog struct {
	messages []Message
}

// Append adds m to the end of the log and returns its index.
func (l *MessageLog) Append(m Message) int {
	l.messages = append(l.messages, m)
	return len(l.messages) - 1
}

// UpdateLast replaces the text of the trailing assistant entry.
func (l *MessageLog) UpdateLast(text string) error {
	if len(l.messages) == 0 {
		return ErrEmptyLog
	}
	last := &l.messages[len(l.messages)-1]
	if last.Sender != SenderAssistant {
		return ErrLastNotAssistant
	}
	last.Text = text
	return nil
}

// Last returns the trailing entry, if any.
func (l *MessageLog) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Len returns the number of entries.
func (l *MessageLog) Len() int { return len(l.messages) }

// Snapshot returns a copy of the log suitable for rendering.
func (l *MessageLog) Snapshot() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}
