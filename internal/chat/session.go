// Package chat implements the kiosk's conversation engine: the message log,
// the single in-flight exchange with the assistant backend, the typewriter
// reveal of replies and the unread badge.
//
// A Session is driven from a bubbletea Update loop. Its methods are not safe
// for concurrent use; the commands it returns only produce messages, which
// must be fed back through Update.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Client sends a prompt to the assistant backend and returns its reply.
type Client interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Notifier plays the new-reply sound.
type Notifier interface {
	Play() error
}

// State is the session view consumed by the presentation layer.
type State struct {
	InputDraft     string
	IsSending      bool
	IsPopupOpen    bool
	HasUnreadReply bool
}

// ReplyMsg carries a successful reply for the exchange that requested it.
type ReplyMsg struct {
	exchange uint64
	Reply    string
}

// ReplyFailedMsg reports a failed exchange.
type ReplyFailedMsg struct {
	exchange uint64
	Err      error
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier sets the sound played when a reply arrives.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithRevealInterval sets the typewriter cadence.
func WithRevealInterval(d time.Duration) Option {
	return func(s *Session) { s.revealer.SetInterval(d) }
}

// WithErrorText overrides the message shown when an exchange fails.
func WithErrorText(text string) Option {
	return func(s *Session) {
		if strings.TrimSpace(text) != "" {
			s.errorText = text
		}
	}
}

// WithLogger routes debug output. The function may be called from
// goroutines running session commands.
func WithLogger(logf func(string)) Option {
	return func(s *Session) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// Session owns one conversation thread.
type Session struct {
	client     Client
	notifier   Notifier
	log        MessageLog
	revealer   *Revealer
	visibility Visibility
	draft      string
	sending    bool
	exchange   uint64
	cancel     context.CancelFunc
	errorText  string
	logf       func(string)
}

// NewSession creates an idle session with the popup closed.
func NewSession(client Client, opts ...Option) *Session {
	s := &Session{
		client:    client,
		revealer:  NewRevealer(DefaultRevealInterval),
		errorText: DefaultErrorText,
		logf:      func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit starts an exchange for prompt. Blank prompts and prompts submitted
// while an exchange is in flight are ignored and Submit returns nil.
// Otherwise the user message is recorded, the draft cleared, and the
// returned command performs the request.
func (s *Session) Submit(prompt string) tea.Cmd {
	text := strings.TrimSpace(prompt)
	if text == "" || s.sending {
		return nil
	}

	// The previous reply may still be animating; settle it so the user
	// message never lands between a reveal and its tail.
	if s.revealer.Finish() {
		s.logf("submit: settled the previous reveal")
	}

	s.sending = true
	s.log.Append(Message{Sender: SenderUser, Text: text})
	s.draft = ""
	s.exchange++

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	id := s.exchange
	client := s.client
	logf := s.logf
	logf(fmt.Sprintf("submit: exchange %d, %d chars", id, len([]rune(text))))

	return func() tea.Msg {
		reply, err := client.Send(ctx, text)
		if err != nil {
			logf(fmt.Sprintf("exchange %d failed: %v", id, err))
			return ReplyFailedMsg{exchange: id, Err: err}
		}
		return ReplyMsg{exchange: id, Reply: reply}
	}
}

// Update applies exchange results and reveal ticks.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ReplyMsg:
		if !s.awaiting(msg.exchange) {
			return nil
		}
		defer s.endExchange()
		return s.deliver(msg.Reply)

	case ReplyFailedMsg:
		if !s.awaiting(msg.exchange) {
			return nil
		}
		defer s.endExchange()
		s.log.Append(Message{Sender: SenderAssistant, Text: s.errorText})
		return nil
	}
	return s.revealer.Update(msg)
}

func (s *Session) awaiting(exchange uint64) bool {
	return s.sending && exchange == s.exchange
}

// endExchange runs on both the success and the failure path.
func (s *Session) endExchange() {
	s.sending = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) deliver(reply string) tea.Cmd {
	tail := s.log.Append(Message{Sender: SenderAssistant})
	reveal := s.revealer.Start(reply, func(partial string) {
		if s.log.Len()-1 != tail {
			s.logf("reveal: tail moved, dropping tick")
			return
		}
		if err := s.log.UpdateLast(partial); err != nil {
			s.logf(fmt.Sprintf("reveal: %v", err))
		}
	})
	s.visibility.MarkUnread()
	return tea.Batch(reveal, s.notify())
}

func (s *Session) notify() tea.Cmd {
	if s.notifier == nil {
		return nil
	}
	n, logf := s.notifier, s.logf
	return func() tea.Msg {
		if err := n.Play(); err != nil {
			logf(fmt.Sprintf("notification sound: %v", err))
		}
		return nil
	}
}

// Toggle opens or closes the popup and clears the unread badge.
func (s *Session) Toggle() { s.visibility.Toggle() }

// SetDraft records the text currently in the input control.
func (s *Session) SetDraft(text string) { s.draft = text }

// Draft returns the text currently in the input control.
func (s *Session) Draft() string { return s.draft }

// SetRevealInterval changes the cadence of reveals started later on.
func (s *Session) SetRevealInterval(d time.Duration) { s.revealer.SetInterval(d) }

// Revealing reports whether a reply is still being revealed.
func (s *Session) Revealing() bool { return s.revealer.Active() }

// Snapshot returns the conversation for rendering.
func (s *Session) Snapshot() []Message { return s.log.Snapshot() }

// State returns the current session flags.
func (s *Session) State() State {
	return State{
		InputDraft:     s.draft,
		IsSending:      s.sending,
		IsPopupOpen:    s.visibility.Open(),
		HasUnreadReply: s.visibility.Unread(),
	}
}

// Close cancels the in-flight request and the active reveal. Results that
// arrive afterwards are ignored.
func (s *Session) Close() {
	s.revealer.Stop()
	s.endExchange()
}
