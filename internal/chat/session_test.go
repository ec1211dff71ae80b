package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeClient) Send(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeNotifier struct {
	mu    sync.Mutex
	plays int
	err   error
}

func (n *fakeNotifier) Play() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.plays++
	return n.err
}

// drain runs cmd and every command it leads to, feeding each message back
// into the session. observe is called after each message has been applied.
func drain(t *testing.T, s *Session, cmd tea.Cmd, observe func(tea.Msg)) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 10_000, "session did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch m := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		}
		queue = append(queue, s.Update(msg))
		if observe != nil {
			observe(msg)
		}
	}
}

// runFlat runs cmd and returns the messages it produces, unpacking batches.
func runFlat(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch m := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range m {
			out = append(out, runFlat(c)...)
		}
		return out
	default:
		return []tea.Msg{m}
	}
}

func newTestSession(client Client, opts ...Option) *Session {
	opts = append([]Option{WithRevealInterval(time.Millisecond)}, opts...)
	return NewSession(client, opts...)
}

func TestSession_InitialState(t *testing.T) {
	s := NewSession(&fakeClient{})
	assert.Equal(t, State{}, s.State())
	assert.Empty(t, s.Snapshot())
}

func TestSession_BlankPromptIsIgnored(t *testing.T) {
	for _, prompt := range []string{"", " ", "\t\n", "     "} {
		client := &fakeClient{reply: "x"}
		s := newTestSession(client)
		s.SetDraft(prompt)
		before := s.State()

		cmd := s.Submit(prompt)

		assert.Nil(t, cmd, "prompt %q", prompt)
		assert.Equal(t, before, s.State())
		assert.Empty(t, s.Snapshot())
		assert.Zero(t, client.calls())
	}
}

func TestSession_SubmitWhileSendingIsIgnored(t *testing.T) {
	client := &fakeClient{reply: "Selam"}
	s := newTestSession(client)

	first := s.Submit("Merhaba")
	require.NotNil(t, first)
	require.True(t, s.State().IsSending)

	s.SetDraft("again")
	assert.Nil(t, s.Submit("again"))
	assert.Len(t, s.Snapshot(), 1, "no duplicate user message")
	assert.Equal(t, "again", s.State().InputDraft)

	drain(t, s, first, nil)
	assert.Equal(t, 1, client.calls(), "exactly one request")
}

func TestSession_SubmitRecordsTrimmedPromptAndClearsDraft(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	s := newTestSession(client)
	s.SetDraft("  Merhaba  ")

	cmd := s.Submit(s.Draft())

	require.NotNil(t, cmd)
	assert.Equal(t, []Message{{Sender: SenderUser, Text: "Merhaba"}}, s.Snapshot())
	assert.Equal(t, "", s.State().InputDraft)
	assert.Zero(t, client.calls(), "request runs only when the command runs")

	drain(t, s, cmd, nil)
	assert.Equal(t, []string{"Merhaba"}, client.prompts)
}

func TestSession_SuccessfulExchangeRevealsReply(t *testing.T) {
	client := &fakeClient{reply: "Selam"}
	notifier := &fakeNotifier{}
	s := newTestSession(client, WithNotifier(notifier))

	var tails []string
	var sendingAfterReply *bool
	drain(t, s, s.Submit("Merhaba"), func(msg tea.Msg) {
		switch msg.(type) {
		case ReplyMsg:
			sending := s.State().IsSending
			sendingAfterReply = &sending
		case RevealTickMsg:
			snap := s.Snapshot()
			require.Len(t, snap, 2)
			tails = append(tails, snap[1].Text)
		}
	})

	require.NotNil(t, sendingAfterReply)
	assert.False(t, *sendingAfterReply, "sending clears before the reveal finishes")
	assert.Equal(t, []string{"S", "Se", "Sel", "Sela", "Selam"}, tails)
	assert.Equal(t, []Message{
		{Sender: SenderUser, Text: "Merhaba"},
		{Sender: SenderAssistant, Text: "Selam"},
	}, s.Snapshot())

	st := s.State()
	assert.False(t, st.IsSending)
	assert.True(t, st.HasUnreadReply, "popup was closed at delivery")
	assert.Equal(t, 1, notifier.plays)
}

func TestSession_ReplyWhilePopupOpenRaisesBadge(t *testing.T) {
	notifier := &fakeNotifier{}
	s := newTestSession(&fakeClient{reply: "Selam"}, WithNotifier(notifier))
	s.Toggle()

	drain(t, s, s.Submit("Merhaba"), nil)

	assert.True(t, s.State().IsPopupOpen)
	assert.True(t, s.State().HasUnreadReply, "every delivered reply is unread until the next toggle")
	assert.Equal(t, 1, notifier.plays, "sound plays for every reply")

	s.Toggle()
	assert.False(t, s.State().HasUnreadReply)
}

func TestSession_EmptyReplyCompletesWithoutTicks(t *testing.T) {
	s := newTestSession(&fakeClient{reply: ""})
	ticks := 0

	drain(t, s, s.Submit("test"), func(msg tea.Msg) {
		if _, ok := msg.(RevealTickMsg); ok {
			ticks++
		}
	})

	assert.Zero(t, ticks)
	assert.Equal(t, []Message{
		{Sender: SenderUser, Text: "test"},
		{Sender: SenderAssistant, Text: ""},
	}, s.Snapshot())
}

func TestSession_FailedExchangeShowsErrorText(t *testing.T) {
	transportErr := &TransportError{Op: "POST /chat", Err: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	s := newTestSession(&fakeClient{err: transportErr}, WithNotifier(notifier))
	ticks := 0

	drain(t, s, s.Submit("test"), func(msg tea.Msg) {
		if _, ok := msg.(RevealTickMsg); ok {
			ticks++
		}
	})

	assert.Equal(t, []Message{
		{Sender: SenderUser, Text: "test"},
		{Sender: SenderAssistant, Text: "Sunucuya bağlanılamadı."},
	}, s.Snapshot())
	assert.Zero(t, ticks)
	assert.False(t, s.State().IsSending)
	assert.False(t, s.State().HasUnreadReply)
	assert.Zero(t, notifier.plays)
	assert.False(t, s.Revealing())
}

func TestSession_CustomErrorText(t *testing.T) {
	s := newTestSession(&fakeClient{err: errors.New("boom")}, WithErrorText("Bağlantı hatası"))
	drain(t, s, s.Submit("x"), nil)
	assert.Equal(t, "Bağlantı hatası", s.Snapshot()[1].Text)

	blank := newTestSession(&fakeClient{err: errors.New("boom")}, WithErrorText("  "))
	drain(t, blank, blank.Submit("x"), nil)
	assert.Equal(t, DefaultErrorText, blank.Snapshot()[1].Text)
}

func TestSession_NotifierFailureIsSwallowed(t *testing.T) {
	var logged []string
	var mu sync.Mutex
	notifier := &fakeNotifier{err: errors.New("no audio device")}
	s := newTestSession(&fakeClient{reply: "ok"},
		WithNotifier(notifier),
		WithLogger(func(m string) {
			mu.Lock()
			defer mu.Unlock()
			logged = append(logged, m)
		}),
	)

	drain(t, s, s.Submit("hi"), nil)

	assert.Equal(t, "ok", s.Snapshot()[1].Text)
	assert.Len(t, s.Snapshot(), 2, "sound failure is never shown to the user")
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, logged, "notification sound: no audio device")
}

func TestSession_GrowsByTwoPerExchange(t *testing.T) {
	client := &fakeClient{reply: "cevap"}
	s := newTestSession(client)

	for i := 1; i <= 3; i++ {
		drain(t, s, s.Submit("soru"), nil)
		assert.Len(t, s.Snapshot(), 2*i)
	}

	client.err = errors.New("down")
	drain(t, s, s.Submit("soru"), nil)
	assert.Len(t, s.Snapshot(), 8)
}

// A second prompt may be accepted while the previous reply is still being
// revealed. The earlier reveal must not write into the newer exchange.
func TestSession_SubmitDuringRevealSettlesPreviousReply(t *testing.T) {
	client := &fakeClient{reply: "Selam"}
	s := NewSession(client, WithRevealInterval(time.Hour))

	var pendingTick tea.Cmd
	var firstTick tea.Msg
	msg := s.Submit("Merhaba")()
	for _, m := range runFlat(s.Update(msg)) {
		if tick, ok := m.(RevealTickMsg); ok {
			firstTick = tick
			pendingTick = s.Update(tick)
		}
	}
	require.NotNil(t, pendingTick)
	require.True(t, s.Revealing())
	require.False(t, s.State().IsSending)
	require.Equal(t, "S", s.Snapshot()[1].Text)

	client.reply = "İyi günler"
	second := s.Submit("Nasılsın")
	require.NotNil(t, second)

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "Selam", snap[1].Text, "previous reply is completed, not truncated")
	assert.Equal(t, Message{Sender: SenderUser, Text: "Nasılsın"}, snap[2])
	assert.False(t, s.Revealing())

	// Ticks of the first reveal are stale now.
	assert.Nil(t, s.Update(firstTick))
	assert.Equal(t, Message{Sender: SenderUser, Text: "Nasılsın"}, s.Snapshot()[2])

	s.SetRevealInterval(time.Millisecond)
	drain(t, s, second, nil)
	snap = s.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, "İyi günler", snap[3].Text)
}

func TestSession_CloseIgnoresLateReply(t *testing.T) {
	s := newTestSession(&fakeClient{reply: "late"})
	cmd := s.Submit("hi")

	s.Close()
	msg := cmd()
	assert.Nil(t, s.Update(msg))

	assert.Len(t, s.Snapshot(), 1)
	assert.False(t, s.State().IsSending)
}

func TestSession_CloseCancelsRequestContext(t *testing.T) {
	started := make(chan struct{})
	client := clientFunc(func(ctx context.Context, _ string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})
	s := newTestSession(client)
	cmd := s.Submit("hi")

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	<-started
	s.Close()

	select {
	case msg := <-done:
		failed, ok := msg.(ReplyFailedMsg)
		require.True(t, ok)
		assert.ErrorIs(t, failed.Err, context.Canceled)
		assert.Nil(t, s.Update(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("request was not cancelled")
	}
	assert.Len(t, s.Snapshot(), 1, "cancelled exchange adds no error message")
}

func TestSession_CloseStopsReveal(t *testing.T) {
	s := NewSession(&fakeClient{reply: "Selam"}, WithRevealInterval(time.Hour))
	s.Update(s.Submit("Merhaba")())
	require.True(t, s.Revealing())

	s.Close()

	assert.False(t, s.Revealing())
}

func TestSession_ToggleClearsUnread(t *testing.T) {
	s := newTestSession(&fakeClient{reply: "Selam"})
	drain(t, s, s.Submit("Merhaba"), nil)
	require.True(t, s.State().HasUnreadReply)

	s.Toggle()

	st := s.State()
	assert.True(t, st.IsPopupOpen)
	assert.False(t, st.HasUnreadReply)
}

type clientFunc func(ctx context.Context, prompt string) (string, error)

func (f clientFunc) Send(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

func TestTransportError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &TransportError{Op: "decode reply", Err: cause}
	assert.Equal(t, "decode reply: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)

	withStatus := &TransportError{Op: "POST /chat", StatusCode: 502, Err: errors.New("bad gateway")}
	assert.Equal(t, "POST /chat: server returned 502: bad gateway", withStatus.Error())

	var te *TransportError
	assert.True(t, errors.As(error(withStatus), &te))
}
