package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultRevealInterval is the delay between two reveal ticks.
const DefaultRevealInterval = 40 * time.Millisecond

// RevealTickMsg drives one step of a reveal. Ticks carry the generation of
// the task that scheduled them; ticks from a stopped or superseded task are
// dropped.
type RevealTickMsg struct {
	gen uint64
}

type revealTask struct {
	gen    uint64
	runes  []rune
	cursor int
	onTick func(partial string)
}

// Revealer turns a complete reply into a sequence of growing prefixes, one
// rune per tick, at a fixed cadence. Only one task is active at a time.
type Revealer struct {
	interval time.Duration
	gen      uint64
	task     *revealTask
}

// NewRevealer returns a Revealer ticking every interval. A non-positive
// interval selects DefaultRevealInterval.
func NewRevealer(interval time.Duration) *Revealer {
	r := &Revealer{}
	r.SetInterval(interval)
	return r
}

// SetInterval changes the cadence for ticks scheduled from now on.
func (r *Revealer) SetInterval(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRevealInterval
	}
	r.interval = interval
}

// Interval returns the current tick cadence.
func (r *Revealer) Interval() time.Duration { return r.interval }

// Start begins revealing text, abandoning any task already in progress.
// onTick receives each prefix in order; the first tick fires immediately.
// Empty text completes at once without ticks and Start returns nil.
func (r *Revealer) Start(text string, onTick func(partial string)) tea.Cmd {
	r.Stop()
	if text == "" {
		return nil
	}
	r.gen++
	r.task = &revealTask{gen: r.gen, runes: []rune(text), onTick: onTick}
	gen := r.gen
	return func() tea.Msg { return RevealTickMsg{gen: gen} }
}

// Update applies a tick to the active task and schedules the next one.
func (r *Revealer) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(RevealTickMsg)
	if !ok || r.task == nil || tick.gen != r.task.gen {
		return nil
	}
	t := r.task
	t.cursor++
	t.onTick(string(t.runes[:t.cursor]))
	if r.task != t {
		// onTick stopped or replaced the task
		return nil
	}
	if t.cursor >= len(t.runes) {
		r.task = nil
		return nil
	}
	gen := t.gen
	return tea.Tick(r.interval, func(time.Time) tea.Msg { return RevealTickMsg{gen: gen} })
}

// Finish jumps the active task to its full text and ends it. It reports
// whether a task was active.
func (r *Revealer) Finish() bool {
	t := r.task
	if t == nil {
		return false
	}
	r.Stop()
	if t.cursor < len(t.runes) {
		t.onTick(string(t.runes))
	}
	return true
}

// Stop cancels the active task. Ticks already scheduled for it are ignored
// when they arrive.
func (r *Revealer) Stop() {
	r.task = nil
	r.gen++
}

// Active reports whether a reveal is in progress.
func (r *Revealer) Active() bool { return r.task != nil }
