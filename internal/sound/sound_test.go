package sound

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer returns a SystemPlayer whose audio command is recorded instead
// of executed.
func fakePlayer(soundFile string, run func(name string, args ...string) error) *SystemPlayer {
	return &SystemPlayer{
		soundFile:    soundFile,
		audioCommand: "fake-player",
		logf:         func(string) {},
		run:          run,
	}
}

func TestNoopPlayer_ImplementsInterface(t *testing.T) {
	var _ Player = NoopPlayer{}
	require.NoError(t, NoopPlayer{}.Play())
}

func TestNew_DisabledReturnsNoop(t *testing.T) {
	assert.IsType(t, NoopPlayer{}, New(false, "", nil))
	assert.IsType(t, &SystemPlayer{}, New(true, "", nil))
}

func TestSystemPlayer_NoAudioCommand(t *testing.T) {
	p := &SystemPlayer{logf: func(string) {}}
	assert.False(t, p.AudioAvailable())
	assert.ErrorIs(t, p.Play(), ErrNoAudioPlayer)
}

func TestSystemPlayer_PlaysEmbeddedChime(t *testing.T) {
	played := make(chan []byte, 1)
	p := fakePlayer("", func(name string, args ...string) error {
		require.Equal(t, "fake-player", name)
		data, err := os.ReadFile(args[len(args)-1])
		require.NoError(t, err)
		played <- data
		return nil
	})

	require.NoError(t, p.Play())

	select {
	case data := <-played:
		embedded, err := soundFiles.ReadFile(defaultSound)
		require.NoError(t, err)
		assert.Equal(t, embedded, data)
		assert.Equal(t, "RIFF", string(data[:4]))
	case <-time.After(2 * time.Second):
		t.Fatal("player was not invoked")
	}
}

func TestSystemPlayer_UsesOverrideFile(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom.wav")
	require.NoError(t, os.WriteFile(override, []byte("RIFF"), 0o644))

	played := make(chan string, 1)
	p := fakePlayer(override, func(_ string, args ...string) error {
		played <- args[len(args)-1]
		return nil
	})

	require.NoError(t, p.Play())
	select {
	case path := <-played:
		assert.Equal(t, override, path)
	case <-time.After(2 * time.Second):
		t.Fatal("player was not invoked")
	}
}

func TestSystemPlayer_MissingOverrideFallsBack(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.wav")
	played := make(chan string, 1)
	p := fakePlayer(missing, func(_ string, args ...string) error {
		played <- args[len(args)-1]
		return nil
	})

	require.NoError(t, p.Play())
	select {
	case path := <-played:
		assert.NotEqual(t, missing, path)
		assert.Contains(t, filepath.Base(path), "tibbi-sound-")
	case <-time.After(2 * time.Second):
		t.Fatal("player was not invoked")
	}
}

func TestSystemPlayer_ConcurrencyLimit(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, maxConcurrentSounds+1)
	p := fakePlayer("", func(string, ...string) error {
		started <- struct{}{}
		<-release
		return nil
	})

	for i := 0; i < maxConcurrentSounds; i++ {
		require.NoError(t, p.Play())
	}
	for i := 0; i < maxConcurrentSounds; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("player was not invoked")
		}
	}

	assert.ErrorIs(t, p.Play(), ErrTooManySounds)

	close(release)
	require.Eventually(t, func() bool { return p.concurrent.Load() == 0 }, 2*time.Second, 5*time.Millisecond)

	// A slot is free again; the extra playback must start and finish cleanly.
	require.NoError(t, p.Play())
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("player was not invoked after slots were released")
	}
	require.Eventually(t, func() bool { return p.concurrent.Load() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestSystemPlayer_PlaybackErrorIsLogged(t *testing.T) {
	logged := make(chan string, 4)
	p := fakePlayer("", func(string, ...string) error { return errors.New("device busy") })
	p.logf = func(m string) { logged <- m }

	require.NoError(t, p.Play(), "playback errors are not returned")
	select {
	case m := <-logged:
		assert.Contains(t, m, "device busy")
	case <-time.After(2 * time.Second):
		t.Fatal("playback error was not logged")
	}
}

func TestBuildArgs_ReturnsFreshSlice(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("powershell arguments are built differently")
	}
	p := &SystemPlayer{audioArgs: []string{"-q"}}
	a := p.buildArgs("/tmp/a.wav")
	b := p.buildArgs("/tmp/b.wav")
	assert.Equal(t, []string{"-q", "/tmp/a.wav"}, a)
	assert.Equal(t, []string{"-q", "/tmp/b.wav"}, b)
}
