package sound

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync/atomic"
)

var (
	// ErrNoAudioPlayer is returned when no playback command exists on this host.
	ErrNoAudioPlayer = errors.New("sound: no audio player available")
	// ErrTooManySounds is returned when the concurrent playback cap is reached.
	ErrTooManySounds = errors.New("sound: concurrent sound limit reached")
)

// Player plays the notification chime. Play returns once playback has been
// started; failures after that point are only logged.
type Player interface {
	Play() error
}

// NoopPlayer is used when sound is disabled.
type NoopPlayer struct{}

// Play does nothing.
func (NoopPlayer) Play() error { return nil }

// maxConcurrentSounds limits simultaneous playback.
const maxConcurrentSounds = 2

// SystemPlayer plays a WAV file with afplay, paplay, aplay or PowerShell.
type SystemPlayer struct {
	soundFile    string
	audioCommand string
	audioArgs    []string
	concurrent   atomic.Int32
	logf         func(string)
	run          func(name string, args ...string) error
}

// New returns a SystemPlayer, or a NoopPlayer when enabled is false.
func New(enabled bool, soundFile string, logf func(string)) Player {
	if !enabled {
		return NoopPlayer{}
	}
	return NewSystemPlayer(soundFile, logf)
}

// NewSystemPlayer detects the platform's audio command. soundFile overrides
// the embedded chime; if it can't be found at play time the embedded chime
// is used instead.
func NewSystemPlayer(soundFile string, logf func(string)) *SystemPlayer {
	if logf == nil {
		logf = func(string) {}
	}
	cmd, args := detectAudioCommand()
	logf(fmt.Sprintf("sound: audioCommand=%q platform=%s", cmd, runtime.GOOS))
	return &SystemPlayer{
		soundFile:    soundFile,
		audioCommand: cmd,
		audioArgs:    args,
		logf:         logf,
		run:          runCommand,
	}
}

// Play starts the chime in the background.
func (p *SystemPlayer) Play() error {
	if p.audioCommand == "" {
		return ErrNoAudioPlayer
	}
	if p.concurrent.Add(1) > maxConcurrentSounds {
		p.concurrent.Add(-1)
		return ErrTooManySounds
	}
	go p.playAsync()
	return nil
}

// AudioAvailable reports whether a playback command was found.
func (p *SystemPlayer) AudioAvailable() bool {
	return p.audioCommand != ""
}

func (p *SystemPlayer) playAsync() {
	defer p.concurrent.Add(-1)

	if p.soundFile != "" {
		_, err := os.Stat(p.soundFile)
		if err == nil {
			if err := p.run(p.audioCommand, p.buildArgs(p.soundFile)...); err != nil {
				p.logf(fmt.Sprintf("sound: playback of %s failed: %v", p.soundFile, err))
			}
			return
		}
		p.logf(fmt.Sprintf("sound: %s not found, using the built-in chime: %v", p.soundFile, err))
	}

	path, cleanup, err := extractDefault()
	if err != nil {
		p.logf(fmt.Sprintf("sound: %v", err))
		return
	}
	defer cleanup()

	if err := p.run(p.audioCommand, p.buildArgs(path)...); err != nil {
		p.logf(fmt.Sprintf("sound: playback failed: %v", err))
	}
}

// extractDefault writes the embedded chime to a temp file for the player.
func extractDefault() (string, func(), error) {
	data, err := soundFiles.ReadFile(defaultSound)
	if err != nil {
		return "", nil, fmt.Errorf("read embedded chime: %w", err)
	}
	tmp, err := os.CreateTemp("", "tibbi-sound-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}

// buildArgs returns a fresh argument slice for the player.
func (p *SystemPlayer) buildArgs(path string) []string {
	if runtime.GOOS == "windows" {
		return []string{"-c", fmt.Sprintf("(New-Object System.Media.SoundPlayer '%s').PlaySync()", path)}
	}
	args := make([]string, len(p.audioArgs)+1)
	copy(args, p.audioArgs)
	args[len(args)-1] = path
	return args
}

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run() //nolint:gosec // name comes from detectAudioCommand
}

// detectAudioCommand returns the audio command for this platform, or "" if
// there is none.
func detectAudioCommand() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("afplay"); err == nil {
			return path, nil
		}
	case "linux":
		if path, err := exec.LookPath("paplay"); err == nil {
			return path, nil
		}
		if path, err := exec.LookPath("aplay"); err == nil {
			return path, []string{"-q"}
		}
	case "windows":
		if path, err := exec.LookPath("powershell.exe"); err == nil {
			return path, nil
		}
	}
	return "", nil
}
