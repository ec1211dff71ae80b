package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/tibbisekreter/cli/cmd/config"
	"github.com/tibbisekreter/cli/cmd/utils"
)

// ConfigReloadedMsg carries a freshly validated config after the file changed.
type ConfigReloadedMsg struct {
	Config *config.Config
	Path   string
}

// ConfigReloadFailedMsg reports a changed config file that could not be used.
// The previous config stays in effect.
type ConfigReloadFailedMsg struct {
	Path string
	Err  error
}

const (
	// reloadDebounce drops repeated events for the same file.
	reloadDebounce = 100 * time.Millisecond
	// writeSettle gives editors time to finish writing before we read.
	writeSettle = 20 * time.Millisecond
)

// StartConfigWatcher watches the directory holding configPath, or dir when
// configPath is empty so that a newly created config file is picked up.
// Every change is reported through send. The returned function stops the
// watcher.
func StartConfigWatcher(configPath, dir string, send func(tea.Msg)) (func() error, error) {
	if configPath != "" {
		dir = filepath.Dir(configPath)
	}
	if dir == "" {
		return nil, fmt.Errorf("no directory to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	utils.LogDebug(fmt.Sprintf("watcher: watching %s (config %q)", dir, configPath))

	done := make(chan struct{})
	go func() {
		defer close(done)
		lastReload := make(map[string]time.Time)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				path := event.Name
				if !watchedConfig(path, configPath) {
					continue
				}
				if last, seen := lastReload[path]; seen && time.Since(last) < reloadDebounce {
					continue
				}
				time.Sleep(writeSettle)
				lastReload[path] = time.Now()
				send(reloadConfig(path))

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				utils.LogDebug(fmt.Sprintf("watcher error: %v", err))
			}
		}
	}()

	var once sync.Once
	var closeErr error
	return func() error {
		once.Do(func() {
			closeErr = watcher.Close()
			<-done
		})
		return closeErr
	}, nil
}

// watchedConfig reports whether path is the file being followed. With no
// file yet, any supported config name counts.
func watchedConfig(path, configPath string) bool {
	if configPath != "" {
		return filepath.Clean(path) == filepath.Clean(configPath)
	}
	return config.IsConfigFile(path)
}

// reloadConfig parses path the same way startup does, minus the flags,
// which the receiver reapplies.
func reloadConfig(path string) tea.Msg {
	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return ConfigReloadFailedMsg{Path: path, Err: err}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return ConfigReloadFailedMsg{Path: path, Err: err}
	}
	utils.LogDebug(fmt.Sprintf("watcher: reloaded %s", path))
	return ConfigReloadedMsg{Config: cfg, Path: path}
}
