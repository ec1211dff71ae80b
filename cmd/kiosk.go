package cmd

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	xterm "golang.org/x/term"

	"github.com/tibbisekreter/cli/cmd/config"
	"github.com/tibbisekreter/cli/cmd/utils"
	"github.com/tibbisekreter/cli/internal/chat"
	"github.com/tibbisekreter/cli/internal/sound"
)

var noWatch bool

var kioskCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Run the full-screen kiosk with the chat popup",
	Long: `Run the kiosk page. The chat launcher sits in the bottom-right corner.

Keys:
  ctrl+o, f2   open or close the chat
  enter        send the message
  ctrl+y       copy the last reply
  ctrl+c, esc  quit

The config file is watched; edits to the server URL, reveal speed and kiosk
texts apply without a restart.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !xterm.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("kiosk needs an interactive terminal; use 'tibbi chat' for scripts")
		}
		cfg, path, err := loadRuntimeConfig()
		if err != nil {
			return err
		}
		return runKiosk(cfg, path)
	},
}

func runKiosk(cfg *config.Config, path string) error {
	client := NewChatClient(cfg.Server.URL, utils.GetHTTPClient())
	player := sound.New(cfg.Notify.Enabled, cfg.Notify.SoundFile, utils.LogDebug)
	session := chat.NewSession(client,
		chat.WithNotifier(player),
		chat.WithRevealInterval(cfg.RevealInterval()),
		chat.WithErrorText(cfg.Chat.ErrorText),
		chat.WithLogger(utils.LogDebug),
	)
	defer session.Close()
	utils.LogDebug(fmt.Sprintf("kiosk: session %s against %s", client.SessionID, client.BaseURL()))

	m := newKioskModel(cfg, client, session, serverURLFromFlag())
	if w, h, err := term.GetSize(os.Stdout.Fd()); err == nil {
		m.width, m.height = w, h
		m.resize()
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	utils.SetTUIMode(p)
	defer utils.ClearTUIMode()

	if !noWatch {
		stop, err := StartConfigWatcher(path, utils.GetEffectiveCWD(), p.Send)
		if err != nil {
			utils.LogDebug(fmt.Sprintf("kiosk: config watcher disabled: %v", err))
		} else {
			defer stop()
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running kiosk: %w", err)
	}
	return nil
}

func init() {
	kioskCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the config file when it changes")
	rootCmd.AddCommand(kioskCmd)
}
