package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tibbisekreter/cli/cmd/config"
	"github.com/tibbisekreter/cli/cmd/utils"
)

var (
	debug      bool
	serverURL  string
	configPath string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "tibbi",
	Short: "Tıbbi Sekreter - hospital information kiosk",
	Long: `tibbi runs the hospital information kiosk: a full-screen terminal page
with a chat launcher that opens a conversation with the assistant backend.

Getting started:
  # Open the kiosk against the local backend
  tibbi kiosk

  # Ask a single question and print the reply
  tibbi chat "Kan alma birimi nerede?"

  # Show this week's question statistics
  tibbi stats weekly`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.OverrideCwd = overrideCwd
		enable := debug || os.Getenv("DEBUG") != ""
		if enable || logFile != "" {
			if err := utils.InitDebugLogger(logFile, enable); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not open debug log: %v\n", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.CloseDebugLogger()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var overrideCwd string

// Execute runs the root command. It is called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Chat backend URL (default: http://localhost:5000)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to tibbi.yaml/.toml/.json (default: search cwd, then ~/.tibbi)")
	rootCmd.PersistentFlags().StringVar(&overrideCwd, "cwd", "", "Override the working directory used to find the config file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write the debug log here instead of ~/.tibbi/debug.log")
}

// loadRuntimeConfig loads the config and applies command-line overrides,
// which win over both the file and the environment.
func loadRuntimeConfig() (*config.Config, string, error) {
	cfg, path, err := config.Load(configPath)
	if err != nil {
		return nil, path, err
	}
	if err := applyFlagOverrides(cfg); err != nil {
		return nil, path, err
	}
	utils.LogDebug(fmt.Sprintf("config: file=%q server=%s stats=%s", path, cfg.Server.URL, cfg.Stats.URL))
	return cfg, path, nil
}

func applyFlagOverrides(cfg *config.Config) error {
	if strings.TrimSpace(serverURL) == "" {
		return nil
	}
	u, err := utils.NormalizeBaseURL(serverURL)
	if err != nil {
		return fmt.Errorf("--server-url: %w", err)
	}
	cfg.Server.URL = u
	return nil
}

// serverURLFromFlag reports whether --server-url pins the chat backend.
func serverURLFromFlag() bool {
	return strings.TrimSpace(serverURL) != ""
}
