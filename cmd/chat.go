package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tibbisekreter/cli/cmd/utils"
	"github.com/tibbisekreter/cli/internal/chat"
)

var (
	chatInputFile string
	dryRun        bool
)

var chatCmd = &cobra.Command{
	Use:   `chat "prompt"`,
	Short: "Send one question to the assistant and print the reply",
	Long: `Send a single prompt to the chat backend and print its reply.

Examples:
  tibbi chat "Poliklinikler kaçta açılıyor?"
  tibbi chat -f ./soru.txt
  tibbi chat --dry-run "Kan alma nerede?"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if chatInputFile != "" && len(args) > 0 {
			return errors.New("specify either --file or an inline prompt, not both")
		}
		if chatInputFile == "" && len(args) != 1 {
			return errors.New("provide a prompt or --file")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, err := resolveChatPrompt(args)
		if err != nil {
			return err
		}

		cfg, _, err := loadRuntimeConfig()
		if err != nil {
			return err
		}
		client := NewChatClient(cfg.Server.URL, utils.GetHTTPClient())

		if dryRun {
			curl, err := client.BuildCurlCommand(prompt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), curl)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		reply, err := runOneShot(ctx, client, prompt)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

func resolveChatPrompt(args []string) (string, error) {
	var prompt string
	if chatInputFile != "" {
		data, err := os.ReadFile(chatInputFile)
		if err != nil {
			return "", fmt.Errorf("error reading file '%s': %w", chatInputFile, err)
		}
		prompt = string(data)
	} else if len(args) > 0 {
		prompt = args[0]
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}
	return prompt, nil
}

// runOneShot sends prompt once. Failures are logged before being returned
// so the debug log keeps the backend's own message.
func runOneShot(ctx context.Context, client chat.Client, prompt string) (string, error) {
	reply, err := client.Send(ctx, prompt)
	if err != nil {
		utils.LogDebug(fmt.Sprintf("chat: %v", err))
		return "", err
	}
	return reply, nil
}

func init() {
	chatCmd.Flags().StringVarP(&chatInputFile, "file", "f", "", "Read the prompt from a file")
	chatCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the equivalent curl command instead of sending")
	rootCmd.AddCommand(chatCmd)
}
