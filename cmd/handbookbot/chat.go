package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"handbookbot/internal/client"
	"handbookbot/internal/tui"
)

var chatAPIURL string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the terminal chat against a running handbook API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		apiURL := chatAPIURL
		if apiURL == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			apiURL = cfg.Client.APIURL
		}
		m := tui.New(cmd.Context(), client.New(apiURL, 0))
		_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatAPIURL, "api-url", "", "base URL of the handbook API (overrides client.api_url)")
	rootCmd.AddCommand(chatCmd)
}
