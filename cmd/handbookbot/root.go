package main

import (
	"github.com/spf13/cobra"

	"handbookbot/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "handbookbot",
	Short: "Answer employee handbook questions from indexed handbook passages",
	Long: `handbookbot answers questions about the employee handbook. It embeds the
question, retrieves the closest handbook passages from a vector index and asks
a language model to answer from them, citing its sources.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"path to a YAML or TOML config file (default ./handbookbot.yaml, then ~/.config/handbookbot/config.yaml)")
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(cfgPath)
}
