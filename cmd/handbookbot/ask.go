package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"handbookbot/internal/domain"
	"handbookbot/internal/logging"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question in-process and print the answer with its sources",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		svc, _, err := buildService(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		answer, err := svc.Answer(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if askJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(answer)
		}
		printAnswer(cmd.OutOrStdout(), answer)
		return nil
	},
}

func printAnswer(w io.Writer, a *domain.Answer) {
	fmt.Fprintln(w, a.Answer)
	if len(a.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\nConfidence: %d%%\n", a.Confidence)
	fmt.Fprintf(w, "Sources (%d handbook sections found):\n", len(a.Sources))
	for _, s := range a.Sources {
		fmt.Fprintf(w, "  [%d] %d%% relevant\n      %s\n", s.ID+1, s.Relevance, s.Text)
	}
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as the API's JSON payload")
	rootCmd.AddCommand(askCmd)
}
