package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/domain"
	"docqa/internal/logging"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var question string
	cmd := &cobra.Command{
		Use:   "ask --question <text> [files...]",
		Short: "Answer one question from local files",
		Long: `Ingest .txt and .md files, answer one question from them and print the
cited sources.

Examples:
  docqa ask --question "How do I rotate the keys?" runbooks/*.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(question) == "" {
				return fmt.Errorf("--question is required")
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := logging.NewWithWriter(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			svc, err := buildService(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			const session = "cli"
			if _, err := svc.IngestFiles(cmd.Context(), session, args); err != nil {
				return err
			}
			ans, err := svc.Answer(cmd.Context(), question, session)
			if err != nil {
				return err
			}
			printAnswer(cmd.OutOrStdout(), ans)
			return nil
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "question to answer")
	return cmd
}

func printAnswer(w io.Writer, ans domain.Answer) {
	fmt.Fprintln(w, ans.Text)
	if len(ans.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, src := range ans.Sources {
		fmt.Fprintf(w, "  [%d] %s#%d (%.2f)\n", i+1, src.Filename, src.ChunkIndex, src.Similarity)
	}
}
