package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docqa/internal/domain"
	"docqa/internal/logging"
	"docqa/internal/tui"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	var (
		sessionID string
		logFile   string
	)
	cmd := &cobra.Command{
		Use:   "tui [files...]",
		Short: "Search documents interactively",
		Long: `Ingest .txt and .md files (globs allowed) and open an interactive search view.

Enter searches, Ctrl+A answers the query from the best matching chunks,
Up/Down browse results and Ctrl+C quits.

Examples:
  docqa tui notes/*.md
  docqa tui --log-file docqa.log handbook.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			// the terminal belongs to the TUI, so logs go to a file or nowhere
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				w = f
			}
			logger, err := logging.NewWithWriter(cfg.Logging, w)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			svc, err := buildService(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			if _, err := svc.IngestFiles(cmd.Context(), sessionID, args); err != nil {
				return err
			}
			summary := sessionSummary(svc.ListDocuments(sessionID))

			p := tea.NewProgram(tui.New(svc, sessionID, summary), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "cli", "session to ingest into")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	return cmd
}

// sessionSummary joins per-document summaries into the TUI header line.
func sessionSummary(docs []*domain.Document) string {
	var parts []string
	for _, d := range docs {
		if d.Metadata.Summary == "" {
			continue
		}
		parts = append(parts, d.Metadata.Filename+": "+d.Metadata.Summary)
	}
	if len(parts) == 0 {
		return "No summary available."
	}
	return strings.Join(parts, " | ")
}
