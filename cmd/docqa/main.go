// Package main implements the docqa binary: an HTTP service, a terminal UI
// and one-shot question answering over local documents.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docqa/internal/config"
)

var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "docqa",
		Short: "Document-grounded question answering",
		Long: `docqa indexes text documents per session and answers questions from them.

Configuration is read from --config, ./config.yaml or ~/.config/docqa/config.yaml,
and DOCQA_* environment variables override file values
(DOCQA_SEARCH_THRESHOLD -> search.threshold).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newAskCmd(opts))
	root.AddCommand(newConfigCmd())
	return root
}

// load resolves the configuration the same way for every subcommand.
func (o *rootOptions) load() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if o.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(o.configPath)
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
		if err := cfg.Logging.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
