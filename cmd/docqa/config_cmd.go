package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docqa/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var (
		path  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write the default configuration as YAML.

Without --path the file goes to ~/.config/docqa/config.yaml. An existing file
is kept unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := path
			if target == "" {
				p, err := config.DefaultUserConfigPath()
				if err != nil {
					return err
				}
				target = p
			}
			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}
			if err := config.Save(target, config.Default()); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			cmd.Printf("Wrote default configuration to %s\n", target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "destination file")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
