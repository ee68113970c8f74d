package main

import (
	"fmt"
	"path/filepath"

	"github.com/kingrea/scrolly/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .scrolly/ with a default config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		projectDir, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if err := config.InitDir(projectDir); err != nil {
			return fmt.Errorf("init %s: %w", projectDir, err)
		}
		cfg, err := config.NewConfig(projectDir)
		if err != nil {
			return err
		}
		printBanner(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", cfg.ProjectConfigPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
