package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kingrea/scrolly/internal/config"
	"github.com/kingrea/scrolly/internal/scroller"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scrolly",
	Short: "scrolly is a scrollytelling reader for the terminal",
	Long: `scrolly lays a story out as a scrolling column of sections. As you scroll,
the section crossing the trigger line becomes active and the graphic beside it
plays that section's transition, replaying any sections you skipped.`,
	SilenceUsage: true,
	RunE:         runRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Project directory containing .scrolly/")
	flags.String("story", "", "Story YAML file (overrides config)")
	flags.String("dataset", "", "Headliner dataset YAML file (overrides config)")
	flags.Float64("lead-margin", scroller.DefaultLeadMargin, "Lines subtracted from the scroll offset before resolving (overrides config)")
	flags.String("style", "", "glamour style: auto, dark, light, notty (overrides config)")
	flags.Bool("reduced-motion", false, "Draw the histogram without animating it (overrides config)")
}

// loadConfig reads .scrolly/config.yaml under --dir and applies any flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("dir")
	projectDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve --dir: %w", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}

	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("story") {
		v, _ := flags.GetString("story")
		o.Story = &v
	}
	if flags.Changed("dataset") {
		v, _ := flags.GetString("dataset")
		o.Dataset = &v
	}
	if flags.Changed("lead-margin") {
		v, _ := flags.GetFloat64("lead-margin")
		o.LeadMargin = &v
	}
	if flags.Changed("style") {
		v, _ := flags.GetString("style")
		o.Style = &v
	}
	if flags.Changed("reduced-motion") {
		v, _ := flags.GetBool("reduced-motion")
		o.ReducedMotion = &v
	}
	if flags.Lookup("metrics-addr") != nil && flags.Changed("metrics-addr") {
		v, _ := flags.GetString("metrics-addr")
		o.MetricsAddr = &v
	}
	if err := cfg.Apply(o); err != nil {
		return nil, err
	}
	return cfg, nil
}
