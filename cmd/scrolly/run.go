package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kingrea/scrolly/internal/config"
	"github.com/kingrea/scrolly/internal/logbook"
	"github.com/kingrea/scrolly/internal/logging"
	"github.com/kingrea/scrolly/internal/metrics"
	"github.com/kingrea/scrolly/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the story in the terminal (default)",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().String("metrics-addr", "", "Serve prometheus metrics on host:port (overrides config)")
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal; use `scrolly trace` for headless output")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.InitDir(cfg.ProjectDir); err != nil {
		return fmt.Errorf("init %s: %w", cfg.ScrollyProjectDir, err)
	}

	logger, err := logging.New(cfg.ProjectDir)
	if err != nil {
		return err
	}
	defer logger.Close()

	lb, err := logbook.New(cfg.JournalPath())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	recorder := metrics.New()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if addr := cfg.MetricsAddr(); addr != "" {
		go func() {
			if err := recorder.Serve(ctx, addr); err != nil {
				logger.Printf("metrics server: %v", err)
				lb.Warn("metrics server stopped: %v", err)
			}
		}()
		logger.Printf("serving metrics on %s/metrics", addr)
	}

	app, err := tui.NewApp(cfg,
		tui.WithLogbook(lb),
		tui.WithLogger(logger),
		tui.WithRecorder(recorder),
	)
	if err != nil {
		logger.Printf("start: %v", err)
		return err
	}
	defer app.Close()

	p := tea.NewProgram(app,
		tea.WithAltScreen(),      // Use alternate screen buffer (like vim does)
		tea.WithMouseAllMotion(), // Wheel scrolls, hover inspects the graphic
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		logger.Printf("tui: %v", err)
		return fmt.Errorf("run TUI: %w", err)
	}
	lb.Info("Session closed")
	return nil
}
