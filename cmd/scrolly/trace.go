package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/kingrea/scrolly/internal/config"
	"github.com/kingrea/scrolly/internal/festival"
	"github.com/kingrea/scrolly/internal/presenter"
	"github.com/kingrea/scrolly/internal/scroller"
	"github.com/kingrea/scrolly/internal/stepper"
	"github.com/kingrea/scrolly/internal/story"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Sweep the story top to bottom and print every notification",
	Long: `trace lays the story out at a fixed terminal size and scrolls from the top
to the bottom in fixed increments, printing each active and progress
notification and each step the engine replays. No terminal is needed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := traceOptions{}
		opts.width, _ = cmd.Flags().GetInt("width")
		opts.height, _ = cmd.Flags().GetInt("height")
		opts.step, _ = cmd.Flags().GetInt("step")
		opts.reverse, _ = cmd.Flags().GetBool("reverse")
		names, _ := cmd.Flags().GetStringSlice("events")
		if opts.events, err = parseEvents(names); err != nil {
			return err
		}
		return runTrace(cmd.OutOrStdout(), cfg, opts)
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().Int("width", presenter.DefaultWidth, "Narrative column width")
	traceCmd.Flags().Int("height", presenter.DefaultHeight, "Viewport height")
	traceCmd.Flags().Int("step", 1, "Lines scrolled per evaluation")
	traceCmd.Flags().Bool("reverse", false, "Scroll back up to the top after reaching the bottom")
	traceCmd.Flags().StringSlice("events", []string{"active", "progress"}, "Notifications to print: active, progress")
}

type traceOptions struct {
	width   int
	height  int
	step    int
	reverse bool
	// events filters printed notifications; nil prints all of them.
	events map[scroller.Event]bool
}

func parseEvents(names []string) (map[scroller.Event]bool, error) {
	out := make(map[scroller.Event]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		ev, err := scroller.ParseEvent(name)
		if err != nil {
			return nil, fmt.Errorf("--events: %w", err)
		}
		out[ev] = true
	}
	return out, nil
}

// traceObserver prints each step the engine runs.
type traceObserver struct {
	w io.Writer
}

func (o traceObserver) Activated(step stepper.Step, direction int) {
	arrow := "↓"
	if direction < 0 {
		arrow = "↑"
	}
	fmt.Fprintf(o.w, "  %s step %d · %s\n", arrow, step.Index, step.Name)
}

func (o traceObserver) Replayed(from, to, count int) {
	if count > 1 {
		fmt.Fprintf(o.w, "  replayed %d steps (%d → %d)\n", count, from, to)
	}
}

func runTrace(w io.Writer, cfg *config.Config, opts traceOptions) error {
	if opts.step <= 0 {
		return fmt.Errorf("--step must be positive, got %d", opts.step)
	}
	s, err := story.Load(cfg.StoryPath())
	if err != nil {
		return err
	}
	data, err := festival.Load(cfg.DatasetPath())
	if err != nil {
		return err
	}

	offset := 0
	p, err := presenter.New(presenter.Options{
		Story:         s,
		Dataset:       data,
		LeadMargin:    cfg.LeadMargin(),
		Style:         cfg.Style(),
		Width:         opts.width,
		Height:        opts.height,
		ReducedMotion: true,
		Observers:     []stepper.Observer{traceObserver{w: w}},
		OnNotify: func(n scroller.Notification) {
			if opts.events != nil && !opts.events[n.Event] {
				return
			}
			switch n.Event {
			case scroller.EventActive:
				fmt.Fprintf(w, "offset %4d  active   %d\n", offset, n.Index)
			case scroller.EventProgress:
				fmt.Fprintf(w, "offset %4d  progress %d %.4f\n", offset, n.Index, n.Progress)
			}
		},
	})
	if err != nil {
		return err
	}
	defer p.Close()

	failures := 0
	visit := func(y int) {
		offset = min(max(y, 0), p.MaxScroll())
		if _, err := p.ScrollTo(y); err != nil {
			failures++
			fmt.Fprintf(w, "offset %4d  error    %v\n", offset, err)
		}
	}
	for y := opts.step; y < p.MaxScroll()+opts.step; y += opts.step {
		visit(y)
	}
	if opts.reverse {
		for y := p.MaxScroll() - opts.step; y > -opts.step; y -= opts.step {
			visit(y)
		}
	}

	fmt.Fprintf(w, "done: %d steps, max offset %d, final step %d\n", p.Len(), p.MaxScroll(), p.Active())
	if failures > 0 {
		return fmt.Errorf("%d evaluations failed", failures)
	}
	return nil
}
