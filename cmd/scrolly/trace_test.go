package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/kingrea/scrolly/internal/config"
	"github.com/kingrea/scrolly/internal/scroller"
)

func newTraceConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	style := "notty"
	if err := cfg.Apply(config.Overrides{Style: &style}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return cfg
}

func TestTraceSweepsEveryStep(t *testing.T) {
	var out bytes.Buffer
	err := runTrace(&out, newTraceConfig(t), traceOptions{width: 80, height: 24, step: 1})
	if err != nil {
		t.Fatalf("runTrace: %v\n%s", err, out.String())
	}
	got := out.String()
	for _, want := range []string{
		"offset    0  active   0",
		"↓ step 0 · show-title",
		"↓ step 1 · show-histogram",
		"↓ step 3 · filter-circles",
		"active   3",
		"final step 3",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("trace output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "↑") {
		t.Fatalf("downward sweep should not replay upward:\n%s", got)
	}
}

func TestTraceReverseReplaysBackToTop(t *testing.T) {
	var out bytes.Buffer
	err := runTrace(&out, newTraceConfig(t), traceOptions{width: 80, height: 24, step: 1000, reverse: true})
	if err != nil {
		t.Fatalf("runTrace: %v", err)
	}
	got := out.String()
	for _, want := range []string{"replayed 3 steps (0 → 3)", "replayed 3 steps (3 → 0)", "↑ step 0 · show-title", "final step 0"} {
		if !strings.Contains(got, want) {
			t.Fatalf("trace output missing %q:\n%s", want, got)
		}
	}
}

func TestTraceRejectsNonPositiveStep(t *testing.T) {
	var out bytes.Buffer
	if err := runTrace(&out, newTraceConfig(t), traceOptions{width: 80, height: 24}); err == nil {
		t.Fatalf("expected error for zero step")
	}
}

func TestTraceCommandHonoursFlags(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"trace", "--dir", dir, "--style", "notty", "--lead-margin", "0", "--step", "4"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "final step 3") {
		t.Fatalf("unexpected trace output:\n%s", out.String())
	}
}

func TestTraceEventsFilter(t *testing.T) {
	events, err := parseEvents([]string{"active"})
	if err != nil {
		t.Fatalf("parseEvents: %v", err)
	}
	var out bytes.Buffer
	err = runTrace(&out, newTraceConfig(t), traceOptions{width: 80, height: 24, step: 1, events: events})
	if err != nil {
		t.Fatalf("runTrace: %v", err)
	}
	got := out.String()
	if strings.Contains(got, "progress") {
		t.Fatalf("progress lines should be filtered out:\n%s", got)
	}
	if !strings.Contains(got, "active   3") {
		t.Fatalf("active lines missing:\n%s", got)
	}
}

func TestParseEventsRejectsUnknown(t *testing.T) {
	if _, err := parseEvents([]string{"active", "scroll"}); err == nil {
		t.Fatalf("expected error for unknown event")
	}
	events, err := parseEvents([]string{" Progress ", ""})
	if err != nil || !events[scroller.EventProgress] || events[scroller.EventActive] {
		t.Fatalf("parseEvents = %v, %v", events, err)
	}
}

func TestLeadMarginFlagDefaultsToResolver(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("lead-margin")
	if flag == nil {
		t.Fatalf("--lead-margin not registered")
	}
	if want := fmt.Sprint(float64(scroller.DefaultLeadMargin)); flag.DefValue != want {
		t.Fatalf("--lead-margin default = %s, want %s", flag.DefValue, want)
	}
}
