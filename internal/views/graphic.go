// internal/views/graphic.go
//
// Graphic is the right-hand panel. It owns the circles and histogram views
// and exposes the named transitions a story's steps are bound to. Every
// transition sets the state of both views outright, so it is correct whether
// it runs while scrolling down or back up.

package views

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/scrolly/internal/festival"
)

// Transition names available to story steps.
const (
	ActionShowTitle     = "show-title"
	ActionShowHistogram = "show-histogram"
	ActionShowSummary   = "show-summary"
	ActionFilterCircles = "filter-circles"
)

// ErrNoData is returned by a transition that has nothing to draw.
var ErrNoData = errors.New("views: no headliners to draw")

// Graphic composes the views and the active step's progress bar.
type Graphic struct {
	data      festival.Dataset
	circles   *Circles
	histogram *Histogram
	bar       progress.Model

	progress float64
	last     string
	still    bool
}

// NewGraphic builds the panel in its opening state: every headliner as a
// circle, histogram hidden.
func NewGraphic(data festival.Dataset, scale ColourScale) *Graphic {
	return &Graphic{
		data:      data,
		circles:   NewCircles(data, scale),
		histogram: NewHistogram(data.Since(festival.HistogramSince)),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Circles returns the circles view.
func (g *Graphic) Circles() *Circles { return g.circles }

// Histogram returns the histogram view.
func (g *Graphic) Histogram() *Histogram { return g.histogram }

// Actions maps transition names to their procedures.
func (g *Graphic) Actions() map[string]func() error {
	return map[string]func() error{
		ActionShowTitle:     g.ShowTitle,
		ActionShowHistogram: g.ShowHistogram,
		ActionShowSummary:   g.ShowSummary,
		ActionFilterCircles: g.FilterCircles,
	}
}

// ActionNames lists the transition names in sorted order.
func (g *Graphic) ActionNames() []string {
	names := make([]string, 0, 4)
	for name := range g.Actions() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ShowTitle restores the opening state: every headliner as a circle and the
// histogram hidden.
func (g *Graphic) ShowTitle() error {
	g.circles.Show()
	g.circles.SetData(g.data)
	g.histogram.Hide()
	g.last = ActionShowTitle
	return nil
}

// ShowHistogram hides the circles and redraws the histogram.
func (g *Graphic) ShowHistogram() error {
	if len(g.histogram.Counts()) == 0 {
		return fmt.Errorf("%w since %d", ErrNoData, festival.HistogramSince)
	}
	g.circles.Hide()
	g.histogram.Show()
	g.histogram.Refresh()
	if g.still {
		g.histogram.Settle()
	}
	g.last = ActionShowHistogram
	return nil
}

// ShowSummary shows every headliner as a circle and hides the histogram.
func (g *Graphic) ShowSummary() error {
	g.circles.Show()
	g.histogram.Hide()
	g.circles.SetData(g.data)
	g.last = ActionShowSummary
	return nil
}

// FilterCircles keeps only female and mixed line-ups in the circles view.
func (g *Graphic) FilterCircles() error {
	filtered := g.data.NotMale()
	if len(filtered) == 0 {
		return fmt.Errorf("%w: no female or mixed line-ups", ErrNoData)
	}
	g.circles.SetData(filtered)
	g.last = ActionFilterCircles
	return nil
}

// SetReducedMotion makes the histogram jump straight to its counts instead
// of growing on springs.
func (g *Graphic) SetReducedMotion(on bool) { g.still = on }

// Inspect returns the headliner drawn at column x, row y of a panel
// rendered at width. Only the circles view has per-act glyphs.
func (g *Graphic) Inspect(x, y, width int) (festival.Headliner, bool) {
	return g.circles.At(x, y, max(width, 10))
}

// LastAction returns the most recent transition that ran.
func (g *Graphic) LastAction() string { return g.last }

// SetProgress records the active step's progress. Non-finite values, which
// zero-height steps produce, are kept but drawn as an empty bar.
func (g *Graphic) SetProgress(p float64) error {
	g.progress = p
	return nil
}

// Progress returns the last recorded progress.
func (g *Graphic) Progress() float64 { return g.progress }

// Animating reports whether the histogram still needs frames.
func (g *Graphic) Animating() bool {
	return g.histogram.Visible() && !g.histogram.Settled()
}

// Tick advances any running animation by one frame.
func (g *Graphic) Tick() {
	g.histogram.Tick()
}

// Render draws the visible views and the progress bar into width columns.
func (g *Graphic) Render(width int) string {
	width = max(width, 10)
	var parts []string
	if s := g.circles.Render(width); s != "" {
		parts = append(parts, s)
	}
	if s := g.histogram.Render(width); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		parts = append(parts, lipgloss.NewStyle().Faint(true).Render("…"))
	}
	g.bar.Width = width
	parts = append(parts, "", g.bar.ViewAs(clampUnit(g.progress)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func clampUnit(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return math.Min(1, math.Max(0, p))
}
