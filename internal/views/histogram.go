// internal/views/histogram.go
//
// The histogram counts headline acts per festival. Bars grow toward their
// targets on a critically damped spring each time the view is refreshed.

package views

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/scrolly/internal/festival"
)

const (
	// FrameRate is the histogram animation frame rate.
	FrameRate = 30

	springFrequency = 6.0
	springDamping   = 1.0
	settleEpsilon   = 0.01
	barGlyph        = "█"
)

// Histogram draws a horizontal bar per festival.
type Histogram struct {
	counts  []festival.FestivalCount
	spring  harmonica.Spring
	pos     []float64
	vel     []float64
	visible bool

	XAxisLabel string
	YAxisLabel string
}

// NewHistogram creates a hidden histogram over data.
func NewHistogram(data festival.Dataset) *Histogram {
	h := &Histogram{
		spring:     harmonica.NewSpring(harmonica.FPS(FrameRate), springFrequency, springDamping),
		XAxisLabel: "UK Festival",
		YAxisLabel: "Number of Headlining Acts",
	}
	h.SetData(data)
	return h
}

// SetData replaces the counted dataset. Bars restart from zero.
func (h *Histogram) SetData(data festival.Dataset) {
	h.counts = data.CountByFestival()
	h.pos = make([]float64, len(h.counts))
	h.vel = make([]float64, len(h.counts))
}

// Counts returns the per-festival counts being drawn.
func (h *Histogram) Counts() []festival.FestivalCount { return h.counts }

// Refresh restarts the grow animation.
func (h *Histogram) Refresh() {
	for i := range h.pos {
		h.pos[i] = 0
		h.vel[i] = 0
	}
}

// Show makes the view visible.
func (h *Histogram) Show() { h.visible = true }

// Hide makes the view invisible.
func (h *Histogram) Hide() { h.visible = false }

// Visible reports whether the view is drawn.
func (h *Histogram) Visible() bool { return h.visible }

// Tick advances every bar one frame toward its count.
func (h *Histogram) Tick() {
	for i, c := range h.counts {
		h.pos[i], h.vel[i] = h.spring.Update(h.pos[i], h.vel[i], float64(c.Count))
	}
}

// Settled reports whether every bar has reached its count.
func (h *Histogram) Settled() bool {
	for i, c := range h.counts {
		if math.Abs(h.pos[i]-float64(c.Count)) > settleEpsilon || math.Abs(h.vel[i]) > settleEpsilon {
			return false
		}
	}
	return true
}

// Settle jumps every bar to its count.
func (h *Histogram) Settle() {
	for i, c := range h.counts {
		h.pos[i] = float64(c.Count)
		h.vel[i] = 0
	}
}

// Render draws the bars scaled to width. Hidden views render as "".
func (h *Histogram) Render(width int) string {
	if !h.visible {
		return ""
	}
	labelWidth := 0
	maxCount := 0
	for _, c := range h.counts {
		labelWidth = max(labelWidth, lipgloss.Width(c.Festival))
		maxCount = max(maxCount, c.Count)
	}
	barSpace := max(1, width-labelWidth-6)

	labelStyle := lipgloss.NewStyle().Width(labelWidth).Align(lipgloss.Right)
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(h.YAxisLabel),
		"",
	}
	for i, c := range h.counts {
		length := 0
		if maxCount > 0 {
			length = int(math.Round(math.Max(0, h.pos[i]) / float64(maxCount) * float64(barSpace)))
		}
		bar := barStyle.Render(strings.Repeat(barGlyph, min(length, barSpace)))
		lines = append(lines, fmt.Sprintf("%s │%s %d", labelStyle.Render(c.Festival), bar, c.Count))
	}
	lines = append(lines, "", lipgloss.NewStyle().Faint(true).Render(h.XAxisLabel))
	return strings.Join(lines, "\n")
}
