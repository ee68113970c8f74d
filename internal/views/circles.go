// internal/views/circles.go
//
// The circles view draws one dot per headline act, coloured by the line-up's
// gender. It is the terminal version of a packed-circle chart.

package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/scrolly/internal/festival"
)

const (
	circleGlyph = "●"
	// cellWidth is a glyph plus its trailing space.
	cellWidth = 2
	// dotsTop is the first dot row, below the header and a blank line.
	dotsTop = 2
)

// ColourScale maps a gender code to a colour.
type ColourScale map[string]lipgloss.Color

// DefaultColourScale matches the legend shown under the circles.
func DefaultColourScale() ColourScale {
	return ColourScale{
		festival.GenderMale:   lipgloss.Color("#5B8DEF"),
		festival.GenderFemale: lipgloss.Color("#FF6B6B"),
		festival.GenderMixed:  lipgloss.Color("#F4B942"),
	}
}

// Colour returns the colour for gender, grey when unknown.
func (s ColourScale) Colour(gender string) lipgloss.Color {
	if c, ok := s[gender]; ok {
		return c
	}
	return lipgloss.Color("#777777")
}

// Circles renders a dataset as coloured dots.
type Circles struct {
	data    festival.Dataset
	scale   ColourScale
	visible bool
}

// NewCircles creates a visible circles view.
func NewCircles(data festival.Dataset, scale ColourScale) *Circles {
	if scale == nil {
		scale = DefaultColourScale()
	}
	return &Circles{data: data, scale: scale, visible: true}
}

// SetData swaps the dataset drawn by the view.
func (c *Circles) SetData(data festival.Dataset) { c.data = data }

// Data returns the dataset currently drawn.
func (c *Circles) Data() festival.Dataset { return c.data }

// Show makes the view visible.
func (c *Circles) Show() { c.visible = true }

// Hide makes the view invisible.
func (c *Circles) Hide() { c.visible = false }

// Visible reports whether the view is drawn.
func (c *Circles) Visible() bool { return c.visible }

// Render draws the dots wrapped to width, followed by a legend. Hidden views
// render as an empty string.
func (c *Circles) Render(width int) string {
	if !c.visible {
		return ""
	}
	perRow := c.perRow(width)

	var rows []string
	var row strings.Builder
	for i, h := range c.data {
		if i > 0 && i%perRow == 0 {
			rows = append(rows, row.String())
			row.Reset()
		}
		row.WriteString(lipgloss.NewStyle().Foreground(c.scale.Colour(h.Gender)).Render(circleGlyph))
		row.WriteByte(' ')
	}
	if row.Len() > 0 {
		rows = append(rows, row.String())
	}

	first, last := c.data.Years()
	header := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("%d headline acts · %d–%d", len(c.data), first, last))
	if len(c.data) == 0 {
		header = lipgloss.NewStyle().Bold(true).Render("No headline acts")
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", strings.Join(rows, "\n"), "", c.legend())
}

func (c *Circles) perRow(width int) int {
	return max(1, max(width, 4)/cellWidth)
}

// At maps a cell of the rendered view to the headliner drawn there.
func (c *Circles) At(x, y, width int) (festival.Headliner, bool) {
	if !c.visible || x < 0 || y < dotsTop {
		return festival.Headliner{}, false
	}
	perRow := c.perRow(width)
	col := x / cellWidth
	if col >= perRow {
		return festival.Headliner{}, false
	}
	i := (y-dotsTop)*perRow + col
	if i >= len(c.data) {
		return festival.Headliner{}, false
	}
	return c.data[i], true
}

func (c *Circles) legend() string {
	entry := func(gender, label string) string {
		dot := lipgloss.NewStyle().Foreground(c.scale.Colour(gender)).Render(circleGlyph)
		return dot + " " + label
	}
	return strings.Join([]string{
		entry(festival.GenderMale, "male"),
		entry(festival.GenderFemale, "female"),
		entry(festival.GenderMixed, "mixed"),
	}, "   ")
}
