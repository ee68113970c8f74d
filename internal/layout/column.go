// internal/layout/column.go
//
// Column is the terminal's stand-in for a scrolling document. Narrative
// sections are stacked top to bottom in a single column of text lines; the
// viewport shows Height lines starting at the scroll offset. Positions are
// in lines, and every Top() is relative to the top of the viewport, the way
// a browser reports bounding rectangles.

package layout

import (
	"github.com/kingrea/scrolly/internal/scroller"
)

// Column lays out sections and tracks the scroll offset.
type Column struct {
	heights        []int
	starts         []int
	spacer         int
	padTop         int
	padBottom      int
	viewportHeight int
	scroll         int

	nextID    int
	listeners map[int]listener
}

type listener struct {
	onScroll func()
	onResize func()
}

// Option customizes a Column.
type Option func(*Column)

// WithSpacer sets the number of blank lines between sections.
func WithSpacer(lines int) Option {
	return func(c *Column) {
		c.spacer = max(0, lines)
	}
}

// WithPadding sets blank lines above the first and below the last section.
func WithPadding(top, bottom int) Option {
	return func(c *Column) {
		c.padTop = max(0, top)
		c.padBottom = max(0, bottom)
	}
}

// NewColumn creates a column for sections of the given heights.
func NewColumn(heights []int, opts ...Option) *Column {
	c := &Column{
		spacer:    1,
		listeners: map[int]listener{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.setHeights(heights)
	return c
}

// Body is the column itself; its top is the first line of the content.
func (c *Column) Body() scroller.Element {
	return element{c: c, line: func() int { return 0 }}
}

// ScrollY returns the scroll offset in lines.
func (c *Column) ScrollY() float64 {
	return float64(c.scroll)
}

// Listen registers scroll and resize callbacks.
func (c *Column) Listen(onScroll, onResize func()) func() {
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener{onScroll: onScroll, onResize: onResize}
	return func() {
		delete(c.listeners, id)
	}
}

// Steps returns one element per section, in order.
func (c *Column) Steps() []scroller.Element {
	out := make([]scroller.Element, len(c.heights))
	for i := range c.heights {
		idx := i
		out[i] = element{c: c, line: func() int { return c.SectionStart(idx) }}
	}
	return out
}

// Len returns the number of sections.
func (c *Column) Len() int {
	return len(c.heights)
}

// SectionStart returns the content line on which section i begins.
func (c *Column) SectionStart(i int) int {
	if i < 0 || i >= len(c.starts) {
		return 0
	}
	return c.starts[i]
}

// Height returns the line height of section i.
func (c *Column) Height(i int) int {
	if i < 0 || i >= len(c.heights) {
		return 0
	}
	return c.heights[i]
}

// Spacer returns the blank lines between sections.
func (c *Column) Spacer() int {
	return c.spacer
}

// PadTop returns the blank lines above the first section.
func (c *Column) PadTop() int {
	return c.padTop
}

// TotalLines is the full content height including padding.
func (c *Column) TotalLines() int {
	total := c.padTop + c.padBottom
	for i, h := range c.heights {
		total += h
		if i > 0 {
			total += c.spacer
		}
	}
	return total
}

// MaxScroll is the largest offset that still fills the viewport.
func (c *Column) MaxScroll() int {
	return max(0, c.TotalLines()-c.viewportHeight)
}

// ViewportHeight returns the visible line count.
func (c *Column) ViewportHeight() int {
	return c.viewportHeight
}

// Offset returns the scroll offset in lines.
func (c *Column) Offset() int {
	return c.scroll
}

// SetHeights replaces the section heights after a reflow and fires resize listeners.
func (c *Column) SetHeights(heights []int) {
	c.setHeights(heights)
	c.scroll = min(c.scroll, c.MaxScroll())
	c.fireResize()
}

// SetViewportHeight changes the visible line count and fires resize listeners.
func (c *Column) SetViewportHeight(lines int) {
	c.viewportHeight = max(0, lines)
	c.scroll = min(c.scroll, c.MaxScroll())
	c.fireResize()
}

// SetPadding changes the blank lines around the sections and fires resize listeners.
func (c *Column) SetPadding(top, bottom int) {
	c.padTop = max(0, top)
	c.padBottom = max(0, bottom)
	c.setHeights(c.heights)
	c.scroll = min(c.scroll, c.MaxScroll())
	c.fireResize()
}

// Reflow applies new section heights, viewport height and bottom padding in
// one step and fires resize listeners once.
func (c *Column) Reflow(heights []int, viewportHeight, padBottom int) {
	c.viewportHeight = max(0, viewportHeight)
	c.padBottom = max(0, padBottom)
	c.setHeights(heights)
	c.scroll = min(c.scroll, c.MaxScroll())
	c.fireResize()
}

// ScrollTo moves to line y, clamped to [0, MaxScroll]. Scroll listeners fire
// only when the offset changes. It reports whether it did.
func (c *Column) ScrollTo(y int) bool {
	y = min(max(0, y), c.MaxScroll())
	if y == c.scroll {
		return false
	}
	c.scroll = y
	c.fireScroll()
	return true
}

// ScrollBy moves the offset by delta lines.
func (c *Column) ScrollBy(delta int) bool {
	return c.ScrollTo(c.scroll + delta)
}

// SectionAt returns the section covering content line y, or -1 for padding.
func (c *Column) SectionAt(y int) int {
	for i := len(c.starts) - 1; i >= 0; i-- {
		if y >= c.starts[i] {
			if y < c.starts[i]+c.heights[i] {
				return i
			}
			return -1
		}
	}
	return -1
}

func (c *Column) setHeights(heights []int) {
	c.heights = append(c.heights[:0:0], heights...)
	c.starts = make([]int, len(c.heights))
	line := c.padTop
	for i, h := range c.heights {
		if h < 0 {
			c.heights[i] = 0
			h = 0
		}
		if i > 0 {
			line += c.spacer
		}
		c.starts[i] = line
		line += h
	}
}

func (c *Column) fireScroll() {
	for _, id := range c.listenerIDs() {
		if l, ok := c.listeners[id]; ok && l.onScroll != nil {
			l.onScroll()
		}
	}
}

func (c *Column) fireResize() {
	for _, id := range c.listenerIDs() {
		if l, ok := c.listeners[id]; ok && l.onResize != nil {
			l.onResize()
		}
	}
}

// listenerIDs returns registration order so listeners fire deterministically.
func (c *Column) listenerIDs() []int {
	ids := make([]int, 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if _, ok := c.listeners[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

type element struct {
	c    *Column
	line func() int
}

func (e element) Top() float64 {
	return float64(e.line() - e.c.scroll)
}
