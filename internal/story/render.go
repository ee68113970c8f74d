package story

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// DefaultStyle lets glamour pick dark or light from the terminal.
const DefaultStyle = "auto"

// Renderer turns section markdown into terminal text at a given width.
// glamour renderers are fixed-width, so one is built per width and reused.
type Renderer struct {
	style string
	width int
	term  *glamour.TermRenderer
}

// NewRenderer creates a renderer using a glamour standard style
// (auto, dark, light, notty, ascii, ...).
func NewRenderer(style string) *Renderer {
	style = strings.TrimSpace(style)
	if style == "" {
		style = DefaultStyle
	}
	return &Renderer{style: style}
}

// Style returns the glamour style name.
func (r *Renderer) Style() string {
	return r.style
}

// Rendered is a story laid out at one width.
type Rendered struct {
	Width    int
	Sections []string
	Heights  []int
}

// Render lays out every section of s at width columns.
func (r *Renderer) Render(s *Story, width int) (Rendered, error) {
	if err := r.ensure(width); err != nil {
		return Rendered{}, err
	}
	out := Rendered{
		Width:    width,
		Sections: make([]string, len(s.Steps)),
		Heights:  make([]int, len(s.Steps)),
	}
	for i, section := range s.Steps {
		text, err := r.term.Render(section.Body)
		if err != nil {
			return Rendered{}, fmt.Errorf("story: render steps[%d]: %w", i, err)
		}
		text = strings.Trim(text, "\n")
		out.Sections[i] = text
		out.Heights[i] = lipgloss.Height(text)
	}
	return out, nil
}

func (r *Renderer) ensure(width int) error {
	width = max(width, 10)
	if r.term != nil && r.width == width {
		return nil
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("story: glamour style %q: %w", r.style, err)
	}
	r.term = term
	r.width = width
	return nil
}
