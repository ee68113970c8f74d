// internal/presenter/presenter.go
//
// The presenter is the explicit state object that ties a story to its
// graphic. It owns the column geometry, the scroll resolver and the step
// engine, and injects them into each other at construction. The TUI and the
// headless trace command both drive a Presenter; neither keeps state of its own
// about which step is active.
//
// Flow:
// 1. New renders the story, builds the column and registers one step per section
// 2. Reflow re-renders at a new size; the column fires resize
// 3. ScrollTo moves the column; the column fires scroll
// 4. The resolver turns both into active/progress notifications for the engine

package presenter

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/scrolly/internal/festival"
	"github.com/kingrea/scrolly/internal/layout"
	"github.com/kingrea/scrolly/internal/metrics"
	"github.com/kingrea/scrolly/internal/scroller"
	"github.com/kingrea/scrolly/internal/stepper"
	"github.com/kingrea/scrolly/internal/story"
	"github.com/kingrea/scrolly/internal/views"
)

const (
	// DefaultWidth and DefaultHeight size the first layout pass before the
	// terminal reports its real size.
	DefaultWidth  = 80
	DefaultHeight = 24

	sectionSpacer = 2
	gutterWidth   = 2
)

// Options configures a Presenter.
type Options struct {
	Story      *story.Story
	Dataset    festival.Dataset
	LeadMargin float64
	Style      string
	Width      int
	Height     int
	// ReducedMotion skips the histogram grow animation.
	ReducedMotion bool
	// Observers are told about every replayed activation.
	Observers []stepper.Observer
	// Metrics counts evaluations and failures. May be nil.
	Metrics *metrics.Recorder
	// OnNotify sees every resolver notification after the engine handled it.
	OnNotify func(scroller.Notification)
}

// Presenter owns the state of one scrollytelling session.
type Presenter struct {
	story    *story.Story
	graphic  *views.Graphic
	column   *layout.Column
	resolver *scroller.Resolver
	engine   *stepper.Engine
	renderer *story.Renderer
	rendered story.Rendered
	metrics  *metrics.Recorder
	onNotify func(scroller.Notification)
	lead     float64

	active   int
	progress float64
	err      error
	dirty    bool
}

// New builds and attaches a presenter. The initial evaluation runs before
// New returns, so the first step's transition has already played.
func New(opts Options) (*Presenter, error) {
	if opts.Story == nil {
		return nil, errors.New("presenter: story is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	p := &Presenter{
		story:    opts.Story,
		graphic:  views.NewGraphic(opts.Dataset, nil),
		renderer: story.NewRenderer(opts.Style),
		metrics:  opts.Metrics,
		onNotify: opts.OnNotify,
		lead:     opts.LeadMargin,
		active:   -1,
	}
	p.graphic.SetReducedMotion(opts.ReducedMotion)

	steps, err := p.story.Bind(p.graphic.Actions(), p.graphic.SetProgress)
	if err != nil {
		return nil, fmt.Errorf("presenter: %w (available: %s)", err, strings.Join(p.graphic.ActionNames(), ", "))
	}
	list := append([]stepper.Observer(nil), opts.Observers...)
	if opts.Metrics != nil {
		list = append(list, opts.Metrics)
	}
	p.engine = stepper.New(stepper.WithObserver(observers(list)))
	if err := p.engine.Register(steps); err != nil {
		return nil, fmt.Errorf("presenter: %w", err)
	}

	rendered, err := p.renderer.Render(p.story, TextWidth(opts.Width))
	if err != nil {
		return nil, fmt.Errorf("presenter: %w", err)
	}
	p.rendered = rendered
	p.column = layout.NewColumn(rendered.Heights,
		layout.WithSpacer(sectionSpacer),
		layout.WithPadding(0, p.padBottom(opts.Height)),
	)
	p.column.SetViewportHeight(opts.Height)

	p.resolver = scroller.New(p.column, scroller.WithLeadMargin(opts.LeadMargin))
	if err := p.resolver.On(scroller.EventActive, p.handleActive); err != nil {
		return nil, fmt.Errorf("presenter: %w", err)
	}
	if err := p.resolver.On(scroller.EventProgress, p.handleProgress); err != nil {
		return nil, fmt.Errorf("presenter: %w", err)
	}
	p.resolver.OnError(func(err error) { p.err = err })
	if err := p.resolver.Attach(p.column.Steps()); err != nil {
		return nil, fmt.Errorf("presenter: attach: %w", err)
	}
	return p, nil
}

func (p *Presenter) handleActive(n scroller.Notification) error {
	if err := p.engine.Activate(n.Index); err != nil {
		p.metrics.ObserveFailure("activate")
		return err
	}
	if p.active != n.Index {
		p.dirty = true
	}
	p.active = n.Index
	if p.onNotify != nil {
		p.onNotify(n)
	}
	return nil
}

func (p *Presenter) handleProgress(n scroller.Notification) error {
	p.metrics.ObserveEvaluation()
	if err := p.engine.Update(n.Index, n.Progress); err != nil {
		p.metrics.ObserveFailure("update")
		return err
	}
	p.progress = n.Progress
	if p.onNotify != nil {
		p.onNotify(n)
	}
	return nil
}

// TextWidth is the narrative wrap width for a column width, leaving room
// for the active-step gutter.
func TextWidth(columnWidth int) int {
	return max(10, columnWidth-gutterWidth)
}

// Reflow re-renders the story at width and resizes the viewport. The
// resolver recomputes the layout and re-evaluates the position.
func (p *Presenter) Reflow(width, height int) error {
	rendered, err := p.renderer.Render(p.story, TextWidth(width))
	if err != nil {
		p.metrics.ObserveFailure("layout")
		return fmt.Errorf("presenter: %w", err)
	}
	p.rendered = rendered
	p.dirty = true
	p.column.Reflow(rendered.Heights, height, p.padBottom(height))
	return p.TakeErr()
}

// ScrollTo moves the narrative to line y and reports whether it moved.
func (p *Presenter) ScrollTo(y int) (bool, error) {
	moved := p.column.ScrollTo(y)
	return moved, p.TakeErr()
}

// padBottom leaves a full screen plus the lead margin below the last
// section so every step can reach the trigger line.
func (p *Presenter) padBottom(height int) int {
	return height + int(math.Ceil(max(p.lead, 0)))
}

// TriggerOffset is the smallest scroll offset at which step i is active.
func (p *Presenter) TriggerOffset(i int) int {
	offsets := p.resolver.Offsets()
	i = min(i, len(offsets)-1)
	if i <= 0 {
		return 0
	}
	// Active once pos passes the previous step's offset.
	threshold := offsets[i-1] + p.resolver.LeadMargin() + p.resolver.ContainerStart()
	return min(int(math.Floor(threshold))+1, p.column.MaxScroll())
}

// JumpTo scrolls so that step i becomes active.
func (p *Presenter) JumpTo(i int) (bool, error) {
	i = min(max(i, 0), p.story.Len()-1)
	return p.ScrollTo(p.TriggerOffset(i))
}

// TakeErr returns and clears the last error raised while handling a scroll
// or resize from the column.
func (p *Presenter) TakeErr() error {
	err := p.err
	p.err = nil
	return err
}

// TakeDirty reports whether the narrative needs redrawing since the last call.
func (p *Presenter) TakeDirty() bool {
	d := p.dirty
	p.dirty = false
	return d
}

// Content renders the narrative column: every section at its layout line,
// the active one marked with a gutter bar and the rest faint.
func (p *Presenter) Content() string {
	total := p.column.TotalLines()
	lines := make([]string, total)
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render("┃") + " "
	blank := strings.Repeat(" ", gutterWidth)
	faint := lipgloss.NewStyle().Faint(true)
	for i, section := range p.rendered.Sections {
		start := p.column.SectionStart(i)
		for j, line := range strings.Split(section, "\n") {
			if start+j >= total {
				break
			}
			if i == p.active {
				lines[start+j] = bar + line
			} else {
				lines[start+j] = blank + faint.Render(line)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// SectionAt returns the step drawn on narrative line y of the viewport,
// or -1 for padding and spacer lines.
func (p *Presenter) SectionAt(y int) int {
	if y < 0 {
		return -1
	}
	return p.column.SectionAt(p.column.Offset() + y)
}

// Offset returns the current scroll offset.
func (p *Presenter) Offset() int { return p.column.Offset() }

// MaxScroll returns the last reachable scroll offset.
func (p *Presenter) MaxScroll() int { return p.column.MaxScroll() }

// Active returns the active step index.
func (p *Presenter) Active() int { return p.active }

// Progress returns the active step's progress.
func (p *Presenter) Progress() float64 { return p.progress }

// Len returns the number of steps.
func (p *Presenter) Len() int { return p.story.Len() }

// Story returns the story being presented.
func (p *Presenter) Story() *story.Story { return p.story }

// Graphic returns the graphic panel.
func (p *Presenter) Graphic() *views.Graphic { return p.graphic }

// Engine returns the step engine.
func (p *Presenter) Engine() *stepper.Engine { return p.engine }

// Resolver returns the scroll resolver.
func (p *Presenter) Resolver() *scroller.Resolver { return p.resolver }

// StepName returns the action bound to step i.
func (p *Presenter) StepName(i int) string {
	if step, ok := p.engine.Step(i); ok {
		return step.Name
	}
	return ""
}

// Close detaches the resolver from the column.
func (p *Presenter) Close() {
	p.resolver.Detach()
}

// multiObserver fans activations out to several observers.
type multiObserver []stepper.Observer

func observers(list []stepper.Observer) stepper.Observer {
	out := make(multiObserver, 0, len(list))
	for _, o := range list {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multiObserver) Activated(step stepper.Step, direction int) {
	for _, o := range m {
		o.Activated(step, direction)
	}
}

func (m multiObserver) Replayed(from, to, count int) {
	for _, o := range m {
		o.Replayed(from, to, count)
	}
}
