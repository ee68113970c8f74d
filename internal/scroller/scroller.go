// internal/scroller/scroller.go
//
// The scroller turns a continuous scroll offset into a discrete step index
// plus a progress fraction inside that step. It knows nothing about what the
// steps look like; geometry comes from a Document and the steps' Elements.
//
// Flow:
// 1. Attach(steps) installs scroll/resize listeners on the Document
// 2. RecomputeLayout captures every step's offset from the first step's top
// 3. EvaluatePosition runs on every scroll and emits "active" / "progress"

package scroller

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultLeadMargin is subtracted from the scroll offset before resolving.
const DefaultLeadMargin = 10

// noStep is the resolved index before anything has been evaluated.
const noStep = -1

var (
	// ErrNoSteps is returned by Attach when the step set is empty.
	ErrNoSteps = errors.New("scroller: at least one step is required")
	// ErrUnknownEvent is returned by On and ParseEvent for names outside {active, progress}.
	ErrUnknownEvent = errors.New("scroller: unknown event")
)

// Element is anything with a vertical position relative to the top of the
// visible viewport (the bounding-rect top of a browser element).
type Element interface {
	Top() float64
}

// Document supplies the scroll offset and event registration.
type Document interface {
	// Body is the default container when none is set.
	Body() Element
	// ScrollY is the current vertical scroll offset.
	ScrollY() float64
	// Listen registers scroll and resize callbacks and returns a function
	// that removes both.
	Listen(onScroll, onResize func()) (detach func())
}

// Option customizes Resolver construction.
type Option func(*Resolver)

// WithLeadMargin overrides DefaultLeadMargin.
func WithLeadMargin(margin float64) Option {
	return func(r *Resolver) {
		r.leadMargin = margin
	}
}

// WithContainer sets the element whose top anchors the coordinate system.
func WithContainer(container Element) Option {
	return func(r *Resolver) {
		r.container = container
	}
}

// Resolver maps scroll offsets to step indices for one set of steps.
type Resolver struct {
	doc        Document
	container  Element
	leadMargin float64

	steps          []Element
	offsets        []float64
	containerStart float64
	current        int

	listeners [eventCount]Listener
	onError   func(error)
	detach    func()
}

// New creates a resolver bound to doc.
func New(doc Document, opts ...Option) *Resolver {
	r := &Resolver{
		doc:        doc,
		leadMargin: DefaultLeadMargin,
		current:    noStep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Attach starts tracking steps. Any previously attached steps and listeners
// are replaced. The layout is computed and the position evaluated once before
// Attach returns, so listeners see the starting state without a scroll.
func (r *Resolver) Attach(steps []Element) error {
	if len(steps) == 0 {
		return ErrNoSteps
	}
	r.Detach()
	r.steps = append(r.steps[:0:0], steps...)
	r.detach = r.doc.Listen(r.onScroll, r.onResize)
	r.RecomputeLayout()
	return r.EvaluatePosition()
}

// Detach removes the scroll and resize listeners installed by Attach.
func (r *Resolver) Detach() {
	if r.detach != nil {
		r.detach()
		r.detach = nil
	}
}

// RecomputeLayout records each step's offset from the first step and the
// container's absolute top. The resolved index is forgotten so the next
// evaluation reports the active step afresh.
func (r *Resolver) RecomputeLayout() {
	r.offsets = r.offsets[:0]
	var start float64
	for i, step := range r.steps {
		top := step.Top()
		if i == 0 {
			start = top
		}
		r.offsets = append(r.offsets, top-start)
	}
	r.containerStart = r.Container().Top() + r.doc.ScrollY()
	r.current = noStep
}

// EvaluatePosition resolves the current scroll offset. "active" fires only
// when the index changes; "progress" fires on every call. A listener error
// stops the evaluation and is returned as-is.
func (r *Resolver) EvaluatePosition() error {
	if len(r.offsets) == 0 {
		return ErrNoSteps
	}
	pos := r.doc.ScrollY() - r.leadMargin - r.containerStart
	index := r.resolve(pos)

	if index != r.current {
		if err := r.emit(Notification{Event: EventActive, Index: index}); err != nil {
			return err
		}
		r.current = index
	}

	prev := max(index-1, 0)
	prevTop := r.offsets[prev]
	progress := (pos - prevTop) / (r.offsets[index] - prevTop)
	return r.emit(Notification{Event: EventProgress, Index: r.current, Progress: progress})
}

// resolve returns the number of offsets strictly below pos, clamped to a valid index.
func (r *Resolver) resolve(pos float64) int {
	index := sort.SearchFloat64s(r.offsets, pos)
	return min(index, len(r.offsets)-1)
}

// Container returns the anchoring element, defaulting to the document body.
func (r *Resolver) Container() Element {
	if r.container != nil {
		return r.container
	}
	return r.doc.Body()
}

// SetContainer changes the anchoring element used by the next layout pass.
func (r *Resolver) SetContainer(container Element) {
	r.container = container
}

// Current returns the last resolved index, or -1 before the first evaluation.
func (r *Resolver) Current() int {
	return r.current
}

// Offsets returns a copy of the step offsets from the last layout pass.
func (r *Resolver) Offsets() []float64 {
	return append([]float64(nil), r.offsets...)
}

// ContainerStart returns the container's absolute top from the last layout pass.
func (r *Resolver) ContainerStart() float64 {
	return r.containerStart
}

// LeadMargin returns the margin subtracted from the scroll offset.
func (r *Resolver) LeadMargin() float64 {
	return r.leadMargin
}

func (r *Resolver) onScroll() {
	r.report(r.EvaluatePosition())
}

func (r *Resolver) onResize() {
	r.RecomputeLayout()
	r.report(r.EvaluatePosition())
}

// report hands listener failures from document-driven evaluations to the
// error listener, if any. Attach and direct EvaluatePosition calls return them.
func (r *Resolver) report(err error) {
	if err == nil {
		return
	}
	if fn := r.onError; fn != nil {
		fn(err)
		return
	}
	panic(fmt.Sprintf("scroller: unhandled listener error: %v", err))
}
