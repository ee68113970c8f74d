package scroller

import (
	"errors"
	"math"
	"testing"
)

// fakeDocument positions elements by absolute document y; Top() is relative
// to the current scroll offset, like a bounding rect.
type fakeDocument struct {
	scroll   float64
	body     *fakeElement
	onScroll func()
	onResize func()
	listens  int
	detaches int
}

type fakeElement struct {
	doc *fakeDocument
	y   float64
}

func (e *fakeElement) Top() float64 { return e.y - e.doc.scroll }

func newFakeDocument() *fakeDocument {
	doc := &fakeDocument{}
	doc.body = &fakeElement{doc: doc}
	return doc
}

func (d *fakeDocument) Body() Element    { return d.body }
func (d *fakeDocument) ScrollY() float64 { return d.scroll }

func (d *fakeDocument) Listen(onScroll, onResize func()) func() {
	d.listens++
	d.onScroll, d.onResize = onScroll, onResize
	return func() {
		d.detaches++
		d.onScroll, d.onResize = nil, nil
	}
}

func (d *fakeDocument) scrollTo(y float64) {
	d.scroll = y
	if d.onScroll != nil {
		d.onScroll()
	}
}

func (d *fakeDocument) resize() {
	if d.onResize != nil {
		d.onResize()
	}
}

func (d *fakeDocument) elements(ys ...float64) []Element {
	out := make([]Element, len(ys))
	for i, y := range ys {
		out[i] = &fakeElement{doc: d, y: y}
	}
	return out
}

type recorder struct {
	active   []int
	progress []Notification
}

func (rec *recorder) listen(t *testing.T, r *Resolver) {
	t.Helper()
	if err := r.On(EventActive, func(n Notification) error {
		rec.active = append(rec.active, n.Index)
		return nil
	}); err != nil {
		t.Fatalf("On(active): %v", err)
	}
	if err := r.On(EventProgress, func(n Notification) error {
		rec.progress = append(rec.progress, n)
		return nil
	}); err != nil {
		t.Fatalf("On(progress): %v", err)
	}
}

func (rec *recorder) lastProgress(t *testing.T) Notification {
	t.Helper()
	if len(rec.progress) == 0 {
		t.Fatalf("no progress notifications recorded")
	}
	return rec.progress[len(rec.progress)-1]
}

// scenarioResolver builds offsets [0, 100, 250, 400] with the container at 50.
func scenarioResolver(t *testing.T) (*fakeDocument, *Resolver, *recorder) {
	t.Helper()
	doc := newFakeDocument()
	container := &fakeElement{doc: doc, y: 50}
	r := New(doc, WithContainer(container))
	rec := &recorder{}
	rec.listen(t, r)
	if err := r.Attach(doc.elements(50, 150, 300, 450)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return doc, r, rec
}

func TestAttachComputesOffsetsAndEvaluatesOnce(t *testing.T) {
	_, r, rec := scenarioResolver(t)
	want := []float64{0, 100, 250, 400}
	got := r.Offsets()
	if len(got) != len(want) {
		t.Fatalf("offsets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("offsets = %v, want %v", got, want)
		}
	}
	if r.ContainerStart() != 50 {
		t.Fatalf("container start = %v, want 50", r.ContainerStart())
	}
	if len(rec.active) != 1 || rec.active[0] != 0 {
		t.Fatalf("initial active = %v, want [0]", rec.active)
	}
	if len(rec.progress) != 1 {
		t.Fatalf("initial progress notifications = %d, want 1", len(rec.progress))
	}
}

func TestEvaluatePositionScenario(t *testing.T) {
	doc, r, rec := scenarioResolver(t)
	doc.scrollTo(170)
	if r.Current() != 2 {
		t.Fatalf("current = %d, want 2", r.Current())
	}
	if got := rec.active[len(rec.active)-1]; got != 2 {
		t.Fatalf("last active = %d, want 2", got)
	}
	n := rec.lastProgress(t)
	want := (110.0 - 100.0) / (250.0 - 100.0)
	if n.Index != 2 || math.Abs(n.Progress-want) > 1e-9 {
		t.Fatalf("progress = (%d, %v), want (2, %v)", n.Index, n.Progress, want)
	}
}

func TestEvaluatePositionClampsBoundaries(t *testing.T) {
	doc, r, _ := scenarioResolver(t)
	cases := []struct {
		scroll float64
		want   int
	}{
		{scroll: 0, want: 0},
		{scroll: 59, want: 0},
		{scroll: 60, want: 0},
		{scroll: 61, want: 1},
		{scroll: 460, want: 3},
		{scroll: 10_000, want: 3},
	}
	for _, tc := range cases {
		doc.scrollTo(tc.scroll)
		if r.Current() != tc.want {
			t.Fatalf("scroll %v: current = %d, want %d", tc.scroll, r.Current(), tc.want)
		}
	}
}

func TestPositionOnAnOffsetResolvesBelowIt(t *testing.T) {
	doc, r, _ := scenarioResolver(t)
	// pos = scroll - lead(10) - container(50); offsets are [0, 100, 250, 400].
	cases := []struct {
		scroll float64
		want   int
	}{
		{scroll: 159, want: 1},
		{scroll: 160, want: 1}, // pos == offsets[1]
		{scroll: 161, want: 2},
		{scroll: 310, want: 2}, // pos == offsets[2]
		{scroll: 311, want: 3},
		{scroll: 460, want: 3}, // pos == offsets[3], clamped
	}
	for _, tc := range cases {
		doc.scrollTo(tc.scroll)
		if r.Current() != tc.want {
			t.Fatalf("scroll %v: current = %d, want %d", tc.scroll, r.Current(), tc.want)
		}
	}
}

func TestEvaluatePositionIsIdempotentForActive(t *testing.T) {
	doc, r, rec := scenarioResolver(t)
	doc.scrollTo(170)
	activeBefore := len(rec.active)
	progressBefore := len(rec.progress)
	if err := r.EvaluatePosition(); err != nil {
		t.Fatalf("EvaluatePosition: %v", err)
	}
	if err := r.EvaluatePosition(); err != nil {
		t.Fatalf("EvaluatePosition: %v", err)
	}
	if len(rec.active) != activeBefore {
		t.Fatalf("active re-emitted for unchanged index: %v", rec.active)
	}
	if len(rec.progress) != progressBefore+2 {
		t.Fatalf("progress notifications = %d, want %d", len(rec.progress), progressBefore+2)
	}
}

func TestMonotonicSweepVisitsEveryStep(t *testing.T) {
	doc, _, rec := scenarioResolver(t)
	for y := 0.0; y <= 600; y += 3 {
		doc.scrollTo(y)
	}
	seen := map[int]bool{}
	for i, idx := range rec.active {
		if i > 0 && idx < rec.active[i-1] {
			t.Fatalf("active sequence decreased: %v", rec.active)
		}
		seen[idx] = true
	}
	for idx := 0; idx < 4; idx++ {
		if !seen[idx] {
			t.Fatalf("step %d never activated: %v", idx, rec.active)
		}
	}
}

func TestProgressIsMonotonicWithinStep(t *testing.T) {
	doc, _, rec := scenarioResolver(t)
	rec.progress = nil
	for y := 161.0; y <= 310; y += 7 {
		doc.scrollTo(y)
	}
	for i := 1; i < len(rec.progress); i++ {
		prev, cur := rec.progress[i-1], rec.progress[i]
		if prev.Index != cur.Index {
			continue
		}
		if cur.Progress < prev.Progress {
			t.Fatalf("progress decreased within step %d: %v -> %v", cur.Index, prev.Progress, cur.Progress)
		}
	}
}

func TestZeroHeightSpanYieldsNonFiniteProgress(t *testing.T) {
	doc := newFakeDocument()
	r := New(doc, WithLeadMargin(0))
	rec := &recorder{}
	rec.listen(t, r)
	if err := r.Attach(doc.elements(0)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	n := rec.lastProgress(t)
	if !math.IsNaN(n.Progress) {
		t.Fatalf("progress = %v, want NaN", n.Progress)
	}
	doc.scrollTo(5)
	n = rec.lastProgress(t)
	if !math.IsInf(n.Progress, 1) {
		t.Fatalf("progress = %v, want +Inf", n.Progress)
	}
}

func TestResizeRecomputesLayoutAndReemitsActive(t *testing.T) {
	doc := newFakeDocument()
	steps := []*fakeElement{{doc: doc, y: 0}, {doc: doc, y: 100}, {doc: doc, y: 200}}
	elements := []Element{steps[0], steps[1], steps[2]}
	r := New(doc, WithLeadMargin(0))
	rec := &recorder{}
	rec.listen(t, r)
	if err := r.Attach(elements); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	doc.scrollTo(150)
	if r.Current() != 2 {
		t.Fatalf("current = %d, want 2", r.Current())
	}
	before := len(rec.active)

	// Reflow: the sections grow taller.
	steps[1].y = 300
	steps[2].y = 600
	doc.resize()

	offsets := r.Offsets()
	if offsets[1] != 300 || offsets[2] != 600 {
		t.Fatalf("offsets after resize = %v, want [0 300 600]", offsets)
	}
	if len(rec.active) != before+1 {
		t.Fatalf("resize should emit a fresh active notification, got %v", rec.active)
	}
	if got := rec.active[len(rec.active)-1]; got != 1 {
		t.Fatalf("active after resize = %d, want 1", got)
	}
}

func TestReattachReplacesListeners(t *testing.T) {
	doc := newFakeDocument()
	r := New(doc)
	if err := r.Attach(doc.elements(0, 50)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := r.Attach(doc.elements(0, 10, 20)); err != nil {
		t.Fatalf("re-Attach: %v", err)
	}
	if doc.listens != 2 || doc.detaches != 1 {
		t.Fatalf("listens = %d detaches = %d, want 2 and 1", doc.listens, doc.detaches)
	}
	if len(r.Offsets()) != 3 {
		t.Fatalf("offsets = %v, want three steps", r.Offsets())
	}
	r.Detach()
	if doc.onScroll != nil {
		t.Fatalf("Detach left the scroll listener installed")
	}
}

func TestAttachRejectsEmptySteps(t *testing.T) {
	doc := newFakeDocument()
	r := New(doc)
	if err := r.Attach(nil); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("Attach(nil) = %v, want ErrNoSteps", err)
	}
	if doc.listens != 0 {
		t.Fatalf("listeners installed for empty step set")
	}
	if err := r.EvaluatePosition(); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("EvaluatePosition before Attach = %v, want ErrNoSteps", err)
	}
}

func TestListenerErrorStopsEvaluation(t *testing.T) {
	doc := newFakeDocument()
	r := New(doc, WithLeadMargin(0))
	boom := errors.New("boom")
	progressCalls := 0
	_ = r.On(EventActive, func(Notification) error { return boom })
	_ = r.On(EventProgress, func(Notification) error {
		progressCalls++
		return nil
	})
	if err := r.Attach(doc.elements(0, 100)); !errors.Is(err, boom) {
		t.Fatalf("Attach = %v, want boom", err)
	}
	if progressCalls != 0 {
		t.Fatalf("progress emitted after failed active listener")
	}
	if r.Current() != -1 {
		t.Fatalf("current = %d, want -1 after failed activation", r.Current())
	}

	var reported error
	r.OnError(func(err error) { reported = err })
	doc.scrollTo(50)
	if !errors.Is(reported, boom) {
		t.Fatalf("reported = %v, want boom", reported)
	}
}

func TestListenerErrorWithoutHandlerPanics(t *testing.T) {
	doc := newFakeDocument()
	r := New(doc, WithLeadMargin(0))
	if err := r.Attach(doc.elements(0, 100)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	_ = r.On(EventProgress, func(Notification) error { return errors.New("boom") })
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unhandled listener error")
		}
	}()
	doc.scrollTo(20)
}

func TestOnReplacesAndClears(t *testing.T) {
	doc := newFakeDocument()
	r := New(doc, WithLeadMargin(0))
	first, second := 0, 0
	_ = r.On(EventActive, func(Notification) error { first++; return nil })
	_ = r.On(EventActive, func(Notification) error { second++; return nil })
	if err := r.Attach(doc.elements(0, 100)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if first != 0 || second != 1 {
		t.Fatalf("first = %d second = %d, want 0 and 1", first, second)
	}
	_ = r.On(EventActive, nil)
	doc.scrollTo(50)
	if second != 1 {
		t.Fatalf("cleared listener still called")
	}
	if err := r.On(Event(7), nil); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("On(unknown) = %v, want ErrUnknownEvent", err)
	}
}

func TestContainerDefaultsToBody(t *testing.T) {
	doc := newFakeDocument()
	r := New(doc)
	if r.Container() != doc.Body() {
		t.Fatalf("container should default to body")
	}
	other := &fakeElement{doc: doc, y: 30}
	r.SetContainer(other)
	if r.Container() != other {
		t.Fatalf("SetContainer not applied")
	}
	doc.scroll = 12
	if err := r.Attach(doc.elements(40, 80)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if r.ContainerStart() != 30 {
		t.Fatalf("container start = %v, want 30", r.ContainerStart())
	}
}

func TestParseEvent(t *testing.T) {
	for name, want := range map[string]Event{"active": EventActive, " Progress ": EventProgress} {
		got, err := ParseEvent(name)
		if err != nil || got != want {
			t.Fatalf("ParseEvent(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseEvent("scroll"); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("ParseEvent(scroll) = %v, want ErrUnknownEvent", err)
	}
}
