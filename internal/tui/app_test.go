package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/scrolly/internal/config"
	"github.com/kingrea/scrolly/internal/festival"
	"github.com/kingrea/scrolly/internal/logbook"
	"github.com/kingrea/scrolly/internal/story"
	"github.com/kingrea/scrolly/internal/views"
)

func TestKeysWalkThroughSteps(t *testing.T) {
	app, lb := newTestApp(t)
	app = resize(t, app, 100, 30)

	if got := app.Presenter().Active(); got != 0 {
		t.Fatalf("initial active = %d, want 0", got)
	}
	app, cmd := press(t, app, "n")
	if got := app.Presenter().Active(); got != 1 {
		t.Fatalf("after n active = %d, want 1", got)
	}
	if cmd == nil {
		t.Fatalf("histogram step should start the animation")
	}
	if app.viewport.YOffset != app.Presenter().Offset() {
		t.Fatalf("viewport offset %d out of sync with column %d", app.viewport.YOffset, app.Presenter().Offset())
	}

	app, _ = press(t, app, "G")
	last := app.Presenter().Len() - 1
	if got := app.Presenter().Active(); got != last {
		t.Fatalf("after G active = %d, want %d", got, last)
	}
	if app.Presenter().Graphic().LastAction() != views.ActionFilterCircles {
		t.Fatalf("last action = %q", app.Presenter().Graphic().LastAction())
	}

	app, _ = press(t, app, "g")
	if got := app.Presenter().Active(); got != 0 {
		t.Fatalf("after g active = %d, want 0", got)
	}

	lines, _ := lb.Tail(50)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"↓ step 1 · show-histogram", "↑ step 0 · show-title", "replayed"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("journal missing %q:\n%s", want, joined)
		}
	}
}

func TestLineKeysAndWheelScroll(t *testing.T) {
	app, _ := newTestApp(t)
	app = resize(t, app, 100, 30)

	app, _ = press(t, app, "j")
	app, _ = press(t, app, "j")
	if got := app.Presenter().Offset(); got != 2 {
		t.Fatalf("offset after jj = %d, want 2", got)
	}
	app, _ = press(t, app, "k")
	if got := app.Presenter().Offset(); got != 1 {
		t.Fatalf("offset after k = %d, want 1", got)
	}

	model, _ := app.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	app = model.(*App)
	if got := app.Presenter().Offset(); got != 1+wheelLines {
		t.Fatalf("offset after wheel = %d, want %d", got, 1+wheelLines)
	}

	app, _ = press(t, app, " ")
	if got := app.Presenter().Offset(); got != 1+wheelLines+app.viewport.Height/2 {
		t.Fatalf("offset after space = %d", got)
	}
}

func TestAnimationFramesSettle(t *testing.T) {
	app, _ := newTestApp(t)
	app = resize(t, app, 100, 30)
	app, cmd := press(t, app, "n")
	frames := 0
	for cmd != nil {
		frames++
		if frames > 10*views.FrameRate {
			t.Fatalf("histogram did not settle after %d frames", frames)
		}
		var model tea.Model
		model, cmd = app.Update(frameMsg{})
		app = model.(*App)
	}
	if app.Presenter().Graphic().Animating() {
		t.Fatalf("graphic still animating after frame loop ended")
	}
	if !app.Presenter().Graphic().Histogram().Visible() {
		t.Fatalf("histogram should be visible on step 1")
	}
}

func TestResizeKeepsViewportInSync(t *testing.T) {
	app, _ := newTestApp(t)
	app = resize(t, app, 100, 30)
	app, _ = press(t, app, "n")
	app, _ = press(t, app, "n")

	app = resize(t, app, 60, 20)
	if app.viewport.Height != 18 || app.viewport.Width != 36 {
		t.Fatalf("viewport = %dx%d, want 36x18", app.viewport.Width, app.viewport.Height)
	}
	if app.Presenter().Engine().Previous() != app.Presenter().Active() {
		t.Fatalf("engine and presenter disagree after resize")
	}
	if app.viewport.YOffset != app.Presenter().Offset() {
		t.Fatalf("viewport offset %d, column %d", app.viewport.YOffset, app.Presenter().Offset())
	}
	view := app.View()
	if !strings.Contains(view, "step ") {
		t.Fatalf("status line missing from view:\n%s", view)
	}
}

func TestTransitionErrorShownInStatus(t *testing.T) {
	s, err := story.Parse([]byte(`
title: broken
steps:
  - action: show-title
    body: "# One"
  - action: show-histogram
    body: "# Two"
`))
	if err != nil {
		t.Fatal(err)
	}
	data := festival.Dataset{{Year: 2001, Festival: "Reading", Act: "X", Gender: festival.GenderMale}}
	app, lb := newTestApp(t, WithStory(s), WithDataset(data))
	app = resize(t, app, 100, 30)
	app, _ = press(t, app, "n")

	if !errors.Is(app.err, views.ErrNoData) {
		t.Fatalf("app.err = %v, want ErrNoData", app.err)
	}
	if app.Presenter().Active() != 0 {
		t.Fatalf("active = %d, want 0 after failed transition", app.Presenter().Active())
	}
	if !strings.Contains(app.View(), "no headliners") {
		t.Fatalf("error not shown in view")
	}
	lines, _ := lb.Tail(10)
	if !strings.Contains(strings.Join(lines, "\n"), "ERROR") {
		t.Fatalf("error not journaled: %v", lines)
	}
}

func TestQuitKeys(t *testing.T) {
	app, _ := newTestApp(t)
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := app.Update(k)
		if cmd == nil {
			t.Fatalf("%s should quit", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s should return tea.Quit", k)
		}
	}
}

func newTestApp(t *testing.T, opts ...AppOption) (*App, *logbook.Logbook) {
	t.Helper()
	projectDir := t.TempDir()
	if err := config.InitDir(projectDir); err != nil {
		t.Fatalf("init scrolly dir: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	style := "notty"
	if err := cfg.Apply(config.Overrides{Style: &style}); err != nil {
		t.Fatalf("apply overrides: %v", err)
	}
	lb, err := logbook.New(filepath.Join(cfg.LogsDir(), "journal.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	app, err := NewApp(cfg, append([]AppOption{WithLogbook(lb)}, opts...)...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	t.Cleanup(app.Close)
	return app, lb
}

func resize(t *testing.T, app *App, width, height int) *App {
	t.Helper()
	model, _ := app.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return model.(*App)
}

func press(t *testing.T, app *App, key string) (*App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return model.(*App), cmd
}

func TestPointerInspectsCircles(t *testing.T) {
	app, _ := newTestApp(t, WithStory(shortStory(t)))
	app = resize(t, app, 100, 30)

	first := app.Presenter().Graphic().Circles().Data()[0]
	if strings.Contains(app.View(), first.ID()) {
		t.Fatalf("nothing should be inspected yet")
	}
	x0, y0, _ := app.graphicOrigin()
	// Dots start two rows below the circles header.
	app = mouse(t, app, tea.MouseMsg{X: x0, Y: y0 + 2, Action: tea.MouseActionMotion})
	if !app.inspecting || app.inspected.ID() != first.ID() {
		t.Fatalf("inspected = %+v (%v), want %s", app.inspected, app.inspecting, first.ID())
	}
	view := app.View()
	for _, want := range []string{first.Act, first.ID(), first.Festival} {
		if !strings.Contains(view, want) {
			t.Fatalf("tooltip missing %q:\n%s", want, view)
		}
	}

	app = mouse(t, app, tea.MouseMsg{X: x0, Y: 0, Action: tea.MouseActionMotion})
	if app.inspecting {
		t.Fatalf("moving off the dots should clear the tooltip")
	}

	app = mouse(t, app, tea.MouseMsg{X: x0 + 2, Y: y0 + 2, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	second := app.Presenter().Graphic().Circles().Data()[1]
	if !app.inspecting || app.inspected.ID() != second.ID() {
		t.Fatalf("click inspected = %+v, want %s", app.inspected, second.ID())
	}
}

func TestClickingSectionJumpsToIt(t *testing.T) {
	app, _ := newTestApp(t, WithStory(shortStory(t)))
	app = resize(t, app, 100, 30)

	row := -1
	for y := 1; y <= app.viewport.Height; y++ {
		if app.Presenter().SectionAt(y-1) == 2 {
			row = y
			break
		}
	}
	if row < 0 {
		t.Fatalf("section 2 not visible at offset %d", app.Presenter().Offset())
	}
	app = mouse(t, app, tea.MouseMsg{X: 3, Y: row, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if got := app.Presenter().Active(); got != 2 {
		t.Fatalf("active after click = %d, want 2", got)
	}
	if app.viewport.YOffset != app.Presenter().Offset() {
		t.Fatalf("viewport offset %d out of sync with column %d", app.viewport.YOffset, app.Presenter().Offset())
	}
}

func shortStory(t *testing.T) *story.Story {
	t.Helper()
	s, err := story.Parse([]byte(`
title: short
steps:
  - action: show-title
    body: "# One"
  - action: show-summary
    body: "# Two"
  - action: filter-circles
    body: "# Three"
`))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mouse(t *testing.T, app *App, msg tea.MouseMsg) *App {
	t.Helper()
	model, _ := app.Update(msg)
	return model.(*App)
}
