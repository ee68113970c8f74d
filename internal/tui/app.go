// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for scrolly.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The narrative scrolls on the left, the graphic sits on the right. Every
// scroll or resize goes through the presenter's column, so the resolver and
// the step engine run synchronously inside Update.

package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/scrolly/internal/config"
	"github.com/kingrea/scrolly/internal/festival"
	"github.com/kingrea/scrolly/internal/logbook"
	"github.com/kingrea/scrolly/internal/logging"
	"github.com/kingrea/scrolly/internal/metrics"
	"github.com/kingrea/scrolly/internal/presenter"
	"github.com/kingrea/scrolly/internal/stepper"
	"github.com/kingrea/scrolly/internal/story"
	"github.com/kingrea/scrolly/internal/views"
)

const (
	frameInterval = time.Second / views.FrameRate
	wheelLines    = 3
	logPanelLines = 6
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook records activations and errors in the given journal.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithLogger writes diagnostics to the given log file.
func WithLogger(l *logging.Logger) AppOption {
	return func(a *App) {
		a.logger = l
	}
}

// WithRecorder counts activations, evaluations and failures.
func WithRecorder(r *metrics.Recorder) AppOption {
	return func(a *App) {
		a.recorder = r
	}
}

// WithStory replaces the configured story.
func WithStory(s *story.Story) AppOption {
	return func(a *App) {
		if s != nil {
			a.story = s
		}
	}
}

// WithDataset replaces the configured headliner dataset.
func WithDataset(d festival.Dataset) AppOption {
	return func(a *App) {
		if d != nil {
			a.dataset = d
		}
	}
}

type frameMsg time.Time

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config    *config.Config
	presenter *presenter.Presenter
	story     *story.Story
	dataset   festival.Dataset
	logbook   *logbook.Logbook
	logger    *logging.Logger
	recorder  *metrics.Recorder

	// UI components
	viewport  viewport.Model
	help      help.Model
	keys      keyMap
	err       error
	animating bool

	// inspected is the headliner under the pointer in the graphic.
	inspected  festival.Headliner
	inspecting bool

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp loads the configured story and dataset and attaches the presenter.
// The first step is already active when NewApp returns.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	app := &App{
		config: cfg,
		help:   help.New(),
		keys:   defaultKeyMap(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.story == nil {
		s, err := story.Load(cfg.StoryPath())
		if err != nil {
			return nil, err
		}
		app.story = s
	}
	if app.dataset == nil {
		d, err := festival.Load(cfg.DatasetPath())
		if err != nil {
			return nil, err
		}
		app.dataset = d
	}

	var observers []stepper.Observer
	if app.logbook != nil {
		observers = append(observers, app.logbook)
	}
	width, height := layoutFor(presenter.DefaultWidth, presenter.DefaultHeight)
	p, err := presenter.New(presenter.Options{
		Story:         app.story,
		Dataset:       app.dataset,
		LeadMargin:    cfg.LeadMargin(),
		Style:         cfg.Style(),
		Width:         width,
		Height:        height,
		ReducedMotion: cfg.ReducedMotion(),
		Observers:     observers,
		Metrics:       app.recorder,
	})
	if err != nil {
		return nil, err
	}
	app.presenter = p
	app.viewport = viewport.New(width, height)
	app.viewport.MouseWheelEnabled = false
	app.sync()
	app.logInfo("Session opened · %s · %d steps", app.story.Title, p.Len())
	return app, nil
}

// Presenter exposes the presentation state.
func (a *App) Presenter() *presenter.Presenter {
	return a.presenter
}

// Close detaches the presenter from its column.
func (a *App) Close() {
	a.presenter.Close()
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.animate()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		width, height := layoutFor(msg.Width, msg.Height)
		a.viewport.Width = width
		a.viewport.Height = height
		a.handleErr("layout", a.presenter.Reflow(width, height))
		a.sync()
		return a, a.animate()

	case frameMsg:
		a.presenter.Graphic().Tick()
		if a.presenter.Graphic().Animating() {
			return a, a.nextFrame()
		}
		a.animating = false
		return a, nil

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	half := max(1, a.viewport.Height/2)
	offset := a.presenter.Offset()
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Down):
		return a.scrollTo(offset + 1)
	case key.Matches(msg, a.keys.Up):
		return a.scrollTo(offset - 1)
	case key.Matches(msg, a.keys.PageDown):
		return a.scrollTo(offset + half)
	case key.Matches(msg, a.keys.PageUp):
		return a.scrollTo(offset - half)
	case key.Matches(msg, a.keys.Top):
		return a.scrollTo(0)
	case key.Matches(msg, a.keys.Bottom):
		return a.scrollTo(a.presenter.MaxScroll())
	case key.Matches(msg, a.keys.Next):
		return a.jumpTo(a.presenter.Active() + 1)
	case key.Matches(msg, a.keys.Prev):
		return a.jumpTo(a.presenter.Active() - 1)
	}
	return nil
}

// handleMouse scrolls on the wheel, jumps to a clicked section and
// inspects the act under the pointer in the graphic.
func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action == tea.MouseActionMotion {
		a.inspectAt(msg.X, msg.Y)
		return nil
	}
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return a.scrollTo(a.presenter.Offset() - wheelLines)
	case tea.MouseButtonWheelDown:
		return a.scrollTo(a.presenter.Offset() + wheelLines)
	case tea.MouseButtonLeft:
		narrativeWidth, _ := a.panelWidths()
		if msg.X >= narrativeWidth {
			a.inspectAt(msg.X, msg.Y)
			return nil
		}
		line := msg.Y - 1
		if line >= a.viewport.Height {
			return nil
		}
		if step := a.presenter.SectionAt(line); step >= 0 && step != a.presenter.Active() {
			return a.jumpTo(step)
		}
	}
	return nil
}

// inspectAt maps screen cell x, y into the graphic panel.
func (a *App) inspectAt(x, y int) {
	x0, y0, width := a.graphicOrigin()
	a.inspected, a.inspecting = a.presenter.Graphic().Inspect(x-x0, y-y0, width)
}

func (a *App) scrollTo(y int) tea.Cmd {
	moved, err := a.presenter.ScrollTo(y)
	if moved {
		a.inspecting = false
	}
	if moved && err == nil {
		a.err = nil
	}
	a.handleErr("scroll", err)
	a.sync()
	return a.animate()
}

func (a *App) jumpTo(step int) tea.Cmd {
	if step < 0 || step >= a.presenter.Len() {
		return nil
	}
	moved, err := a.presenter.JumpTo(step)
	if moved {
		a.inspecting = false
	}
	if moved && err == nil {
		a.err = nil
	}
	a.handleErr("jump", err)
	a.sync()
	return a.animate()
}

// sync copies the presenter's column into the viewport.
func (a *App) sync() {
	if a.presenter.TakeDirty() {
		a.viewport.SetContent(a.presenter.Content())
	}
	a.viewport.SetYOffset(a.presenter.Offset())
}

func (a *App) handleErr(stage string, err error) {
	if err == nil {
		return
	}
	a.err = err
	a.logError("%s: %v", stage, err)
	if a.logger != nil {
		a.logger.Printf("%s failed at offset %d: %v", stage, a.presenter.Offset(), err)
	}
}

// animate starts the frame loop if the graphic has something moving.
func (a *App) animate() tea.Cmd {
	if a.animating || !a.presenter.Graphic().Animating() {
		return nil
	}
	a.animating = true
	return a.nextFrame()
}

func (a *App) nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// View renders the current state to a string.
func (a *App) View() string {
	narrativeWidth, graphicWidth := a.panelWidths()

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		Render("◆ " + strings.ToUpper(a.story.Title))

	left := lipgloss.NewStyle().Width(narrativeWidth).Render(a.viewport.View())
	rightParts := []string{a.presenter.Graphic().Render(graphicWidth - 4)}
	if a.inspecting {
		rightParts = append(rightParts, a.renderInspected())
	}
	if logPanel := a.renderLogPanel(graphicWidth - 4); logPanel != "" {
		rightParts = append(rightParts, logPanel)
	}
	right := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(graphicWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rightParts...))

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
	return strings.Join([]string{header, body, a.renderStatus()}, "\n")
}

func (a *App) renderStatus() string {
	if a.err != nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Render("✗ " + a.err.Error())
	}
	p := a.presenter
	status := fmt.Sprintf("step %d/%d · %s · %3.0f%%",
		p.Active()+1, p.Len(), p.StepName(p.Active()), 100*clampProgress(p.Progress()))
	hint := a.help.View(a.keys)
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(status + "  " + hint)
}

func (a *App) renderInspected() string {
	h := a.inspected
	act := lipgloss.NewStyle().
		Bold(true).
		Foreground(views.DefaultColourScale().Colour(h.Gender)).
		Render("◉ " + h.Act)
	faint := lipgloss.NewStyle().Faint(true)
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		act,
		faint.Render(fmt.Sprintf("%d · %s", h.Year, h.Festival)),
		faint.Render(h.ID()),
	)
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	for i, line := range lines {
		lines[i] = trimLogLine(line)
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s · %d", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Width(max(10, width)).
		MaxHeight(logPanelLines).
		Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, "", head, body)
}

// panelWidths returns the narrative and graphic panel widths for the
// current terminal.
func (a *App) panelWidths() (int, int) {
	width := a.width
	if width <= 0 {
		width = presenter.DefaultWidth
	}
	narrativeWidth, _ := layoutFor(width, max(a.height, presenter.DefaultHeight))
	return narrativeWidth, max(20, width-narrativeWidth-4)
}

// graphicOrigin returns the screen cell of the graphic's first line and the
// width it is rendered at: past the gap, border and padding, below the header.
func (a *App) graphicOrigin() (x, y, width int) {
	narrativeWidth, graphicWidth := a.panelWidths()
	return narrativeWidth + 2 + 1 + 1, 1 + 1, graphicWidth - 4
}

// layoutFor splits a terminal of width x height into the narrative viewport
// size. Header and status lines take two rows.
func layoutFor(width, height int) (int, int) {
	return max(20, width*3/5), max(1, height-2)
}

// trimLogLine drops the RFC3339 timestamp from a journal line.
func trimLogLine(line string) string {
	if _, rest, ok := strings.Cut(line, " "); ok {
		return strings.TrimSpace(rest)
	}
	return line
}

func clampProgress(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	return min(p, 1)
}
