// internal/stepper/stepper.go
//
// The stepper replays step activations. When the active step jumps from 1 to
// 4 it runs the handlers for 2, 3 and 4 in that order; jumping back to 0 runs
// 3, 2, 1 and 0. Views that build on the previous step's state therefore pass
// through every intermediate state even on a fast scroll.

package stepper

import (
	"errors"
	"fmt"
)

// beforeFirst is the previous index before any activation.
const beforeFirst = -1

var (
	// ErrNotRegistered is returned when Activate or Update runs before Register.
	ErrNotRegistered = errors.New("stepper: no steps registered")
	// ErrOutOfRange is returned for indices outside the registered steps.
	ErrOutOfRange = errors.New("stepper: step index out of range")
	// ErrInvalidStep is returned by Register for malformed step records.
	ErrInvalidStep = errors.New("stepper: invalid step")
)

// Step is the handler record for one step index.
type Step struct {
	Index int
	Name  string
	// Activate performs the step's view transition. It runs when scrolling
	// in either direction and must leave the view correct for both.
	Activate func() error
	// Update receives the step's scroll progress while it is active. Nil is a no-op.
	Update func(progress float64) error
}

func (s Step) label() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("#%d", s.Index)
}

// Observer is told about activations as they happen.
type Observer interface {
	// Activated runs after a step's handler succeeds. direction is +1 when
	// scrolling down and -1 when scrolling up.
	Activated(step Step, direction int)
	// Replayed runs once per Activate that invoked at least one handler.
	Replayed(from, to, count int)
}

// Option customizes Engine construction.
type Option func(*Engine)

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// Engine tracks the active step and replays handlers between activations.
type Engine struct {
	steps    []Step
	previous int
	active   int
	observer Observer
}

// New creates an engine with no steps registered.
func New(opts ...Option) *Engine {
	e := &Engine{previous: beforeFirst}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Register installs one record per step. Indices must cover 0..N-1 exactly
// once, in any order. Registration resets the engine to before the first step.
func (e *Engine) Register(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: empty step set", ErrInvalidStep)
	}
	ordered := make([]Step, len(steps))
	filled := make([]bool, len(steps))
	for _, step := range steps {
		if step.Index < 0 || step.Index >= len(steps) {
			return fmt.Errorf("%w: index %d outside 0..%d", ErrInvalidStep, step.Index, len(steps)-1)
		}
		if filled[step.Index] {
			return fmt.Errorf("%w: duplicate index %d", ErrInvalidStep, step.Index)
		}
		if step.Activate == nil {
			return fmt.Errorf("%w: step %s has no activate handler", ErrInvalidStep, step.label())
		}
		if step.Update == nil {
			step.Update = func(float64) error { return nil }
		}
		ordered[step.Index] = step
		filled[step.Index] = true
	}
	e.steps = ordered
	e.previous = beforeFirst
	e.active = 0
	return nil
}

// Activate makes index the active step, running every handler from the one
// after the previous active step up to and including index, in scroll order.
// A handler error stops the replay and leaves the previous index unchanged,
// so the next Activate replays the same range again.
func (e *Engine) Activate(index int) error {
	if err := e.check(index); err != nil {
		return err
	}
	e.active = index
	sign := 1
	if index-e.previous < 0 {
		sign = -1
	}
	from := e.previous
	count := 0
	for i := e.previous + sign; i != index+sign; i += sign {
		step := e.steps[i]
		if err := step.Activate(); err != nil {
			return fmt.Errorf("stepper: activate step %d (%s): %w", i, step.label(), err)
		}
		count++
		if e.observer != nil {
			e.observer.Activated(step, sign)
		}
	}
	e.previous = index
	if count > 0 && e.observer != nil {
		e.observer.Replayed(from, index, count)
	}
	return nil
}

// Update forwards progress to the step at index. Nothing is replayed.
func (e *Engine) Update(index int, progress float64) error {
	if err := e.check(index); err != nil {
		return err
	}
	step := e.steps[index]
	if err := step.Update(progress); err != nil {
		return fmt.Errorf("stepper: update step %d (%s): %w", index, step.label(), err)
	}
	return nil
}

func (e *Engine) check(index int) error {
	if len(e.steps) == 0 {
		return ErrNotRegistered
	}
	if index < 0 || index >= len(e.steps) {
		return fmt.Errorf("%w: %d not in 0..%d", ErrOutOfRange, index, len(e.steps)-1)
	}
	return nil
}

// Active returns the most recently requested step index.
func (e *Engine) Active() int { return e.active }

// Previous returns the last fully activated index, or -1 before the first.
func (e *Engine) Previous() int { return e.previous }

// Len returns the number of registered steps.
func (e *Engine) Len() int { return len(e.steps) }

// Step returns the record registered at index.
func (e *Engine) Step(index int) (Step, bool) {
	if index < 0 || index >= len(e.steps) {
		return Step{}, false
	}
	return e.steps[index], true
}
