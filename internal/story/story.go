// internal/story/story.go
//
// A story is the narrative half of the page: an ordered list of sections,
// each naming the graphic transition that plays when it becomes active.
// Stories are YAML files; the built-in one tells the festival headliner story.

package story

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/kingrea/scrolly/internal/stepper"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var builtin []byte

// ErrUnknownAction is returned by Bind when a step names a transition that
// does not exist.
var ErrUnknownAction = errors.New("story: unknown action")

// Section is one narrative step.
type Section struct {
	Action string `yaml:"action"`
	Body   string `yaml:"body"`
}

// Story is an ordered set of sections.
type Story struct {
	Title string    `yaml:"title"`
	Steps []Section `yaml:"steps"`
}

// Default returns the built-in story.
func Default() (*Story, error) {
	return Parse(builtin)
}

// Load reads a story file; an empty path returns the built-in story.
func Load(path string) (*Story, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("story: %s not found", path)
		}
		return nil, fmt.Errorf("story: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("story: %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates story YAML.
func Parse(data []byte) (*Story, error) {
	var s Story
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("story: parse: %w", err)
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Story) normalize() {
	s.Title = strings.TrimSpace(s.Title)
	for i := range s.Steps {
		s.Steps[i].Action = strings.ToLower(strings.TrimSpace(s.Steps[i].Action))
		s.Steps[i].Body = strings.TrimRight(s.Steps[i].Body, "\n")
	}
}

// Validate checks the story has at least one step and every step names an action.
func (s *Story) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("story: at least one step is required")
	}
	for i, step := range s.Steps {
		if step.Action == "" {
			return fmt.Errorf("story: steps[%d]: action is required", i)
		}
	}
	return nil
}

// Len returns the number of steps.
func (s *Story) Len() int {
	return len(s.Steps)
}

// Bind turns the story into stepper records. Each step activates the named
// action and forwards progress to update.
func (s *Story) Bind(actions map[string]func() error, update func(progress float64) error) ([]stepper.Step, error) {
	steps := make([]stepper.Step, len(s.Steps))
	for i, section := range s.Steps {
		activate, ok := actions[section.Action]
		if !ok || activate == nil {
			return nil, fmt.Errorf("%w: steps[%d] %q", ErrUnknownAction, i, section.Action)
		}
		steps[i] = stepper.Step{
			Index:    i,
			Name:     section.Action,
			Activate: activate,
			Update:   update,
		}
	}
	return steps, nil
}
