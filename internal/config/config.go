// internal/config/config.go
//
// This package handles configuration and the .scrolly directory structure.
// Every project that runs scrolly gets a .scrolly/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/scrolly/internal/scroller"
	"gopkg.in/yaml.v3"
)

const (
	// ScrollyDir is the name of the directory we create in each project
	ScrollyDir = ".scrolly"

	defaultLeadMargin = scroller.DefaultLeadMargin
	defaultStyle      = "auto"
)

const defaultProjectConfigYAML = `# scrolly project configuration
version: 1

# Story file (YAML). Leave empty for the built-in festival headliner story.
story: ""

# Headliner dataset (YAML). Leave empty for the built-in dataset.
dataset: ""

# Lines subtracted from the scroll offset before working out the active step.
# Negative values move the trigger line down the screen.
lead_margin: 10

# glamour style for the narrative: auto, dark, light, notty, ascii, dracula, pink.
style: auto

# Draw the histogram at its final size instead of animating it.
reduced_motion: false

# Serve prometheus metrics here, e.g. 127.0.0.1:2112. Empty disables it.
metrics_addr: ""
`

// ProjectConfig models .scrolly/config.yaml.
type ProjectConfig struct {
	Version       int     `yaml:"version"`
	Story         string  `yaml:"story"`
	Dataset       string  `yaml:"dataset"`
	LeadMargin    float64 `yaml:"lead_margin"`
	Style         string  `yaml:"style"`
	ReducedMotion bool    `yaml:"reduced_motion"`
	MetricsAddr   string  `yaml:"metrics_addr"`

	leadMarginSet bool
}

// UnmarshalYAML records whether lead_margin was present, since 0 is a valid margin.
func (pc *ProjectConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain ProjectConfig
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*pc = ProjectConfig(raw)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "lead_margin" {
			pc.leadMarginSet = true
		}
	}
	return nil
}

// Config holds the runtime configuration for scrolly.
type Config struct {
	// ProjectDir is the directory scrolly was started in
	ProjectDir string

	// ScrollyProjectDir is ProjectDir/.scrolly
	ScrollyProjectDir string

	Project ProjectConfig
}

// InitDir creates the .scrolly directory structure in the given project directory.
//
// Structure created:
// .scrolly/
// ├── config.yaml
// └── logs/         <- scrolly.log (diagnostics) and journal.log (activations)
func InitDir(projectDir string) error {
	scrollyDir := filepath.Join(projectDir, ScrollyDir)
	if err := os.MkdirAll(filepath.Join(scrollyDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(scrollyDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		ScrollyProjectDir: filepath.Join(projectDir, ScrollyDir),
		Project:           defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.ScrollyProjectDir, "logs")
}

// JournalPath returns the activation journal's path
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ScrollyProjectDir, "config.yaml")
}

// StoryPath returns the configured story file, empty for the built-in story.
func (c *Config) StoryPath() string {
	return c.Project.Story
}

// DatasetPath returns the configured dataset file, empty for the built-in dataset.
func (c *Config) DatasetPath() string {
	return c.Project.Dataset
}

// LeadMargin returns the resolver lead margin in lines.
func (c *Config) LeadMargin() float64 {
	return c.Project.LeadMargin
}

// Style returns the glamour style name.
func (c *Config) Style() string {
	return c.Project.Style
}

// ReducedMotion reports whether animations are disabled.
func (c *Config) ReducedMotion() bool {
	return c.Project.ReducedMotion
}

// MetricsAddr returns the metrics listen address, empty when disabled.
func (c *Config) MetricsAddr() string {
	return c.Project.MetricsAddr
}

// Overrides carries command-line values that win over config.yaml. Nil
// fields leave the file's value in place.
type Overrides struct {
	Story         *string
	Dataset       *string
	LeadMargin    *float64
	Style         *string
	ReducedMotion *bool
	MetricsAddr   *string
}

// Apply merges overrides and re-validates.
func (c *Config) Apply(o Overrides) error {
	if o.Story != nil {
		c.Project.Story = *o.Story
	}
	if o.Dataset != nil {
		c.Project.Dataset = *o.Dataset
	}
	if o.LeadMargin != nil {
		c.Project.LeadMargin = *o.LeadMargin
		c.Project.leadMarginSet = true
	}
	if o.Style != nil {
		c.Project.Style = *o.Style
	}
	if o.ReducedMotion != nil {
		c.Project.ReducedMotion = *o.ReducedMotion
	}
	if o.MetricsAddr != nil {
		c.Project.MetricsAddr = *o.MetricsAddr
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:       1,
		LeadMargin:    defaultLeadMargin,
		Style:         defaultStyle,
		leadMarginSet: true,
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if !pc.leadMarginSet {
		pc.LeadMargin = defaultLeadMargin
		pc.leadMarginSet = true
	}
	if strings.TrimSpace(pc.Style) == "" {
		pc.Style = defaultStyle
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Story = resolvePath(base, pc.Story)
	pc.Dataset = resolvePath(base, pc.Dataset)
	pc.Style = strings.ToLower(strings.TrimSpace(pc.Style))
	pc.MetricsAddr = strings.TrimSpace(pc.MetricsAddr)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.MetricsAddr != "" && !strings.Contains(pc.MetricsAddr, ":") {
		return fmt.Errorf("metrics_addr must be host:port")
	}
	if strings.ContainsAny(pc.Style, " \t") {
		return fmt.Errorf("style must be a single glamour style name")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
