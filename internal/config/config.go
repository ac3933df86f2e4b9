package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/pertloom/internal/claude"
	"github.com/joshharrison/pertloom/internal/cpm"
	"github.com/joshharrison/pertloom/internal/logging"
)

// DefaultConfigPath is read when no config file is named.
const DefaultConfigPath = ".pertloom.yaml"

const (
	defaultMode         = "CPM"
	defaultOutputFormat = "text"
	defaultViewerPort   = 7171
	maxViewerPort       = 65535
	outputFormatText    = "text"
	outputFormatJSON    = "json"
	envConfigPath       = "PERTLOOM_CONFIG"
)

// Config represents the complete application configuration
type Config struct {
	Mode      string         `yaml:"mode"`      // diagram type used when neither the file nor a flag names one
	Tolerance float64        `yaml:"tolerance"` // slack below which an activity counts as critical
	Output    OutputConfig   `yaml:"output"`
	Logging   logging.Config `yaml:"logging"`
	Viewer    ViewerConfig   `yaml:"viewer"`
	Claude    ClaudeConfig   `yaml:"claude"`
}

// OutputConfig controls terminal rendering
type OutputConfig struct {
	Format string `yaml:"format"` // text or json
	Color  *bool  `yaml:"color"`  // nil leaves terminal detection on
}

// ViewerConfig holds HTTP viewer settings
type ViewerConfig struct {
	Port int `yaml:"port"`
}

// ClaudeConfig holds predecessor inference settings
type ClaudeConfig struct {
	Model string `yaml:"model"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	var c Config
	c.SetDefaults()
	return c
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if m := strings.TrimSpace(c.Mode); m != "CPM" && m != "PERT" {
		return fmt.Errorf("mode must be CPM or PERT, got %q", c.Mode)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive")
	}
	if c.Output.Format != outputFormatText && c.Output.Format != outputFormatJSON {
		return fmt.Errorf("output format must be %s or %s, got %q", outputFormatText, outputFormatJSON, c.Output.Format)
	}
	if c.Viewer.Port <= 0 || c.Viewer.Port > maxViewerPort {
		return fmt.Errorf("viewer port must be between 1 and %d", maxViewerPort)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = defaultMode
	}
	if c.Tolerance == 0 {
		c.Tolerance = cpm.DefaultTolerance
	}
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	if c.Viewer.Port == 0 {
		c.Viewer.Port = defaultViewerPort
	}
	if c.Claude.Model == "" {
		c.Claude.Model = claude.DefaultModel
	}
	c.Logging.SetDefaults()
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve picks the config file to load: an explicit path must exist, while
// the PERTLOOM_CONFIG variable and the default path are optional. Without a
// file the defaults are returned.
func Resolve(explicit string) (Config, error) {
	if explicit != "" {
		return LoadConfig(explicit)
	}

	path := os.Getenv(envConfigPath)
	if path == "" {
		path = DefaultConfigPath
	}
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
