package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/pertloom/internal/claude"
	"github.com/joshharrison/pertloom/internal/cpm"
	"github.com/joshharrison/pertloom/internal/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pertloom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "CPM", cfg.Mode)
	assert.Equal(t, cpm.DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Nil(t, cfg.Output.Color)
	assert.Equal(t, 7171, cfg.Viewer.Port)
	assert.Equal(t, claude.DefaultModel, cfg.Claude.Model)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config { return Default() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"PERT mode", func(c *Config) { c.Mode = "PERT" }, false},
		{"unknown mode", func(c *Config) { c.Mode = "GANTT" }, true},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }, true},
		{"negative tolerance", func(c *Config) { c.Tolerance = -0.5 }, true},
		{"bad output format", func(c *Config) { c.Output.Format = "csv" }, true},
		{"port too large", func(c *Config) { c.Viewer.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Logging = logging.Config{Level: "loud"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
mode: PERT
tolerance: 0.05
output:
  format: json
  color: false
logging:
  level: debug
  format: json
viewer:
  port: 9000
claude:
  model: claude-opus-4-1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "PERT", cfg.Mode)
	assert.Equal(t, 0.05, cfg.Tolerance)
	assert.Equal(t, "json", cfg.Output.Format)
	require.NotNil(t, cfg.Output.Color)
	assert.False(t, *cfg.Output.Color)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, 9000, cfg.Viewer.Port)
	assert.Equal(t, "claude-opus-4-1", cfg.Claude.Model)
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "colour: true\n"},
		{"invalid yaml", "mode: [\n"},
		{"invalid value", "mode: GANTT\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("env path", func(t *testing.T) {
		t.Setenv(envConfigPath, writeConfig(t, "mode: PERT\n"))
		cfg, err := Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "PERT", cfg.Mode)
	})

	t.Run("missing optional file yields defaults", func(t *testing.T) {
		t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "absent.yaml"))
		cfg, err := Resolve("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}
