package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Modules: ModulesConfig{Dir: "modules"},
		Content: ContentConfig{Dir: "content"},
		Scripting: ScriptingConfig{
			InstructionLimit: 100_000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
modules:
  dir: /srv/weft/modules
content:
  dir: /srv/weft/content
scripting:
  instruction_limit: 50000
logging:
  level: debug
  format: console
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/weft/modules", cfg.Modules.Dir)
	assert.Equal(t, "/srv/weft/content", cfg.Content.Dir)
	assert.Equal(t, 50000, cfg.Scripting.InstructionLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "modules", cfg.Modules.Dir)
	assert.Equal(t, "content", cfg.Content.Dir)
	assert.Equal(t, 0, cfg.Scripting.InstructionLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: warn
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "modules", cfg.Modules.Dir)
}

func TestValidateModulesDirEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Modules.Dir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateContentDirEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Content.Dir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateInstructionLimitNegative(t *testing.T) {
	cfg := validConfig()
	cfg.Scripting.InstructionLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

// Property-based tests

func TestPropertyValidInstructionLimits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(0, 10_000_000).Draw(t, "limit")
		cfg := validConfig()
		cfg.Scripting.InstructionLimit = limit
		assert.NoError(t, cfg.Validate())
	})
}

func TestPropertyValidationCollectsAllViolations(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		breakModules := rapid.Bool().Draw(t, "breakModules")
		breakLevel := rapid.Bool().Draw(t, "breakLevel")
		if breakModules {
			cfg.Modules.Dir = ""
		}
		if breakLevel {
			cfg.Logging.Level = "bogus"
		}

		err := cfg.Validate()
		if !breakModules && !breakLevel {
			assert.NoError(t, err)
			return
		}
		require.Error(t, err)
		if breakModules {
			assert.Contains(t, err.Error(), "modules.dir")
		}
		if breakLevel {
			assert.Contains(t, err.Error(), "logging.level")
		}
	})
}
