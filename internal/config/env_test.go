package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Empty(t, cfg.ModelID)
	assert.Empty(t, cfg.OutputDir)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("MODEL_ID", "acme/tiny-model")
	t.Setenv("PROJECT_ROOT", "/proj")
	t.Setenv("OUTPUT_DIR", "/out")
	t.Setenv("WORK_DIR", "/work")
	t.Setenv("CACHE_DIRS", "/cache/a, /cache/b")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "acme/tiny-model", cfg.ModelID)
	assert.Equal(t, "/proj", cfg.ProjectRoot)
	assert.Equal(t, "/out", cfg.OutputDir)
	assert.Equal(t, "/work", cfg.WorkDir)
	assert.Equal(t, "/cache/a, /cache/b", cfg.CacheDirs)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestToAppConfig(t *testing.T) {
	env := EnvConfig{
		ModelID:   "acme/tiny-model",
		OutputDir: "/out",
		CacheDirs: "/cache/a,/cache/b",
		LogLevel:  "DEBUG",
		LogFormat: "json",
	}

	cfg := env.ToAppConfig()

	assert.Equal(t, "acme/tiny-model", cfg.ModelID())
	assert.Equal(t, "/out", cfg.OutputDir())
	assert.Equal(t, []string{"/cache/a", "/cache/b"}, cfg.CacheRoots())
	assert.Equal(t, "DEBUG", cfg.LogLevel())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
}

func TestToAppConfigEmptyKeepsDefaults(t *testing.T) {
	cfg := EnvConfig{LogLevel: "INFO", LogFormat: "pretty"}.ToAppConfig()

	assert.Equal(t, DefaultModelID, cfg.ModelID())
	assert.Equal(t, ".", cfg.ProjectRoot())
	assert.Equal(t, LogFormatPretty, cfg.LogFormat())
}

func TestParseCacheDirs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "/a", []string{"/a"}},
		{"multiple", "/a,/b", []string{"/a", "/b"}},
		{"whitespace", " /a , /b ", []string{"/a", "/b"}},
		{"trailing comma", "/a,", []string{"/a"}},
		{"only commas", ",,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCacheDirs(tt.input))
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, LogFormatJSON, parseLogFormat("json"))
	assert.Equal(t, LogFormatJSON, parseLogFormat("JSON"))
	assert.Equal(t, LogFormatPretty, parseLogFormat("pretty"))
	assert.Equal(t, LogFormatPretty, parseLogFormat("anything-else"))
}
