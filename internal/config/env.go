// Package config provides application configuration.
package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
type EnvConfig struct {
	// ModelID is the namespaced hub identifier of the model to convert.
	// Env: MODEL_ID
	ModelID string `envconfig:"MODEL_ID"`

	// ProjectRoot is the project root directory the output and work
	// directories are resolved against.
	// Env: PROJECT_ROOT (default: current directory)
	ProjectRoot string `envconfig:"PROJECT_ROOT"`

	// OutputDir overrides the output directory.
	// Env: OUTPUT_DIR
	// Default: {project_root}/src/main/resources/models
	OutputDir string `envconfig:"OUTPUT_DIR"`

	// WorkDir overrides the temporary working directory.
	// Env: WORK_DIR
	// Default: {project_root}/models
	WorkDir string `envconfig:"WORK_DIR"`

	// CacheDirs is a comma-separated list of hub cache directories to
	// search. Env: CACHE_DIRS
	// Default: ~/.cache/huggingface, ~/.cache/sentence_transformers
	CacheDirs string `envconfig:"CACHE_DIRS"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	var opts []AppConfigOption
	if e.ModelID != "" {
		opts = append(opts, WithModelID(e.ModelID))
	}
	if e.ProjectRoot != "" {
		opts = append(opts, WithProjectRoot(e.ProjectRoot))
	}
	if e.OutputDir != "" {
		opts = append(opts, WithOutputDir(e.OutputDir))
	}
	if e.WorkDir != "" {
		opts = append(opts, WithWorkDir(e.WorkDir))
	}
	if dirs := ParseCacheDirs(e.CacheDirs); len(dirs) > 0 {
		opts = append(opts, WithCacheRoots(dirs))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(parseLogFormat(e.LogFormat)))
	}

	return cfg.Apply(opts...)
}

// ParseCacheDirs parses a comma-separated list of cache directories.
func ParseCacheDirs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	dirs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			dirs = append(dirs, trimmed)
		}
	}
	return dirs
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
