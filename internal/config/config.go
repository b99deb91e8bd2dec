// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Default configuration values.
const (
	// DefaultModelID is the hub identifier of the sentence-embedding model
	// to convert, including the publisher namespace.
	DefaultModelID = "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"

	DefaultLogLevel = "INFO"

	// DefaultOnnxFilePath is the conventional location of the ONNX export
	// inside a downloaded model directory.
	DefaultOnnxFilePath = "onnx/model.onnx"
)

// Relative directory layout under the project root. The output directory
// matches the resources layout of the JVM application that loads the model.
var (
	defaultOutputSubdir = filepath.Join("src", "main", "resources", "models")
	defaultWorkSubdir   = "models"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// AppConfig holds the converter configuration. All values have compiled-in
// defaults so a zero-configuration run converts the default model into the
// default project layout.
type AppConfig struct {
	modelID     string
	projectRoot string
	outputDir   string
	workDir     string
	cacheRoots  []string
	logLevel    string
	logFormat   LogFormat
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		modelID:     DefaultModelID,
		projectRoot: ".",
		logLevel:    DefaultLogLevel,
		logFormat:   LogFormatPretty,
	}
}

// ModelID returns the namespaced model identifier.
func (c AppConfig) ModelID() string { return c.modelID }

// BareModelID returns the model identifier without its namespace prefix.
// Both forms are accepted by the hub; the bare form is the fallback input
// to the export stage and names the output file.
func (c AppConfig) BareModelID() string {
	if idx := strings.LastIndex(c.modelID, "/"); idx >= 0 {
		return c.modelID[idx+1:]
	}
	return c.modelID
}

// ProjectRoot returns the project root directory.
func (c AppConfig) ProjectRoot() string { return c.projectRoot }

// OutputDir returns the directory receiving the final artifact.
func (c AppConfig) OutputDir() string {
	if c.outputDir != "" {
		return c.outputDir
	}
	return filepath.Join(c.projectRoot, defaultOutputSubdir)
}

// WorkDir returns the temporary working directory for intermediate files.
func (c AppConfig) WorkDir() string {
	if c.workDir != "" {
		return c.workDir
	}
	return filepath.Join(c.projectRoot, defaultWorkSubdir)
}

// OutputPath returns the fixed destination path of the converted model.
func (c AppConfig) OutputPath() string {
	return filepath.Join(c.OutputDir(), c.BareModelID()+".onnx")
}

// TokenizerOutputDir returns the directory receiving the tokenizer
// configuration installed beside the model file.
func (c AppConfig) TokenizerOutputDir() string {
	return filepath.Join(c.OutputDir(), c.BareModelID())
}

// CacheRoots returns the hub cache directories searched by the cache-based
// export strategy. Defaults to the two cache conventions under the user's
// home directory.
func (c AppConfig) CacheRoots() []string {
	if len(c.cacheRoots) > 0 {
		roots := make([]string, len(c.cacheRoots))
		copy(roots, c.cacheRoots)
		return roots
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".cache", "huggingface"),
		filepath.Join(home, ".cache", "sentence_transformers"),
	}
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// EnsureOutputDir creates the output directory if it does not exist.
func (c AppConfig) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir(), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// EnsureWorkDir creates the temporary working directory if it does not exist.
func (c AppConfig) EnsureWorkDir() error {
	if err := os.MkdirAll(c.WorkDir(), 0o755); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithModelID sets the namespaced model identifier.
func WithModelID(id string) AppConfigOption {
	return func(c *AppConfig) { c.modelID = id }
}

// WithProjectRoot sets the project root directory.
func WithProjectRoot(dir string) AppConfigOption {
	return func(c *AppConfig) { c.projectRoot = dir }
}

// WithOutputDir overrides the output directory.
func WithOutputDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.outputDir = dir }
}

// WithWorkDir overrides the temporary working directory.
func WithWorkDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.workDir = dir }
}

// WithCacheRoots overrides the hub cache directories.
func WithCacheRoots(roots []string) AppConfigOption {
	return func(c *AppConfig) {
		c.cacheRoots = make([]string, len(roots))
		copy(c.cacheRoots, roots)
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("model", c.modelID),
		slog.String("output_path", c.OutputPath()),
		slog.String("work_dir", c.WorkDir()),
		slog.String("log_level", c.logLevel),
	}
}
