// Package converter turns the configured sentence-embedding model into a
// single ONNX artifact installed at a fixed path under the application's
// resources directory.
package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"

	"github.com/imrashb/modelconv/internal/config"
	"github.com/imrashb/modelconv/internal/log"
)

// Converter runs the export attempt chain, discovers the produced artifact
// and installs it at the fixed output path.
type Converter struct {
	cfg        config.AppConfig
	logger     *log.Logger
	strategies []ExportStrategy

	// removeAll performs the best-effort work directory cleanup.
	removeAll func(string) error
}

// New creates a Converter with the default strategy chain: the ORT-backed
// feature-extraction export, the pure-Go embedding pipeline with its ONNX
// execution backend, and finally the simplified bare-identifier download.
func New(cfg config.AppConfig, logger *log.Logger) *Converter {
	return &Converter{
		cfg:    cfg,
		logger: logger,
		strategies: []ExportStrategy{
			newHubExportStrategy(cfg, logger),
			newPipelineExportStrategy(cfg, logger),
			newBareExportStrategy(cfg, logger),
		},
		removeAll: os.RemoveAll,
	}
}

// WithStrategies replaces the strategy chain. Used by tests.
func (c *Converter) WithStrategies(strategies ...ExportStrategy) *Converter {
	c.strategies = strategies
	return c
}

// Run executes the full conversion pipeline. On success exactly one ONNX
// file exists at the configured output path and the temporary working
// directory has been removed.
func (c *Converter) Run(ctx context.Context) error {
	if err := c.cfg.EnsureOutputDir(); err != nil {
		return err
	}
	if err := c.cfg.EnsureWorkDir(); err != nil {
		return err
	}

	outputPath := c.cfg.OutputPath()
	if info, err := os.Stat(outputPath); err == nil {
		c.logger.Info("output already exists, will overwrite",
			"path", outputPath,
			"size", units.HumanSize(float64(info.Size())))
	}

	candidate, err := c.export(ctx)
	if err != nil {
		return err
	}

	onnxPath, err := c.discover(candidate)
	if err != nil {
		return err
	}
	c.logger.Info("found onnx artifact", "path", onnxPath)

	return c.finalize(onnxPath, candidate.TokenizerDir)
}

// export walks the strategy chain in order. Unavailable backends advance
// the chain; an export failure from an available backend aborts.
func (c *Converter) export(ctx context.Context) (Candidate, error) {
	var skipped []string
	for _, strategy := range c.strategies {
		if err := strategy.Available(); err != nil {
			c.logger.Info("export backend unavailable, trying next",
				"strategy", strategy.Name(), "reason", err)
			skipped = append(skipped, strategy.Name())
			continue
		}

		c.logger.Info("attempting export", "strategy", strategy.Name(), "model", c.cfg.ModelID())
		candidate, err := strategy.Export(ctx)
		if err != nil {
			return Candidate{}, fmt.Errorf("export via %s: %w", strategy.Name(), err)
		}
		return candidate, nil
	}

	return Candidate{}, fmt.Errorf("%w: no usable export backend (tried: %s); %s",
		ErrUnavailable, strings.Join(skipped, ", "), installHint)
}

// discover locates the ONNX file the export left behind: the candidate
// directory first, then any hub cache roots the strategy nominated.
func (c *Converter) discover(candidate Candidate) (string, error) {
	path, err := locateArtifact(candidate.Dir)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, ErrArtifactNotFound) {
		return "", err
	}

	if len(candidate.CacheRoots) > 0 {
		c.logger.Info("searching hub caches for onnx artifact", "roots", strings.Join(candidate.CacheRoots, ", "))
		if path, err := searchModelCaches(candidate.CacheRoots, c.cfg.ModelID(), c.cfg.BareModelID()); err == nil {
			return path, nil
		}
	}

	searched := candidate.Dir
	if searched == "" {
		searched = strings.Join(candidate.CacheRoots, ", ")
	}
	return "", fmt.Errorf("%w: export reported success but nothing was found in %s", ErrArtifactNotFound, searched)
}

// finalize installs the artifact at the output path, copies the tokenizer
// configuration beside it and removes the working directory. Cleanup
// failures are logged, never fatal.
func (c *Converter) finalize(onnxPath, tokenizerDir string) error {
	outputPath := c.cfg.OutputPath()
	if err := copyPreserving(onnxPath, outputPath); err != nil {
		return fmt.Errorf("install artifact: %w", err)
	}

	if tokenizerDir != "" {
		if err := installTokenizerConfig(tokenizerDir, c.cfg.TokenizerOutputDir()); err != nil {
			return fmt.Errorf("install tokenizer configuration: %w", err)
		}
	}

	workDir := c.cfg.WorkDir()
	if err := c.removeAll(workDir); err != nil {
		c.logger.Warn("could not clean up work directory", "dir", workDir, "error", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}
	c.logger.Info("conversion complete",
		"path", outputPath,
		"size", units.HumanSize(float64(info.Size())))
	return nil
}

// copyPreserving copies src to dst, overwriting dst and carrying over the
// source's permission bits and modification time.
func copyPreserving(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// An existing destination keeps its old mode; align it with the source.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// installTokenizerConfig copies the tokenizer JSON files sitting beside the
// exported model into destDir. Missing files are skipped: not every model
// publishes the full set.
func installTokenizerConfig(srcDir, destDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(destDir, entry.Name())
		if err := copyPreserving(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
