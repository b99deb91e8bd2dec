package converter

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/imrashb/modelconv/internal/config"
	"github.com/imrashb/modelconv/internal/log"
)

// downloadFunc fetches a model's feature-extraction export from the hub
// into dest and returns the model directory.
type downloadFunc func(id, dest string) (string, error)

// hubDownload fetches the model's ONNX export plus its tokenizer files.
func hubDownload(id, dest string) (string, error) {
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = config.DefaultOnnxFilePath
	return hugot.DownloadModel(id, dest, opts)
}

// downloadWithFallback tries the namespaced identifier first and retries
// with the bare identifier when the hub rejects it. Both forms name the
// same model; older hub layouts only resolve one of them.
func downloadWithFallback(dl downloadFunc, namespaced, bare, dest string, logger *log.Logger) (string, error) {
	modelPath, err := dl(namespaced, dest)
	if err == nil {
		return modelPath, nil
	}
	logger.Warn("namespaced identifier rejected, retrying with bare identifier",
		"namespaced", namespaced, "bare", bare, "error", err)

	modelPath, retryErr := dl(bare, dest)
	if retryErr != nil {
		return "", fmt.Errorf("download %s (and %s): %w", namespaced, bare, retryErr)
	}
	return modelPath, nil
}

// hubExportStrategy is the primary pathway: download the model's
// feature-extraction ONNX export from the hub and validate it by
// constructing an ORT pipeline over it.
type hubExportStrategy struct {
	cfg      config.AppConfig
	logger   *log.Logger
	download downloadFunc
}

func newHubExportStrategy(cfg config.AppConfig, logger *log.Logger) *hubExportStrategy {
	return &hubExportStrategy{cfg: cfg, logger: logger, download: hubDownload}
}

func (s *hubExportStrategy) Name() string { return "ort-feature-extraction" }

// Available reports whether the ONNX Runtime backend can run: compiled in
// and its shared library resolvable.
func (s *hubExportStrategy) Available() error {
	return ortAvailable()
}

func (s *hubExportStrategy) Export(ctx context.Context) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}

	modelPath, err := downloadWithFallback(s.download, s.cfg.ModelID(), s.cfg.BareModelID(), s.cfg.WorkDir(), s.logger)
	if err != nil {
		return Candidate{}, err
	}

	if err := s.validate(modelPath); err != nil {
		return Candidate{}, fmt.Errorf("validate export: %w", err)
	}

	return Candidate{Dir: modelPath, TokenizerDir: modelPath}, nil
}

// validate constructs a feature-extraction pipeline over the export; a
// graph the runtime cannot load must fail here, not in the consumer.
func (s *hubExportStrategy) validate(modelPath string) error {
	session, err := newORTSession()
	if err != nil {
		return fmt.Errorf("create ort session: %w", err)
	}
	defer func() { _ = session.Destroy() }()

	_, err = hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "convert-validate",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}
	return nil
}

// bareExportStrategy is the simplified last-resort pathway: a plain hub
// download using only the bare identifier, with no pipeline validation.
type bareExportStrategy struct {
	cfg      config.AppConfig
	logger   *log.Logger
	download downloadFunc
}

func newBareExportStrategy(cfg config.AppConfig, logger *log.Logger) *bareExportStrategy {
	return &bareExportStrategy{cfg: cfg, logger: logger, download: hubDownload}
}

func (s *bareExportStrategy) Name() string { return "hub-bare" }

// Available always reports ready: a plain download needs no backend.
func (s *bareExportStrategy) Available() error { return nil }

func (s *bareExportStrategy) Export(ctx context.Context) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}

	modelPath, err := s.download(s.cfg.BareModelID(), s.cfg.WorkDir())
	if err != nil {
		return Candidate{}, fmt.Errorf("download %s: %w", s.cfg.BareModelID(), err)
	}
	return Candidate{Dir: modelPath, TokenizerDir: modelPath}, nil
}
