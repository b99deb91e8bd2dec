package converter

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"

	"github.com/imrashb/modelconv/internal/config"
	"github.com/imrashb/modelconv/internal/log"
)

// pipelineExportStrategy loads the model through the embedding pipeline
// with its ONNX execution backend and forces export completion with one
// trivial inference call. The artifact may land in a hub cache rather than
// the working directory, so discovery also searches the cache roots.
type pipelineExportStrategy struct {
	cfg      config.AppConfig
	logger   *log.Logger
	download downloadFunc
}

func newPipelineExportStrategy(cfg config.AppConfig, logger *log.Logger) *pipelineExportStrategy {
	return &pipelineExportStrategy{cfg: cfg, logger: logger, download: hubDownload}
}

func (s *pipelineExportStrategy) Name() string { return "go-pipeline" }

// Available always reports ready: the pure-Go backend is compiled in
// unconditionally.
func (s *pipelineExportStrategy) Available() error { return nil }

func (s *pipelineExportStrategy) Export(ctx context.Context) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}

	modelPath, err := s.download(s.cfg.ModelID(), s.cfg.WorkDir())
	if err != nil {
		return Candidate{}, fmt.Errorf("download %s: %w", s.cfg.ModelID(), err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return Candidate{}, fmt.Errorf("create go session: %w", err)
	}
	defer func() { _ = session.Destroy() }()

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "convert-export",
	})
	if err != nil {
		return Candidate{}, fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	// One trivial inference forces the backend to finish materialising
	// the export before we go looking for the file.
	s.logger.Info("running test inference to force export completion")
	result, err := pipeline.RunPipeline([]string{"test"})
	if err != nil {
		return Candidate{}, fmt.Errorf("run test inference: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return Candidate{}, fmt.Errorf("test inference produced no embeddings")
	}
	s.logger.Debug("test inference succeeded", "dimensions", len(result.Embeddings[0]))

	return Candidate{
		Dir:          modelPath,
		CacheRoots:   s.cfg.CacheRoots(),
		TokenizerDir: modelPath,
	}, nil
}
