package converter

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrashb/modelconv/internal/config"
	"github.com/imrashb/modelconv/internal/log"
)

type fakeStrategy struct {
	name         string
	availableErr error
	exportErr    error
	candidate    Candidate
	exported     bool
}

func (f *fakeStrategy) Name() string     { return f.name }
func (f *fakeStrategy) Available() error { return f.availableErr }

func (f *fakeStrategy) Export(_ context.Context) (Candidate, error) {
	f.exported = true
	if f.exportErr != nil {
		return Candidate{}, f.exportErr
	}
	return f.candidate, nil
}

func testLogger() *log.Logger {
	return log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "ERROR")
}

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	return config.NewAppConfigWithOptions(config.WithProjectRoot(t.TempDir()))
}

// writeModelDir lays out a downloaded model directory with the export at
// the conventional onnx/model.onnx location.
func writeModelDir(t *testing.T, content string) string {
	t.Helper()
	modelDir := filepath.Join(t.TempDir(), "export")
	require.NoError(t, os.MkdirAll(filepath.Join(modelDir, "onnx"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "onnx", "model.onnx"), []byte(content), 0o644))
	return modelDir
}

func TestRunInstallsArtifactAndCleansUp(t *testing.T) {
	cfg := testConfig(t)
	modelDir := writeModelDir(t, "onnx-bytes")

	conv := New(cfg, testLogger()).WithStrategies(
		&fakeStrategy{name: "primary", candidate: Candidate{Dir: modelDir}},
	)

	require.NoError(t, conv.Run(context.Background()))

	data, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, "onnx-bytes", string(data))

	_, err = os.Stat(cfg.WorkDir())
	assert.True(t, os.IsNotExist(err), "work directory should be removed")
}

func TestRunOverwritesExistingOutput(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.EnsureOutputDir())
	require.NoError(t, os.WriteFile(cfg.OutputPath(), []byte("stale"), 0o644))

	modelDir := writeModelDir(t, "fresh")
	conv := New(cfg, testLogger()).WithStrategies(
		&fakeStrategy{name: "primary", candidate: Candidate{Dir: modelDir}},
	)

	require.NoError(t, conv.Run(context.Background()))

	data, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestRunSkipsUnavailableBackends(t *testing.T) {
	cfg := testConfig(t)
	modelDir := writeModelDir(t, "onnx-bytes")

	first := &fakeStrategy{name: "first", availableErr: ErrUnavailable}
	second := &fakeStrategy{name: "second", candidate: Candidate{Dir: modelDir}}
	conv := New(cfg, testLogger()).WithStrategies(first, second)

	require.NoError(t, conv.Run(context.Background()))
	assert.False(t, first.exported, "unavailable backend must not export")
	assert.True(t, second.exported)
}

func TestRunFailsFastOnExportError(t *testing.T) {
	cfg := testConfig(t)

	exportErr := errors.New("graph rejected")
	first := &fakeStrategy{name: "first", exportErr: exportErr}
	second := &fakeStrategy{name: "second"}
	conv := New(cfg, testLogger()).WithStrategies(first, second)

	err := conv.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, exportErr)
	assert.Contains(t, err.Error(), "first")
	assert.False(t, second.exported, "later backends must not run after an export failure")

	_, statErr := os.Stat(cfg.OutputPath())
	assert.True(t, os.IsNotExist(statErr), "no output on failure")
}

func TestRunAllBackendsUnavailable(t *testing.T) {
	cfg := testConfig(t)

	conv := New(cfg, testLogger()).WithStrategies(
		&fakeStrategy{name: "first", availableErr: ErrUnavailable},
		&fakeStrategy{name: "second", availableErr: ErrUnavailable},
	)

	err := conv.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
	assert.Contains(t, err.Error(), "ORT")

	_, statErr := os.Stat(cfg.OutputPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunArtifactMissingAfterExport(t *testing.T) {
	cfg := testConfig(t)
	emptyDir := t.TempDir()

	conv := New(cfg, testLogger()).WithStrategies(
		&fakeStrategy{name: "primary", candidate: Candidate{Dir: emptyDir}},
	)

	err := conv.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	_, statErr := os.Stat(cfg.OutputPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunFallsBackToCacheSearch(t *testing.T) {
	cfg := testConfig(t)

	cacheRoot := t.TempDir()
	cached := filepath.Join(cacheRoot, "models--sentence-transformers--paraphrase-multilingual-MiniLM-L12-v2", "snapshots", "abc", "onnx")
	require.NoError(t, os.MkdirAll(cached, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cached, "model.onnx"), []byte("from-cache"), 0o644))

	conv := New(cfg, testLogger()).WithStrategies(
		&fakeStrategy{name: "primary", candidate: Candidate{Dir: t.TempDir(), CacheRoots: []string{cacheRoot}}},
	)

	require.NoError(t, conv.Run(context.Background()))

	data, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, "from-cache", string(data))
}

func TestRunToleratesCleanupFailure(t *testing.T) {
	cfg := testConfig(t)
	modelDir := writeModelDir(t, "onnx-bytes")

	conv := New(cfg, testLogger()).WithStrategies(
		&fakeStrategy{name: "primary", candidate: Candidate{Dir: modelDir}},
	)
	conv.removeAll = func(string) error { return errors.New("busy") }

	require.NoError(t, conv.Run(context.Background()))
	assert.FileExists(t, cfg.OutputPath())
}

func TestRunInstallsTokenizerConfig(t *testing.T) {
	cfg := testConfig(t)
	modelDir := writeModelDir(t, "onnx-bytes")
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "tokenizer.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "special_tokens_map.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "README.md"), []byte("ignored"), 0o644))

	conv := New(cfg, testLogger()).WithStrategies(
		&fakeStrategy{name: "primary", candidate: Candidate{Dir: modelDir, TokenizerDir: modelDir}},
	)

	require.NoError(t, conv.Run(context.Background()))

	assert.FileExists(t, filepath.Join(cfg.TokenizerOutputDir(), "tokenizer.json"))
	assert.FileExists(t, filepath.Join(cfg.TokenizerOutputDir(), "special_tokens_map.json"))
	assert.NoFileExists(t, filepath.Join(cfg.TokenizerOutputDir(), "README.md"))
}

func TestRunIsRepeatable(t *testing.T) {
	cfg := testConfig(t)

	for i := 0; i < 2; i++ {
		modelDir := writeModelDir(t, "onnx-bytes")
		conv := New(cfg, testLogger()).WithStrategies(
			&fakeStrategy{name: "primary", candidate: Candidate{Dir: modelDir}},
		)
		require.NoError(t, conv.Run(context.Background()))
	}

	data, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, "onnx-bytes", string(data))
}

func TestCopyPreservingKeepsModeAndModTime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.onnx")
	dst := filepath.Join(dir, "dst.onnx")

	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, stamp, stamp))

	require.NoError(t, copyPreserving(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(stamp), "modification time should carry over")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestCopyPreservingOverwritesExistingMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.onnx")
	dst := filepath.Join(dir, "dst.onnx")

	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o600))

	require.NoError(t, copyPreserving(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
