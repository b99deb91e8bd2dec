package converter

import (
	"context"
	"errors"
)

// Sentinel errors for the conversion pipeline.
var (
	// ErrUnavailable marks an export strategy whose backend cannot run in
	// this build or environment. The chain advances past it; any other
	// error aborts the conversion.
	ErrUnavailable = errors.New("export backend unavailable")

	// ErrArtifactNotFound reports that an export apparently completed but
	// left no discoverable ONNX file.
	ErrArtifactNotFound = errors.New("onnx artifact not found")
)

// installHint is appended when every strategy reports itself unavailable.
const installHint = "install the ONNX Runtime shared library (ORT_VERSION=1.23.2 go run ./tools/download-ort) and rebuild with -tags ORT, or check network access to the model hub"

// Candidate describes where an export strategy left its artifact.
type Candidate struct {
	// Dir is the directory subtree holding the export.
	Dir string

	// CacheRoots lists hub cache directories to search when the export
	// landed in a cache rather than under Dir.
	CacheRoots []string

	// TokenizerDir holds the tokenizer configuration saved beside the
	// model, if any.
	TokenizerDir string
}

// ExportStrategy is one pathway for producing an ONNX export of the model.
// Strategies are tried in order; Available gates each attempt.
type ExportStrategy interface {
	Name() string

	// Available reports whether the strategy's backend can run at all.
	// A non-nil error moves the chain to the next strategy; it is not a
	// conversion failure.
	Available() error

	// Export produces the ONNX artifact and returns where to look for it.
	// Any error here aborts the whole conversion: the backend exists but
	// is broken, which must not be papered over by a fallback.
	Export(ctx context.Context) (Candidate, error)
}
