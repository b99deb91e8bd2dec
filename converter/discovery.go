package converter

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/imrashb/modelconv/internal/config"
)

// conventionalNames are probed directly before any recursive search.
var conventionalNames = []string{
	filepath.FromSlash(config.DefaultOnnxFilePath),
	"model.onnx",
}

// locateArtifact finds the ONNX file under root. It probes the conventional
// locations first and falls back to a recursive search for any file with the
// .onnx extension, taking the first match.
func locateArtifact(root string) (string, error) {
	if root == "" {
		return "", ErrArtifactNotFound
	}

	for _, name := range conventionalNames {
		candidate := filepath.Join(root, name)
		if isRegularFile(candidate) {
			return candidate, nil
		}
	}

	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtree; keep searching elsewhere.
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".onnx") {
			return nil
		}
		found = path
		return fs.SkipAll
	})
	if found == "" {
		return "", fmt.Errorf("%w under %s", ErrArtifactNotFound, root)
	}
	return found, nil
}

// cacheSearchKeys returns the directory-name forms the hub caches use for
// the given identifiers: the huggingface cache replaces the namespace
// separator with "--", the sentence_transformers cache with "_".
func cacheSearchKeys(ids ...string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, id := range ids {
		for _, sep := range []string{"--", "_"} {
			key := strings.ReplaceAll(id, "/", sep)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

// searchModelCaches looks for an ONNX file belonging to one of the given
// model identifiers under the cache roots, preferring matches carrying the
// conventional model.onnx name.
func searchModelCaches(roots []string, ids ...string) (string, error) {
	keys := cacheSearchKeys(ids...)

	var fallback string
	for _, root := range roots {
		matches := collectCacheMatches(root, keys)
		for _, m := range matches {
			if filepath.Base(m) == "model.onnx" {
				return m, nil
			}
		}
		if fallback == "" && len(matches) > 0 {
			fallback = matches[0]
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("%w in caches: %s", ErrArtifactNotFound, strings.Join(roots, ", "))
}

func collectCacheMatches(root string, keys []string) []string {
	var matches []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".onnx") {
			return nil
		}
		for _, key := range keys {
			if strings.Contains(path, key) {
				matches = append(matches, path)
				break
			}
		}
		return nil
	})
	return matches
}
