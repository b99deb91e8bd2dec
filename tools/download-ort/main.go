// Build-time tool that fetches the native libraries the ORT build tag
// depends on: the ONNX Runtime shared library and the HuggingFace
// tokenizers static library for the current platform.
//
// Optional env: ORT_VERSION        (default "1.23.2")
//               TOKENIZERS_VERSION (default "1.24.0")
//               ORT_LIB_DIR        (default "./lib")
//
// Usage: go run ./tools/download-ort
package main

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	defaultORTVersion        = "1.23.2"
	defaultTokenizersVersion = "1.24.0"
)

// artifact is one native library to fetch: the release archive it lives
// in and the file name it must end up under in the lib directory.
type artifact struct {
	label    string
	url      string
	fileName string
}

func main() {
	destDir := envOr("ORT_LIB_DIR", "./lib")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", destDir, err)
		os.Exit(1)
	}

	artifacts, err := platformArtifacts(
		envOr("ORT_VERSION", defaultORTVersion),
		envOr("TOKENIZERS_VERSION", defaultTokenizersVersion),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, a := range artifacts {
		if err := install(a, destDir); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", a.label, err)
			os.Exit(1)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func platformArtifacts(ortVersion, tokVersion string) ([]artifact, error) {
	platform := runtime.GOOS + "/" + runtime.GOARCH

	var ortArchive, ortLib, tokArchive string
	switch platform {
	case "linux/amd64":
		ortArchive, ortLib = "onnxruntime-linux-x64-%s.tgz", "libonnxruntime.so"
		tokArchive = "libtokenizers.linux-amd64.tar.gz"
	case "linux/arm64":
		ortArchive, ortLib = "onnxruntime-linux-aarch64-%s.tgz", "libonnxruntime.so"
		tokArchive = "libtokenizers.linux-arm64.tar.gz"
	case "darwin/arm64":
		ortArchive, ortLib = "onnxruntime-osx-arm64-%s.tgz", "libonnxruntime.dylib"
		tokArchive = "libtokenizers.darwin-arm64.tar.gz"
	case "darwin/amd64":
		ortArchive, ortLib = "onnxruntime-osx-x86_64-%s.tgz", "libonnxruntime.dylib"
		tokArchive = "libtokenizers.darwin-x86_64.tar.gz"
	default:
		return nil, fmt.Errorf("no prebuilt libraries for %s", platform)
	}

	return []artifact{
		{
			label: "onnxruntime " + ortVersion,
			url: fmt.Sprintf(
				"https://github.com/microsoft/onnxruntime/releases/download/v%s/%s",
				ortVersion, fmt.Sprintf(ortArchive, ortVersion),
			),
			fileName: ortLib,
		},
		{
			label: "tokenizers " + tokVersion,
			url: fmt.Sprintf(
				"https://github.com/daulet/tokenizers/releases/download/v%s/%s",
				tokVersion, tokArchive,
			),
			fileName: "libtokenizers.a",
		},
	}, nil
}

func install(a artifact, destDir string) error {
	destPath := filepath.Join(destDir, a.fileName)
	if _, err := os.Stat(destPath); err == nil {
		fmt.Printf("%s already present at %s, skipping\n", a.label, destPath)
		return nil
	}

	fmt.Printf("Downloading %s from %s\n", a.label, a.url)
	if err := fetchWithRetry(a.url, destDir, a.fileName); err != nil {
		return err
	}

	fmt.Printf("%s installed to %s\n", a.label, destPath)
	return nil
}

func fetchWithRetry(url, destDir, fileName string) error {
	delay := 2 * time.Second
	var err error
	for attempt := 0; attempt < 4; attempt++ {
		if attempt > 0 {
			fmt.Fprintf(os.Stderr, "retry in %s: %v\n", delay, err)
			time.Sleep(delay)
			delay *= 2
		}
		if err = fetchAndExtract(url, destDir, fileName); err == nil {
			return nil
		}
	}
	return err
}

func fetchAndExtract(url, destDir, fileName string) error {
	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Get(url) //nolint:gosec
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	return extractTgz(resp.Body, destDir, fileName)
}

func extractTgz(body io.Reader, destDir, fileName string) error {
	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close() //nolint:errcheck

	// Releases ship versioned variants like libonnxruntime.1.23.2.dylib,
	// so match on the stem as well as the exact name.
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		base := filepath.Base(header.Name)
		if base != fileName && !strings.HasPrefix(base, stem+".") {
			continue
		}

		return writeFile(filepath.Join(destDir, fileName), tr)
	}

	return fmt.Errorf("%s not found in archive", fileName)
}

func writeFile(path string, src io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return out.Close()
}
