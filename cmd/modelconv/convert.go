package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/imrashb/modelconv/converter"
	"github.com/imrashb/modelconv/internal/config"
	"github.com/imrashb/modelconv/internal/log"
)

func convertCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Download the model and install its ONNX export",
		Long: `Download the model and install its ONNX export.

Configuration is loaded in the following order (later sources override
earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables

Environment variables:
  MODEL_ID      Namespaced hub identifier of the model to convert
                (default: sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2)
  PROJECT_ROOT  Project root the output layout is resolved against (default: .)
  OUTPUT_DIR    Output directory (default: {project_root}/src/main/resources/models)
  WORK_DIR      Temporary working directory (default: {project_root}/models)
  CACHE_DIRS    Comma-separated hub cache directories to search
  LOG_LEVEL     Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT    Log format: pretty, json (default: pretty)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func runConvert(envFile string) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := log.Configure(cfg)

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.Slog().LogAttrs(context.Background(), slog.LevelInfo, "converting model", attrs...)

	conv := converter.New(cfg, logger)
	if err := conv.Run(context.Background()); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	return nil
}
