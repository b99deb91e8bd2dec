// Package main is the entry point for the modelconv CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "modelconv",
		Short: "Convert the sentence-embedding model to ONNX",
		Long: `modelconv downloads the paraphrase-multilingual-MiniLM-L12-v2
sentence-embedding model, exports it to ONNX and installs the artifact under
src/main/resources/models/ for the application to load.

A bare invocation runs the conversion with compiled-in defaults.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	cmd.AddCommand(convertCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}
