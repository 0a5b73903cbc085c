package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lectern0/lectern/internal/config"
)

// Version information, injected at build time via ldflags.
var (
	AppVersion = "development"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Lectern %s (%s)\n\n", AppVersion, GitCommit)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "Configuration unavailable: %v\n", err)
		if os.Getenv("GEMINI_API_KEY") == "" {
			fmt.Fprintln(out, "\nHint: export GEMINI_API_KEY=your-api-key")
		}
		return nil
	}

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Model: %s\n", cfg.ModelName)
	fmt.Fprintf(out, "  Embedder: %s\n", cfg.EmbedderModel)
	fmt.Fprintf(out, "  Temperature: %.2f\n", cfg.Temperature)
	fmt.Fprintf(out, "  Max tokens: %d\n", cfg.MaxTokens)
	fmt.Fprintf(out, "  Max results: %d\n", cfg.MaxResults)
	fmt.Fprintf(out, "  Max history: %d\n", cfg.MaxHistory)

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		fmt.Fprintln(out, "  GEMINI_API_KEY: configured")
	} else {
		fmt.Fprintln(out, "  GEMINI_API_KEY: not set")
		fmt.Fprintln(out, "\nHint: export GEMINI_API_KEY=your-api-key")
	}
	return nil
}
