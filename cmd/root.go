// Package cmd implements the lectern command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lectern answers questions about your course materials",
	Long: `Lectern is a retrieval-augmented assistant for course materials.
Questions are answered with the Gemini API; when course-specific content is
needed, the model searches the indexed materials and answers with citations.

Running lectern without a subcommand starts an interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
