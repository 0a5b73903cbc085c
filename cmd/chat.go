package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lectern0/lectern/internal/app"
	"github.com/lectern0/lectern/internal/config"
	"github.com/lectern0/lectern/internal/tool"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation about the course materials",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = a.Close() }()

	sessionID := uuid.NewString()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Ask about your course materials. Type 'exit' or Ctrl+D to quit.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		answer, sources, err := a.System.Query(ctx, input, sessionID)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}

		fmt.Fprintln(out, answer)
		printSources(cmd, sources)
		fmt.Fprintln(out)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// printSources lists the citations backing the last answer.
func printSources(cmd *cobra.Command, sources []tool.Citation) {
	if len(sources) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nSources:")
	for _, s := range sources {
		if s.Link != "" {
			fmt.Fprintf(out, "  - %s (%s)\n", s.Text, s.Link)
		} else {
			fmt.Fprintf(out, "  - %s\n", s.Text)
		}
	}
}
