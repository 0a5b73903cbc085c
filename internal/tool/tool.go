// Package tool defines the tool catalog presented to the model and the
// course-content search tool that backs it.
//
// Tools receive their arguments as the raw map the model produced and always
// answer with text: execution failures are reported in the returned string
// rather than as errors, because the result is forwarded straight back to
// the model for its final answer.
package tool

import (
	"context"

	"google.golang.org/genai"
)

// Tool is one callable entry in the catalog.
type Tool interface {
	// Definition declares the model-facing contract. It must not change
	// after registration.
	Definition() *genai.FunctionDeclaration

	// Execute runs the tool with the model-supplied arguments and returns
	// model-readable text.
	Execute(ctx context.Context, args map[string]any) string
}

// SourceProvider is implemented by tools that track citations for the UI.
// A tool holds at most one pending batch; the registry harvests and clears
// it after each query.
type SourceProvider interface {
	Sources() []Citation
	ClearSources()
}

// Citation is a structured reference surfaced alongside an answer.
type Citation struct {
	// Text is "<course title>" or "<course title> - Lesson <n>".
	Text string `json:"text"`

	// Link is the lesson or course URL; empty when unknown.
	Link string `json:"link,omitempty"`
}
