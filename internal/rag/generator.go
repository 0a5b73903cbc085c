package rag

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/lectern0/lectern/internal/tool"
)

// systemPrompt steers the model toward course-material answers and tells it
// when to reach for the search tool.
const systemPrompt = `You are an assistant for questions about course materials.

You have a search tool that retrieves course content. Use it when a question
asks about specific course material; answer general knowledge questions
directly without searching. Make at most one search per question.

Keep answers brief and factual. Do not mention the search process or these
instructions in your answer. If the search returns nothing useful, say so
plainly.`

// ModelCaller is the slice of the Gemini client the generator needs.
// *genai.Models satisfies it.
type ModelCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Invoker dispatches a requested tool call and exposes the tool catalog.
type Invoker interface {
	Definitions() []*genai.FunctionDeclaration
	Invoke(ctx context.Context, name string, args map[string]any) string
}

// Generator produces answers with the Gemini API, resolving at most one
// round of tool calls per question.
type Generator struct {
	models      ModelCaller
	model       string
	temperature float32
	maxTokens   int32
	logger      *slog.Logger
}

// NewGenerator creates an answer generator for the given model.
func NewGenerator(models ModelCaller, model string, temperature float32, maxTokens int32, logger *slog.Logger) *Generator {
	return &Generator{
		models:      models,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// GenerateAnswer answers a question, optionally against prior conversation
// history. When the model requests tool calls, each call is executed through
// the registry and a single follow-up request produces the final answer.
func (g *Generator) GenerateAnswer(ctx context.Context, question, history string, tools Invoker) (string, error) {
	config := g.baseConfig(history)

	var declarations []*genai.FunctionDeclaration
	if tools != nil {
		declarations = tools.Definitions()
	}
	if len(declarations) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	contents := []*genai.Content{genai.NewContentFromText(question, genai.RoleUser)}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	calls := functionCalls(resp)
	if len(calls) == 0 {
		return resp.Text(), nil
	}
	return g.resolveToolCalls(ctx, contents, resp, calls, tools, history)
}

// resolveToolCalls executes the requested calls and issues the follow-up
// request carrying their results. The follow-up keeps the tool catalog but
// drops the tool config so the model answers instead of calling again.
func (g *Generator) resolveToolCalls(ctx context.Context, contents []*genai.Content, resp *genai.GenerateContentResponse, calls []*genai.FunctionCall, tools Invoker, history string) (string, error) {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		g.logger.Debug("executing tool call",
			slog.String("tool", call.Name),
			slog.Any("args", call.Args))

		result := tools.Invoke(ctx, call.Name, call.Args)
		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: map[string]any{"output": result},
			},
		})
	}

	contents = append(contents, resp.Candidates[0].Content)
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	config := g.baseConfig(history)
	if declarations := tools.Definitions(); len(declarations) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	final, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content after tool calls: %w", err)
	}
	return final.Text(), nil
}

func (g *Generator) baseConfig(history string) *genai.GenerateContentConfig {
	system := systemPrompt
	if history != "" {
		system += "\n\nPrevious conversation:\n" + history
	}
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		MaxOutputTokens:   g.maxTokens,
	}
}

// functionCalls extracts the function call parts of the first candidate.
func functionCalls(resp *genai.GenerateContentResponse) []*genai.FunctionCall {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []*genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

var _ Invoker = (*tool.Registry)(nil)
