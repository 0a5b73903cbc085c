// Package rag coordinates answer generation: conversation history,
// the Gemini model, tool-call resolution, and citation collection.
package rag

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lectern0/lectern/internal/tool"
)

const tracerName = "github.com/lectern0/lectern/internal/rag"

// Sessions is the conversation history the coordinator reads and extends.
type Sessions interface {
	History(sessionID string) string
	Append(sessionID, question, answer string)
}

// Toolbox is the tool registry surface the coordinator depends on.
type Toolbox interface {
	Invoker
	HarvestSources() []tool.Citation
}

// System answers questions about course materials.
type System struct {
	generator *Generator
	sessions  Sessions
	tools     Toolbox
	logger    *slog.Logger
}

// NewSystem wires a query coordinator from its collaborators.
func NewSystem(generator *Generator, sessions Sessions, tools Toolbox, logger *slog.Logger) *System {
	return &System{
		generator: generator,
		sessions:  sessions,
		tools:     tools,
		logger:    logger,
	}
}

// Query answers one question. A non-empty sessionID carries conversation
// history into the prompt and records the exchange afterwards. The returned
// citations come from searches the model ran for this answer.
func (s *System) Query(ctx context.Context, question, sessionID string) (string, []tool.Citation, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rag.Query")
	defer span.End()
	span.SetAttributes(attribute.Bool("session", sessionID != ""))

	var history string
	if sessionID != "" {
		history = s.sessions.History(sessionID)
	}

	prompt := "Answer this question about course materials: " + question

	answer, err := s.generator.GenerateAnswer(ctx, prompt, history, s.tools)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", nil, err
	}

	sources := s.tools.HarvestSources()
	span.SetAttributes(attribute.Int("sources", len(sources)))

	if sessionID != "" {
		s.sessions.Append(sessionID, question, answer)
	}

	s.logger.Debug("query answered",
		slog.String("session_id", sessionID),
		slog.Int("sources", len(sources)))

	return answer, sources, nil
}
