package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/lectern0/lectern/internal/log"
	"github.com/lectern0/lectern/internal/session"
	"github.com/lectern0/lectern/internal/tool"
)

// mockToolbox is an Invoker whose source batch drains on harvest.
type mockToolbox struct {
	mockInvoker
	sources []tool.Citation

	harvests int
}

func (m *mockToolbox) HarvestSources() []tool.Citation {
	m.harvests++
	out := m.sources
	m.sources = nil
	return out
}

func newTestSystem(models ModelCaller, sessions Sessions, tools Toolbox) *System {
	return NewSystem(newTestGenerator(models), sessions, tools, log.NewNop())
}

func TestQueryReturnsAnswerAndSources(t *testing.T) {
	models := &mockModels{responses: []*genai.GenerateContentResponse{textResponse("The answer.")}}
	tools := &mockToolbox{
		mockInvoker: mockInvoker{declarations: searchDeclarations()},
		sources: []tool.Citation{
			{Text: "Course A - Lesson 1", Link: "https://example.com/a/1"},
			{Text: "Course B"},
		},
	}
	sys := newTestSystem(models, session.NewStore(2, log.NewNop()), tools)

	answer, sources, err := sys.Query(context.Background(), "What is X?", "s1")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if answer != "The answer." {
		t.Errorf("answer = %q", answer)
	}
	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	if sources[0].Text != "Course A - Lesson 1" {
		t.Errorf("sources[0] = %+v", sources[0])
	}
}

func TestQueryWrapsQuestion(t *testing.T) {
	models := &mockModels{responses: []*genai.GenerateContentResponse{textResponse("ok")}}
	tools := &mockToolbox{mockInvoker: mockInvoker{declarations: searchDeclarations()}}
	sys := newTestSystem(models, session.NewStore(2, log.NewNop()), tools)

	if _, _, err := sys.Query(context.Background(), "What is Python?", ""); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	prompt := models.calls[0].contents[0].Parts[0].Text
	if prompt != "Answer this question about course materials: What is Python?" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestQuerySourcesDrainBetweenQueries(t *testing.T) {
	models := &mockModels{responses: []*genai.GenerateContentResponse{
		textResponse("first"),
		textResponse("second"),
	}}
	tools := &mockToolbox{
		mockInvoker: mockInvoker{declarations: searchDeclarations()},
		sources:     []tool.Citation{{Text: "Course A"}},
	}
	sys := newTestSystem(models, session.NewStore(2, log.NewNop()), tools)

	_, first, err := sys.Query(context.Background(), "q1", "s1")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first query sources = %d, want 1", len(first))
	}

	_, second, err := sys.Query(context.Background(), "q2", "s1")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second query must not see stale sources, got %d", len(second))
	}
}

func TestQueryRecordsAndTrimsHistory(t *testing.T) {
	models := &mockModels{responses: []*genai.GenerateContentResponse{
		textResponse("a1"),
		textResponse("a2"),
		textResponse("a3"),
	}}
	tools := &mockToolbox{mockInvoker: mockInvoker{declarations: searchDeclarations()}}
	store := session.NewStore(2, log.NewNop())
	sys := newTestSystem(models, store, tools)

	for _, q := range []string{"q1", "q2", "q3"} {
		if _, _, err := sys.Query(context.Background(), q, "s1"); err != nil {
			t.Fatalf("Query(%q) error = %v", q, err)
		}
	}

	history := store.History("s1")
	if strings.Contains(history, "q1") {
		t.Errorf("oldest exchange not trimmed: %q", history)
	}
	if !strings.Contains(history, "q2") || !strings.Contains(history, "q3") {
		t.Errorf("history missing recent exchanges: %q", history)
	}

	// the third request saw the first two exchanges
	system := models.calls[2].config.SystemInstruction.Parts[0].Text
	if !strings.Contains(system, "User: q1") || !strings.Contains(system, "User: q2") {
		t.Errorf("third request missing prior exchanges: %q", system)
	}
}

func TestQueryWithoutSessionSkipsHistory(t *testing.T) {
	models := &mockModels{responses: []*genai.GenerateContentResponse{textResponse("ok")}}
	tools := &mockToolbox{
		mockInvoker: mockInvoker{declarations: searchDeclarations()},
		sources:     []tool.Citation{{Text: "Course A"}},
	}
	store := session.NewStore(2, log.NewNop())
	sys := newTestSystem(models, store, tools)

	_, sources, err := sys.Query(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if len(sources) != 1 {
		t.Errorf("sources still harvested without session, got %d", len(sources))
	}
	if got := store.History(""); got != "" {
		t.Errorf("no exchange may be recorded without a session, got %q", got)
	}
}

func TestQueryPropagatesGeneratorError(t *testing.T) {
	wantErr := errors.New("model down")
	models := &mockModels{err: wantErr, errOnCall: 1}
	tools := &mockToolbox{mockInvoker: mockInvoker{declarations: searchDeclarations()}}
	store := session.NewStore(2, log.NewNop())
	sys := newTestSystem(models, store, tools)

	_, _, err := sys.Query(context.Background(), "q", "s1")
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
	if got := store.History("s1"); got != "" {
		t.Errorf("failed query must not be recorded, got %q", got)
	}
	if tools.harvests != 0 {
		t.Errorf("failed query must not harvest, harvests = %d", tools.harvests)
	}
}
