package tool

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// Registry is the name-keyed tool catalog.
//
// Registration order is preserved for Definitions and HarvestSources.
// Registering a name twice overwrites the earlier tool in place, keeping its
// position; last write wins.
//
// Registry is not safe for concurrent registration; register everything at
// startup, then share it read-only across queries.
type Registry struct {
	order  []string
	byName map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byName: make(map[string]Tool),
		logger: logger,
	}
}

// Register stores t under its declared name.
func (r *Registry) Register(t Tool) {
	name := t.Definition().Name
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	} else {
		r.logger.Warn("overwriting registered tool", "name", name)
	}
	r.byName[name] = t
}

// Definitions returns the catalog in registration order, for presentation
// to the model.
func (r *Registry) Definitions() []*genai.FunctionDeclaration {
	defs := make([]*genai.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.byName[name].Definition())
	}
	return defs
}

// Invoke dispatches a model-issued call by name.
//
// An unknown name comes back as text, not an error: the caller is in the
// middle of a model continuation and must always have something to forward.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) string {
	t, ok := r.byName[name]
	if !ok {
		r.logger.Warn("tool not found", "name", name)
		return fmt.Sprintf("Tool '%s' not found", name)
	}
	return t.Execute(ctx, args)
}

// HarvestSources collects every tool's pending citation batch in
// registration order and clears them. Returns an empty slice when no tool
// fired since the last harvest.
func (r *Registry) HarvestSources() []Citation {
	var all []Citation
	for _, name := range r.order {
		provider, ok := r.byName[name].(SourceProvider)
		if !ok {
			continue
		}
		if sources := provider.Sources(); len(sources) > 0 {
			all = append(all, sources...)
			provider.ClearSources()
		}
	}
	return all
}
