// Package search implements the course-content retrieval backend on
// PostgreSQL + pgvector. It owns the search result contract consumed by the
// retrieval tool: a result set either carries document rows or a terminal
// error string, never both.
package search

// Meta describes where a matched chunk came from.
type Meta struct {
	// CourseTitle is always present.
	CourseTitle string

	// LessonNumber is nil for course-level content (e.g. the overview).
	LessonNumber *int
}

// Results is an ordered set of matched chunks.
//
// Err is terminal: when set, the backend failed or a filter matched nothing
// specific, and Documents/Metadata/Distances are empty. Callers surface Err
// as text rather than treating it as a Go error, so the model can see it.
type Results struct {
	Documents []string
	Metadata  []Meta
	Distances []float64
	Err       string
}

// Errorf builds an error-only result set.
func Errorf(msg string) Results {
	return Results{Err: msg}
}

// IsEmpty reports whether the set has no documents and no error.
func (r Results) IsEmpty() bool {
	return len(r.Documents) == 0 && r.Err == ""
}
