package tool

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/lectern0/lectern/internal/search"
)

// SearchToolName is the catalog key for the course-content search tool.
const SearchToolName = "search_course_content"

// Searcher is the retrieval backend contract the search tool consumes.
// search.Store implements it; tests substitute a fake.
type Searcher interface {
	// Search runs a filtered semantic search. Filters are advisory and
	// passed through unmodified; failures come back in Results.Err.
	Search(ctx context.Context, query string, courseName *string, lessonNumber *int) search.Results

	// CourseLink and LessonLink resolve citation URLs; "" means unknown.
	CourseLink(ctx context.Context, title string) string
	LessonLink(ctx context.Context, title string, lesson int) string
}

// CourseSearchTool searches course content and tracks the sources of the
// last successful search so they can be surfaced as citations.
//
// A query is processed by one caller at a time; the citation batch is not
// guarded for concurrent Execute calls on the same instance.
type CourseSearchTool struct {
	store   Searcher
	sources []Citation
	logger  *slog.Logger
}

// NewCourseSearchTool creates the search tool. logger may be nil.
func NewCourseSearchTool(store Searcher, logger *slog.Logger) *CourseSearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseSearchTool{store: store, logger: logger}
}

// Definition declares the model-facing contract.
func (t *CourseSearchTool) Definition() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        genai.TypeString,
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        genai.TypeInteger,
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs the search and formats the results for the model.
//
// Backend errors are returned verbatim as the tool's output; in that case
// the previously tracked sources are left untouched. On success the tracked
// batch is replaced, one citation per result row.
func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]any) string {
	query, _ := args["query"].(string)
	if query == "" {
		return "Search error: 'query' argument is required"
	}

	var courseName *string
	if v, ok := args["course_name"].(string); ok && v != "" {
		courseName = &v
	}

	var lessonNumber *int
	if n, ok := asInt(args["lesson_number"]); ok {
		lessonNumber = &n
	}

	results := t.store.Search(ctx, query, courseName, lessonNumber)

	if results.Err != "" {
		t.logger.Debug("search failed", "error", results.Err)
		return results.Err
	}

	if results.IsEmpty() {
		return notFoundMessage(courseName, lessonNumber)
	}

	return t.formatResults(ctx, results)
}

// Sources returns the citation batch from the last successful search.
func (t *CourseSearchTool) Sources() []Citation {
	return t.sources
}

// ClearSources drops the pending citation batch.
func (t *CourseSearchTool) ClearSources() {
	t.sources = nil
}

// formatResults renders result rows for the model and replaces the tracked
// citation batch in row order.
func (t *CourseSearchTool) formatResults(ctx context.Context, results search.Results) string {
	blocks := make([]string, 0, len(results.Documents))
	sources := make([]Citation, 0, len(results.Documents))

	for i, doc := range results.Documents {
		meta := results.Metadata[i]

		header := "[" + meta.CourseTitle + "]"
		text := meta.CourseTitle
		var link string
		if meta.LessonNumber != nil {
			header = fmt.Sprintf("[%s - Lesson %d]", meta.CourseTitle, *meta.LessonNumber)
			text = fmt.Sprintf("%s - Lesson %d", meta.CourseTitle, *meta.LessonNumber)
			link = t.store.LessonLink(ctx, meta.CourseTitle, *meta.LessonNumber)
		} else {
			link = t.store.CourseLink(ctx, meta.CourseTitle)
		}

		blocks = append(blocks, header+"\n"+doc)
		sources = append(sources, Citation{Text: text, Link: link})
	}

	t.sources = sources
	return strings.Join(blocks, "\n\n")
}

// notFoundMessage names the active filters so an operator can tell which
// search came back empty.
func notFoundMessage(courseName *string, lessonNumber *int) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if courseName != nil {
		fmt.Fprintf(&b, " in course '%s'", *courseName)
	}
	if lessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *lessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

// asInt accepts the numeric encodings a decoded JSON arguments map can
// carry for an integer.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	default:
		return 0, false
	}
}
