package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// searchTimeout bounds a single vector search round-trip.
const searchTimeout = 10 * time.Second

// Store is the retrieval backend over PostgreSQL + pgvector.
// It resolves fuzzy course names, runs filtered similarity search over
// chunks, and looks up course/lesson links for citations.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool       *pgxpool.Pool
	embedder   Embedder
	maxResults int
	logger     *slog.Logger
}

// New creates a Store.
//
// maxResults caps the rows returned per search; logger may be nil.
func New(pool *pgxpool.Pool, embedder Embedder, maxResults int, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embedder: embedder, maxResults: maxResults, logger: logger}, nil
}

// Search runs a semantic search over course chunks.
//
// courseName is fuzzy: it is resolved to an exact catalog title by vector
// similarity before filtering. lessonNumber filters exactly. Failures and
// unmatched course filters come back in Results.Err, never as a Go error,
// so the caller can hand the text to the model.
func (s *Store) Search(ctx context.Context, query string, courseName *string, lessonNumber *int) Results {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	var courseTitle *string
	if courseName != nil && *courseName != "" {
		title, err := s.resolveCourse(ctx, *courseName)
		if err != nil {
			return Errorf("Search error: " + err.Error())
		}
		if title == "" {
			return Errorf(fmt.Sprintf("No course found matching '%s'", *courseName))
		}
		courseTitle = &title
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return Errorf("Search error: " + err.Error())
	}

	rows, err := s.pool.Query(ctx, `
		SELECT course_title, lesson_number, content, embedding <=> $1 AS distance
		FROM chunks
		WHERE ($2::text IS NULL OR course_title = $2)
		  AND ($3::int IS NULL OR lesson_number = $3)
		ORDER BY distance
		LIMIT $4`,
		pgvector.NewVector(vec), courseTitle, lessonNumber, s.maxResults)
	if err != nil {
		return Errorf("Search error: " + err.Error())
	}
	defer rows.Close()

	var out Results
	for rows.Next() {
		var (
			meta     Meta
			content  string
			distance float64
		)
		if err := rows.Scan(&meta.CourseTitle, &meta.LessonNumber, &content, &distance); err != nil {
			return Errorf("Search error: " + err.Error())
		}
		out.Documents = append(out.Documents, content)
		out.Metadata = append(out.Metadata, meta)
		out.Distances = append(out.Distances, distance)
	}
	if err := rows.Err(); err != nil {
		return Errorf("Search error: " + err.Error())
	}

	s.logger.Debug("searched chunks",
		"results", len(out.Documents),
		"course_filter", courseTitle != nil,
		"lesson_filter", lessonNumber != nil)
	return out
}

// resolveCourse maps a fuzzy course name to the nearest catalog title by
// embedding similarity. Returns "" when the catalog is empty.
func (s *Store) resolveCourse(ctx context.Context, name string) (string, error) {
	vec, err := s.embedder.Embed(ctx, name)
	if err != nil {
		return "", fmt.Errorf("resolving course name: %w", err)
	}

	var title string
	err = s.pool.QueryRow(ctx, `
		SELECT title FROM courses
		ORDER BY title_embedding <=> $1
		LIMIT 1`,
		pgvector.NewVector(vec)).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving course name: %w", err)
	}
	return title, nil
}

// CourseLink returns the course's URL, or "" when unknown.
func (s *Store) CourseLink(ctx context.Context, title string) string {
	var link *string
	err := s.pool.QueryRow(ctx,
		`SELECT link FROM courses WHERE title = $1`, title).Scan(&link)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("looking up course link", "course", title, "error", err)
		}
		return ""
	}
	if link == nil {
		return ""
	}
	return *link
}

// LessonLink returns the lesson's URL, or "" when unknown.
func (s *Store) LessonLink(ctx context.Context, title string, lesson int) string {
	var link *string
	err := s.pool.QueryRow(ctx,
		`SELECT link FROM lessons WHERE course_title = $1 AND lesson_number = $2`,
		title, lesson).Scan(&link)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("looking up lesson link", "course", title, "lesson", lesson, "error", err)
		}
		return ""
	}
	if link == nil {
		return ""
	}
	return *link
}

// AddCourse upserts a course and its lessons into the catalog.
// The course title is embedded so fuzzy name resolution can find it.
func (s *Store) AddCourse(ctx context.Context, course Course) error {
	if course.Title == "" {
		return fmt.Errorf("course title is required")
	}

	vec, err := s.embedder.Embed(ctx, course.Title)
	if err != nil {
		return fmt.Errorf("embedding course title: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO courses (title, link, instructor, title_embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (title) DO UPDATE
		SET link = EXCLUDED.link,
		    instructor = EXCLUDED.instructor,
		    title_embedding = EXCLUDED.title_embedding`,
		course.Title, nullable(course.Link), nullable(course.Instructor), pgvector.NewVector(vec))
	if err != nil {
		return fmt.Errorf("upserting course %q: %w", course.Title, err)
	}

	for _, lesson := range course.Lessons {
		_, err = tx.Exec(ctx, `
			INSERT INTO lessons (course_title, lesson_number, title, link)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (course_title, lesson_number) DO UPDATE
			SET title = EXCLUDED.title,
			    link = EXCLUDED.link`,
			course.Title, lesson.Number, nullable(lesson.Title), nullable(lesson.Link))
		if err != nil {
			return fmt.Errorf("upserting lesson %d of %q: %w", lesson.Number, course.Title, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing course %q: %w", course.Title, err)
	}

	s.logger.Debug("added course", "title", course.Title, "lessons", len(course.Lessons))
	return nil
}

// AddChunks embeds and inserts pre-chunked course content.
func (s *Store) AddChunks(ctx context.Context, chunks []Chunk) error {
	for i, chunk := range chunks {
		if chunk.Content == "" {
			return fmt.Errorf("chunk %d has empty content", i)
		}
		vec, err := s.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO chunks (course_title, lesson_number, chunk_index, content, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			chunk.CourseTitle, chunk.LessonNumber, chunk.Index, chunk.Content, pgvector.NewVector(vec))
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}

	s.logger.Debug("added chunks", "count", len(chunks))
	return nil
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
