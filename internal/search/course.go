package search

// Course is the catalog entry for one course.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Lesson is one lesson within a course.
type Lesson struct {
	Number int
	Title  string
	Link   string
}

// Chunk is one pre-chunked piece of course content ready for indexing.
// Chunking happens upstream; the store only embeds and persists.
type Chunk struct {
	CourseTitle  string
	LessonNumber *int
	Index        int
	Content      string
}
