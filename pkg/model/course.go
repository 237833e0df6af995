package model

import "fmt"

// Course represents one ingested course. The title is the identity: the
// index treats a title it has already seen as the same course and ignores
// re-ingestion.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Lesson is a single lesson within a course. Lesson numbers start at 0 in
// the source documents.
type Lesson struct {
	Number int
	Title  string
	Link   string
}

// Chunk is the atomic unit of semantic search: a text span with its origin.
// LessonNumber is nil for chunks outside any lesson section.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Index        int
}

// SourceLabel returns the human-readable origin label used for citation,
// e.g. "Building Agents - Lesson 2".
func (c *Chunk) SourceLabel() string {
	if c.LessonNumber != nil {
		return fmt.Sprintf("%s - Lesson %d", c.CourseTitle, *c.LessonNumber)
	}
	return c.CourseTitle
}
