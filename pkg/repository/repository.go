package repository

import (
	"context"

	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

var ErrCourseNotFound = goerr.New("no course found")

// Embedder produces embedding vectors for index writes and query lookups.
// adapter.Gemini satisfies this.
type Embedder interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchInput is one semantic search request. CourseName is fuzzy and gets
// resolved to an exact title before filtering. LessonNumber of nil means no
// lesson filter (0 is a valid lesson). Limit of 0 uses the index default.
type SearchInput struct {
	Query        string
	CourseName   string
	LessonNumber *int
	Limit        int
}

// Hit is one ranked passage. Distance is the vector distance, ascending is
// better.
type Hit struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Distance     float64
}

// SearchResults distinguishes "no such course" (Err set) from "course
// exists, nothing relevant" (empty Hits). Index failures are returned as
// errors, not encoded here.
type SearchResults struct {
	Hits []Hit
	Err  string
}

func (r *SearchResults) IsEmpty() bool {
	return r.Err == "" && len(r.Hits) == 0
}

// Index is the semantic index gateway: the course catalog plus the chunk
// vectors built over it.
type Index interface {
	// PutCourse registers a course with its lessons. Idempotent by title:
	// returns created=false without touching the index when the title is
	// already known.
	PutCourse(ctx context.Context, course *model.Course) (created bool, err error)

	// PutChunks stores chunks with their embeddings.
	PutChunks(ctx context.Context, chunks []*model.Chunk) error

	// Search runs a ranked vector search with optional course/lesson filters.
	Search(ctx context.Context, input *SearchInput) (*SearchResults, error)

	// GetOutline resolves a fuzzy course name and returns the full course
	// including its lesson list. Returns ErrCourseNotFound when no course
	// matches.
	GetOutline(ctx context.Context, courseName string) (*model.Course, error)

	// ListCourseTitles returns all known course titles.
	ListCourseTitles(ctx context.Context) ([]string, error)

	// CountCourses returns the number of ingested courses.
	CountCourses(ctx context.Context) (int, error)
}
