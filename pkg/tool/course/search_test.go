package course_test

import (
	"context"
	"testing"

	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/lectern-dev/lectern/pkg/repository"
	"github.com/lectern-dev/lectern/pkg/tool/course"
	"github.com/m-mizutani/gt"
)

// stubIndex returns canned results and records the last search input.
type stubIndex struct {
	results   *repository.SearchResults
	outline   *model.Course
	lastInput *repository.SearchInput
}

func (s *stubIndex) PutCourse(ctx context.Context, c *model.Course) (bool, error) { return true, nil }
func (s *stubIndex) PutChunks(ctx context.Context, chunks []*model.Chunk) error   { return nil }

func (s *stubIndex) Search(ctx context.Context, input *repository.SearchInput) (*repository.SearchResults, error) {
	s.lastInput = input
	return s.results, nil
}

func (s *stubIndex) GetOutline(ctx context.Context, name string) (*model.Course, error) {
	if s.outline == nil {
		return nil, repository.ErrCourseNotFound
	}
	return s.outline, nil
}

func (s *stubIndex) ListCourseTitles(ctx context.Context) ([]string, error) { return nil, nil }
func (s *stubIndex) CountCourses(ctx context.Context) (int, error)          { return 0, nil }

func intPtr(n int) *int { return &n }

func TestSearchFormatsBlocksAndSources(t *testing.T) {
	index := &stubIndex{
		results: &repository.SearchResults{
			Hits: []repository.Hit{
				{Content: "content about basics", CourseTitle: "Introduction to Python", LessonNumber: intPtr(1), Distance: 0.1},
				{Content: "content about loops", CourseTitle: "Introduction to Python", LessonNumber: intPtr(2), Distance: 0.2},
			},
		},
	}
	search := course.NewSearch(index)

	result, err := search.Execute(context.Background(), map[string]any{"query": "python basics"})
	gt.NoError(t, err)

	gt.S(t, result.Text).Contains("[Introduction to Python - Lesson 1]\ncontent about basics")
	gt.S(t, result.Text).Contains("[Introduction to Python - Lesson 2]\ncontent about loops")

	// Source order must match block order for citation accuracy.
	gt.V(t, result.Sources).Equal([]string{
		"Introduction to Python - Lesson 1",
		"Introduction to Python - Lesson 2",
	})
}

func TestSearchPassesFilters(t *testing.T) {
	index := &stubIndex{results: &repository.SearchResults{}}
	search := course.NewSearch(index)

	_, err := search.Execute(context.Background(), map[string]any{
		"query":         "What is covered?",
		"course_name":   "Intro to X",
		"lesson_number": float64(2),
	})
	gt.NoError(t, err)

	gt.V(t, index.lastInput.Query).Equal("What is covered?")
	gt.V(t, index.lastInput.CourseName).Equal("Intro to X")
	gt.V(t, *index.lastInput.LessonNumber).Equal(2)
}

func TestSearchCourseNotFound(t *testing.T) {
	index := &stubIndex{
		results: &repository.SearchResults{Err: "No course found matching 'Nonexistent Course'"},
	}
	search := course.NewSearch(index)

	result, err := search.Execute(context.Background(), map[string]any{
		"query":       "anything",
		"course_name": "Nonexistent Course",
	})
	gt.NoError(t, err)

	// The error result is the tool output, verbatim, with no sources.
	gt.V(t, result.Text).Equal("No course found matching 'Nonexistent Course'")
	gt.V(t, len(result.Sources)).Equal(0)
}

func TestSearchNoResults(t *testing.T) {
	index := &stubIndex{results: &repository.SearchResults{}}
	search := course.NewSearch(index)

	result, err := search.Execute(context.Background(), map[string]any{
		"query":         "nothing relevant",
		"course_name":   "Intro to X",
		"lesson_number": float64(3),
	})
	gt.NoError(t, err)
	gt.V(t, result.Text).Equal("No relevant content found in course 'Intro to X' in lesson 3.")
	gt.V(t, len(result.Sources)).Equal(0)
}

func TestSearchChunkWithoutLesson(t *testing.T) {
	index := &stubIndex{
		results: &repository.SearchResults{
			Hits: []repository.Hit{
				{Content: "course overview text", CourseTitle: "Intro to X", Distance: 0.3},
			},
		},
	}
	search := course.NewSearch(index)

	result, err := search.Execute(context.Background(), map[string]any{"query": "overview"})
	gt.NoError(t, err)
	gt.S(t, result.Text).Contains("[Intro to X]\ncourse overview text")
	gt.V(t, result.Sources).Equal([]string{"Intro to X"})
}
