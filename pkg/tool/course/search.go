package course

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lectern-dev/lectern/pkg/repository"
	"github.com/lectern-dev/lectern/pkg/tool"
	"github.com/m-mizutani/goerr/v2"
)

// Search is the content-search tool: it turns a tool call into a semantic
// index query and formats the ranked passages into labeled text blocks.
type Search struct {
	index repository.Index
}

func NewSearch(index repository.Index) *Search {
	return &Search{index: index}
}

func (s *Search) Name() string {
	return "search_course_content"
}

func (s *Search) Description() string {
	return "Search course materials with smart course name matching and lesson filtering"
}

func (s *Search) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "What to search for in the course content",
			},
			"course_name": {
				Type:        "string",
				Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
			},
			"lesson_number": {
				Type:        "integer",
				Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
			},
		},
		Required: []string{"query"},
	}
}

func (s *Search) Execute(ctx context.Context, args map[string]any) (*tool.Result, error) {
	input := &repository.SearchInput{
		Query:        tool.StringArg(args, "query"),
		CourseName:   tool.StringArg(args, "course_name"),
		LessonNumber: tool.IntArg(args, "lesson_number"),
	}

	results, err := s.index.Search(ctx, input)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search course content")
	}

	// A resolution failure is an answer for the model, not a failure of the
	// tool: it sees the message and can rephrase or give up.
	if results.Err != "" {
		return &tool.Result{Text: results.Err}, nil
	}

	if len(results.Hits) == 0 {
		return &tool.Result{Text: emptyMessage(input)}, nil
	}

	return formatHits(results.Hits), nil
}

func emptyMessage(input *repository.SearchInput) string {
	var sb strings.Builder
	sb.WriteString("No relevant content found")
	if input.CourseName != "" {
		sb.WriteString(" in course '" + input.CourseName + "'")
	}
	if input.LessonNumber != nil {
		sb.WriteString(" in lesson ")
		sb.WriteString(strconv.Itoa(*input.LessonNumber))
	}
	sb.WriteString(".")
	return sb.String()
}

// formatHits renders each passage as "[<Course> - Lesson <N>]\n<content>"
// and records the matching source label per block, in block order.
func formatHits(hits []repository.Hit) *tool.Result {
	blocks := make([]string, 0, len(hits))
	sources := make([]string, 0, len(hits))

	for _, hit := range hits {
		label := hit.CourseTitle
		if hit.LessonNumber != nil {
			label += " - Lesson " + strconv.Itoa(*hit.LessonNumber)
		}
		blocks = append(blocks, "["+label+"]\n"+hit.Content)
		sources = append(sources, label)
	}

	return &tool.Result{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}
