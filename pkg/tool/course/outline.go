package course

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lectern-dev/lectern/pkg/repository"
	"github.com/lectern-dev/lectern/pkg/tool"
	"github.com/m-mizutani/goerr/v2"
)

// Outline returns a course's structure: title, link, and the numbered
// lesson list.
type Outline struct {
	index repository.Index
}

func NewOutline(index repository.Index) *Outline {
	return &Outline{index: index}
}

func (o *Outline) Name() string {
	return "get_course_outline"
}

func (o *Outline) Description() string {
	return "Get the complete outline of a course: title, link, and the full lesson list"
}

func (o *Outline) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"course_name": {
				Type:        "string",
				Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
			},
		},
		Required: []string{"course_name"},
	}
}

func (o *Outline) Execute(ctx context.Context, args map[string]any) (*tool.Result, error) {
	name := tool.StringArg(args, "course_name")

	course, err := o.index.GetOutline(ctx, name)
	if errors.Is(err, repository.ErrCourseNotFound) {
		return &tool.Result{Text: fmt.Sprintf("No course found matching '%s'", name)}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get course outline")
	}

	var sb strings.Builder
	sb.WriteString("Course: " + course.Title + "\n")
	if course.Link != "" {
		sb.WriteString("Link: " + course.Link + "\n")
	}
	if course.Instructor != "" {
		sb.WriteString("Instructor: " + course.Instructor + "\n")
	}
	sb.WriteString(fmt.Sprintf("Lessons (%d):\n", len(course.Lessons)))
	for _, lesson := range course.Lessons {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", lesson.Number, lesson.Title))
	}

	return &tool.Result{
		Text:    sb.String(),
		Sources: []string{course.Title},
	}, nil
}
