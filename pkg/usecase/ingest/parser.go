package ingest

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Document is one parsed course file: the course metadata plus the raw text
// of each section, before chunking.
type Document struct {
	Course   model.Course
	Sections []Section
}

// Section is a contiguous span of course text. LessonNumber is nil for text
// preceding the first lesson marker.
type Section struct {
	LessonNumber *int
	Text         string
}

var lessonMarker = regexp.MustCompile(`^Lesson (\d+):\s*(.*)$`)

// Parse reads a course document. The expected format is a header of
// "Course Title:", "Course Link:" and "Course Instructor:" lines followed
// by "Lesson N: <title>" sections, each optionally carrying a
// "Lesson Link:" line right after the marker.
func Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{}
	var current *Section
	var text strings.Builder
	var lesson *model.Lesson

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.TrimSpace(text.String())
		if current.Text != "" {
			doc.Sections = append(doc.Sections, *current)
		}
		current = nil
		text.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "Course Title:"):
			doc.Course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
			continue
		case strings.HasPrefix(trimmed, "Course Link:"):
			doc.Course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
			continue
		case strings.HasPrefix(trimmed, "Course Instructor:"):
			doc.Course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
			continue
		}

		if m := lessonMarker.FindStringSubmatch(trimmed); m != nil {
			flush()
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, goerr.Wrap(err, "invalid lesson number", goerr.V("line", trimmed))
			}
			current = &Section{LessonNumber: &number}
			doc.Course.Lessons = append(doc.Course.Lessons, model.Lesson{
				Number: number,
				Title:  strings.TrimSpace(m[2]),
			})
			lesson = &doc.Course.Lessons[len(doc.Course.Lessons)-1]
			continue
		}

		if lesson != nil && strings.HasPrefix(trimmed, "Lesson Link:") && text.Len() == 0 {
			lesson.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			continue
		}

		if current == nil {
			if trimmed == "" {
				continue
			}
			current = &Section{}
		}
		text.WriteString(line)
		text.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read course document")
	}
	flush()

	if doc.Course.Title == "" {
		return nil, goerr.New("course document has no title")
	}

	return doc, nil
}
