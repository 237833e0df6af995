package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/lectern-dev/lectern/pkg/repository"
	"github.com/lectern-dev/lectern/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// Ingester loads course documents into the semantic index. Ingestion is
// idempotent per course title: a file whose course is already indexed is
// skipped entirely.
type Ingester struct {
	index        repository.Index
	chunkSize    int
	chunkOverlap int
}

type Option func(*Ingester)

// WithChunking sets the chunk size and overlap in characters.
func WithChunking(size, overlap int) Option {
	return func(i *Ingester) {
		i.chunkSize = size
		i.chunkOverlap = overlap
	}
}

func New(index repository.Index, opts ...Option) *Ingester {
	ing := &Ingester{
		index:        index,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Stats summarizes one ingestion run.
type Stats struct {
	CoursesAdded   int
	CoursesSkipped int
	ChunksAdded    int
}

// File ingests a single course document.
func (i *Ingester) File(ctx context.Context, path string) (*Stats, error) {
	logger := logging.From(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open course document", goerr.V("path", path))
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse course document", goerr.V("path", path))
	}

	created, err := i.index.PutCourse(ctx, &doc.Course)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register course", goerr.V("title", doc.Course.Title))
	}
	if !created {
		logger.Info("course already indexed, skipping", "title", doc.Course.Title)
		return &Stats{CoursesSkipped: 1}, nil
	}

	chunks := i.buildChunks(doc)
	if err := i.index.PutChunks(ctx, chunks); err != nil {
		return nil, goerr.Wrap(err, "failed to store chunks", goerr.V("title", doc.Course.Title))
	}

	logger.Info("course ingested", "title", doc.Course.Title, "chunks", len(chunks))
	return &Stats{CoursesAdded: 1, ChunksAdded: len(chunks)}, nil
}

// Folder ingests every .txt document in dir, non-recursively, in name
// order.
func (i *Ingester) Folder(ctx context.Context, dir string) (*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read course folder", goerr.V("dir", dir))
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	total := &Stats{}
	for _, path := range paths {
		stats, err := i.File(ctx, path)
		if err != nil {
			return nil, err
		}
		total.CoursesAdded += stats.CoursesAdded
		total.CoursesSkipped += stats.CoursesSkipped
		total.ChunksAdded += stats.ChunksAdded
	}
	return total, nil
}

// buildChunks splits each section into overlapping chunks and prefixes each
// chunk with its course/lesson context so the embedding carries the origin.
// Chunk positions run across the whole course.
func (i *Ingester) buildChunks(doc *Document) []*model.Chunk {
	var chunks []*model.Chunk
	position := 0

	for _, section := range doc.Sections {
		for _, piece := range chunkText(section.Text, i.chunkSize, i.chunkOverlap) {
			content := piece
			if section.LessonNumber != nil {
				content = fmt.Sprintf("Course %s Lesson %d content: %s",
					doc.Course.Title, *section.LessonNumber, piece)
			}
			chunks = append(chunks, &model.Chunk{
				Content:      content,
				CourseTitle:  doc.Course.Title,
				LessonNumber: section.LessonNumber,
				Index:        position,
			})
			position++
		}
	}

	return chunks
}
