package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-process Index backed by a brute-force cosine scan. It
// serves tests and single-shot local runs where a database is overkill.
type Memory struct {
	mu         sync.RWMutex
	embedder   Embedder
	maxResults int

	courses   map[string]*model.Course
	order     []string // insertion order of course titles
	titleVecs map[string][]float32
	chunks    []memoryChunk
}

type memoryChunk struct {
	chunk  *model.Chunk
	vector []float32
}

type MemoryOption func(*Memory)

func WithMemoryMaxResults(n int) MemoryOption {
	return func(m *Memory) {
		m.maxResults = n
	}
}

func NewMemory(embedder Embedder, opts ...MemoryOption) *Memory {
	m := &Memory{
		embedder:   embedder,
		maxResults: defaultMaxResults,
		courses:    make(map[string]*model.Course),
		titleVecs:  make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) PutCourse(ctx context.Context, course *model.Course) (bool, error) {
	m.mu.RLock()
	_, exists := m.courses[course.Title]
	m.mu.RUnlock()
	if exists {
		return false, nil
	}

	vec, err := m.embedder.Embedding(ctx, course.Title)
	if err != nil {
		return false, goerr.Wrap(err, "failed to embed course title")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.courses[course.Title]; exists {
		return false, nil
	}
	m.courses[course.Title] = course
	m.order = append(m.order, course.Title)
	m.titleVecs[course.Title] = vec
	return true, nil
}

func (m *Memory) PutChunks(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := m.embedder.BatchEmbedding(ctx, texts)
	if err != nil {
		return goerr.Wrap(err, "failed to embed chunks")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, chunk := range chunks {
		m.chunks = append(m.chunks, memoryChunk{chunk: chunk, vector: vectors[i]})
	}
	return nil
}

func (m *Memory) resolveCourseTitle(ctx context.Context, name string) (string, error) {
	vec, err := m.embedder.Embedding(ctx, name)
	if err != nil {
		return "", goerr.Wrap(err, "failed to embed course name")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	best := ""
	bestDist := math.MaxFloat64
	for title, titleVec := range m.titleVecs {
		if d := cosineDistance(vec, titleVec); d < bestDist {
			best, bestDist = title, d
		}
	}
	if best == "" {
		return "", goerr.Wrap(ErrCourseNotFound, "course catalog is empty", goerr.V("name", name))
	}
	return best, nil
}

func (m *Memory) Search(ctx context.Context, input *SearchInput) (*SearchResults, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = m.maxResults
	}

	var courseTitle string
	if input.CourseName != "" {
		title, err := m.resolveCourseTitle(ctx, input.CourseName)
		if errors.Is(err, ErrCourseNotFound) {
			return &SearchResults{
				Err: fmt.Sprintf("No course found matching '%s'", input.CourseName),
			}, nil
		}
		if err != nil {
			return nil, err
		}
		courseTitle = title
	}

	queryVec, err := m.embedder.Embedding(ctx, input.Query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []Hit
	for _, mc := range m.chunks {
		if courseTitle != "" && mc.chunk.CourseTitle != courseTitle {
			continue
		}
		if input.LessonNumber != nil {
			if mc.chunk.LessonNumber == nil || *mc.chunk.LessonNumber != *input.LessonNumber {
				continue
			}
		}
		hits = append(hits, Hit{
			Content:      mc.chunk.Content,
			CourseTitle:  mc.chunk.CourseTitle,
			LessonNumber: mc.chunk.LessonNumber,
			Distance:     cosineDistance(queryVec, mc.vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return &SearchResults{Hits: hits}, nil
}

func (m *Memory) GetOutline(ctx context.Context, courseName string) (*model.Course, error) {
	title, err := m.resolveCourseTitle(ctx, courseName)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.courses[title], nil
}

func (m *Memory) ListCourseTitles(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	titles := make([]string, len(m.order))
	copy(titles, m.order)
	return titles, nil
}

func (m *Memory) CountCourses(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.courses), nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.MaxFloat64
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
