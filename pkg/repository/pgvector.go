package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
)

const defaultMaxResults = 5

// PgVector is the PostgreSQL + pgvector implementation of Index. It owns
// the embedder: chunk contents and queries are embedded on the way in.
type PgVector struct {
	pool       *pgxpool.Pool
	embedder   Embedder
	dimension  int
	maxResults int
}

type PgVectorOption func(*PgVector)

// WithDimension sets the vector column dimension. Must match the embedding
// model's output size.
func WithDimension(dim int) PgVectorOption {
	return func(p *PgVector) {
		p.dimension = dim
	}
}

// WithMaxResults sets the default result cap for Search.
func WithMaxResults(n int) PgVectorOption {
	return func(p *PgVector) {
		p.maxResults = n
	}
}

func NewPgVector(ctx context.Context, dsn string, embedder Embedder, opts ...PgVectorOption) (*PgVector, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to connect to database")
	}

	p := &PgVector{
		pool:       pool,
		embedder:   embedder,
		dimension:  768,
		maxResults: defaultMaxResults,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

func (p *PgVector) Close() {
	p.pool.Close()
}

func (p *PgVector) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS courses (
			title TEXT PRIMARY KEY,
			link TEXT NOT NULL DEFAULT '',
			instructor TEXT NOT NULL DEFAULT '',
			title_embedding vector(%d) NOT NULL
		)`, p.dimension),
		`CREATE TABLE IF NOT EXISTS lessons (
			course_title TEXT NOT NULL REFERENCES courses(title),
			number INTEGER NOT NULL,
			title TEXT NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (course_title, number)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id BIGSERIAL PRIMARY KEY,
			course_title TEXT NOT NULL REFERENCES courses(title),
			lesson_number INTEGER,
			position INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, p.dimension),
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to ensure schema", goerr.V("stmt", stmt))
		}
	}
	return nil
}

func (p *PgVector) PutCourse(ctx context.Context, course *model.Course) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM courses WHERE title = $1)`, course.Title,
	).Scan(&exists)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check course existence")
	}
	if exists {
		return false, nil
	}

	titleVec, err := p.embedder.Embedding(ctx, course.Title)
	if err != nil {
		return false, goerr.Wrap(err, "failed to embed course title")
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO courses (title, link, instructor, title_embedding)
		 VALUES ($1, $2, $3, $4::vector)
		 ON CONFLICT (title) DO NOTHING`,
		course.Title, course.Link, course.Instructor, pgvector.NewVector(titleVec).String(),
	)
	if err != nil {
		return false, goerr.Wrap(err, "failed to insert course")
	}

	batch := &pgx.Batch{}
	for _, lesson := range course.Lessons {
		batch.Queue(
			`INSERT INTO lessons (course_title, number, title, link)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (course_title, number) DO NOTHING`,
			course.Title, lesson.Number, lesson.Title, lesson.Link,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return false, goerr.Wrap(err, "failed to insert lessons")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, goerr.Wrap(err, "failed to commit course")
	}
	return true, nil
}

func (p *PgVector) PutChunks(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := p.embedder.BatchEmbedding(ctx, texts)
	if err != nil {
		return goerr.Wrap(err, "failed to embed chunks")
	}

	batch := &pgx.Batch{}
	for i, chunk := range chunks {
		batch.Queue(
			`INSERT INTO chunks (course_title, lesson_number, position, content, embedding)
			 VALUES ($1, $2, $3, $4, $5::vector)`,
			chunk.CourseTitle, chunk.LessonNumber, chunk.Index, chunk.Content,
			pgvector.NewVector(vectors[i]).String(),
		)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return goerr.Wrap(err, "failed to insert chunks")
	}
	return nil
}

// resolveCourseTitle maps a fuzzy course name to the nearest known title by
// embedding distance. ErrCourseNotFound when the catalog is empty.
func (p *PgVector) resolveCourseTitle(ctx context.Context, name string) (string, error) {
	vec, err := p.embedder.Embedding(ctx, name)
	if err != nil {
		return "", goerr.Wrap(err, "failed to embed course name")
	}

	var title string
	err = p.pool.QueryRow(ctx,
		`SELECT title FROM courses ORDER BY title_embedding <=> $1::vector LIMIT 1`,
		pgvector.NewVector(vec).String(),
	).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", goerr.Wrap(ErrCourseNotFound, "course catalog is empty", goerr.V("name", name))
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve course title")
	}
	return title, nil
}

func (p *PgVector) Search(ctx context.Context, input *SearchInput) (*SearchResults, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = p.maxResults
	}

	var courseTitle string
	if input.CourseName != "" {
		title, err := p.resolveCourseTitle(ctx, input.CourseName)
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

	queryVec, err := p.embedder.Embedding(ctx, input.Query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	sql := `SELECT content, course_title, lesson_number, embedding <=> $1::vector AS distance
		FROM chunks`
	args := []any{pgvector.NewVector(queryVec).String()}

	where := ""
	if courseTitle != "" {
		args = append(args, courseTitle)
		where = fmt.Sprintf(" WHERE course_title = $%d", len(args))
	}
	if input.LessonNumber != nil {
		args = append(args, *input.LessonNumber)
		if where == "" {
			where = fmt.Sprintf(" WHERE lesson_number = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND lesson_number = $%d", len(args))
		}
	}
	args = append(args, limit)
	sql += where + fmt.Sprintf(" ORDER BY distance LIMIT $%d", len(args))

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search chunks")
	}
	defer rows.Close()

	var results SearchResults
	for rows.Next() {
		var hit Hit
		if err := rows.Scan(&hit.Content, &hit.CourseTitle, &hit.LessonNumber, &hit.Distance); err != nil {
			return nil, goerr.Wrap(err, "failed to scan search hit")
		}
		results.Hits = append(results.Hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate search hits")
	}

	return &results, nil
}

func (p *PgVector) GetOutline(ctx context.Context, courseName string) (*model.Course, error) {
	title, err := p.resolveCourseTitle(ctx, courseName)
	if err != nil {
		return nil, err
	}

	course := &model.Course{Title: title}
	err = p.pool.QueryRow(ctx,
		`SELECT link, instructor FROM courses WHERE title = $1`, title,
	).Scan(&course.Link, &course.Instructor)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get course", goerr.V("title", title))
	}

	rows, err := p.pool.Query(ctx,
		`SELECT number, title, link FROM lessons WHERE course_title = $1 ORDER BY number`, title,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list lessons", goerr.V("title", title))
	}
	defer rows.Close()

	for rows.Next() {
		var lesson model.Lesson
		if err := rows.Scan(&lesson.Number, &lesson.Title, &lesson.Link); err != nil {
			return nil, goerr.Wrap(err, "failed to scan lesson")
		}
		course.Lessons = append(course.Lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate lessons")
	}

	return course, nil
}

func (p *PgVector) ListCourseTitles(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT title FROM courses ORDER BY title`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list course titles")
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, goerr.Wrap(err, "failed to scan course title")
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate course titles")
	}
	return titles, nil
}

func (p *PgVector) CountCourses(ctx context.Context) (int, error) {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return 0, goerr.Wrap(err, "failed to count courses")
	}
	return count, nil
}
