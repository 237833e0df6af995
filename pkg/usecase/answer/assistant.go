package answer

import (
	"context"

	"github.com/lectern-dev/lectern/pkg/adapter"
	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/lectern-dev/lectern/pkg/repository"
	"github.com/lectern-dev/lectern/pkg/tool"
	"github.com/lectern-dev/lectern/pkg/tool/course"
	"github.com/lectern-dev/lectern/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Assistant is the top-level query orchestrator: it ties the session store,
// the generation service, and the semantic index together behind the
// caller-facing contract.
type Assistant struct {
	index    repository.Index
	service  *Service
	sessions *SessionStore
}

type AssistantOption func(*assistantConfig)

type assistantConfig struct {
	maxHistory    int
	maxToolRounds int
}

// WithMaxHistory caps how many exchanges a session retains.
func WithMaxHistory(n int) AssistantOption {
	return func(c *assistantConfig) {
		c.maxHistory = n
	}
}

// WithToolRounds bounds tool-use rounds per query.
func WithToolRounds(n int) AssistantOption {
	return func(c *assistantConfig) {
		c.maxToolRounds = n
	}
}

// New wires the assistant: the content search and outline tools over the
// given index, the generation service over the given model.
func New(index repository.Index, gemini adapter.Gemini, opts ...AssistantOption) (*Assistant, error) {
	cfg := assistantConfig{
		maxHistory:    defaultMaxHistory,
		maxToolRounds: defaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	registry, err := tool.New(
		course.NewSearch(index),
		course.NewOutline(index),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build tool registry")
	}

	return &Assistant{
		index:    index,
		service:  NewService(gemini, registry, WithMaxToolRounds(cfg.maxToolRounds)),
		sessions: NewSessionStore(cfg.maxHistory),
	}, nil
}

// QueryInput is one user question. SessionID may be empty for a fresh
// conversation.
type QueryInput struct {
	Query     string
	SessionID model.SessionID
}

// QueryOutput carries the answer, the provenance labels behind it, and the
// session ID the caller must echo back to continue the conversation.
type QueryOutput struct {
	Answer    string
	Sources   []string
	SessionID model.SessionID
}

// Query answers one question. The exchange is recorded in the session only
// after generation succeeds; a failed query leaves no trace in history.
func (a *Assistant) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	logger := logging.From(ctx)

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = model.NewSessionID()
	}

	_, created := a.sessions.Upsert(sessionID)
	logger.Debug("query", "session", sessionID, "new_session", created)

	history := a.sessions.History(sessionID)

	out, err := a.service.Generate(ctx, input.Query, history)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer", goerr.V("session", sessionID))
	}

	a.sessions.AddExchange(sessionID, input.Query, out.Text)

	return &QueryOutput{
		Answer:    out.Text,
		Sources:   out.Sources,
		SessionID: sessionID,
	}, nil
}

// CorpusStats summarizes the ingested corpus straight from index metadata.
type CorpusStats struct {
	CourseCount  int
	CourseTitles []string
}

func (a *Assistant) CorpusStats(ctx context.Context) (*CorpusStats, error) {
	count, err := a.index.CountCourses(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count courses")
	}
	titles, err := a.index.ListCourseTitles(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list course titles")
	}
	return &CorpusStats{CourseCount: count, CourseTitles: titles}, nil
}
