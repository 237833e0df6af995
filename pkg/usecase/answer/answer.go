package answer

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/lectern-dev/lectern/pkg/adapter"
	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/lectern-dev/lectern/pkg/tool"
	"github.com/lectern-dev/lectern/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

//go:embed prompt/system.md
var systemPrompt string

const defaultMaxToolRounds = 1

// Service runs one generation: it builds the prompt from the session
// history, lets the model decide between answering directly and calling
// tools, dispatches requested tools, and returns the final text with the
// sources behind it.
//
// Any error returned from Generate is fatal to the query: the model call
// failed, the response was unusable, or a tool contract was violated.
// Retrieval failures inside a tool are not errors here; they flow back to
// the model as tool output.
type Service struct {
	gemini        adapter.Gemini
	registry      *tool.Registry
	maxToolRounds int
}

type ServiceOption func(*Service)

// WithMaxToolRounds bounds how many tool-use rounds one query may take.
// The round after the last one is called without tools attached, so the
// model must answer.
func WithMaxToolRounds(n int) ServiceOption {
	return func(s *Service) {
		s.maxToolRounds = n
	}
}

func NewService(gemini adapter.Gemini, registry *tool.Registry, opts ...ServiceOption) *Service {
	s := &Service{
		gemini:        gemini,
		registry:      registry,
		maxToolRounds: defaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Output is the result of one generation.
type Output struct {
	Text    string
	Sources []string
}

func (s *Service) Generate(ctx context.Context, query string, history []model.Exchange) (*Output, error) {
	logger := logging.From(ctx)

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buildSystemPrompt(history), ""),
		Temperature:       &temperature,
	}

	contents := []*genai.Content{
		genai.NewContentFromText(query, genai.RoleUser),
	}

	var sources []string

	for round := 0; ; round++ {
		config.Tools = nil
		if round < s.maxToolRounds && s.registry != nil {
			config.Tools = []*genai.Tool{
				{FunctionDeclarations: s.registry.Declarations()},
			}
		}

		resp, err := s.gemini.GenerateContent(ctx, contents, config)
		if err != nil {
			return nil, goerr.Wrap(err, "model call failed")
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, goerr.New("empty model response")
		}

		content := resp.Candidates[0].Content
		calls := functionCalls(content)

		if len(calls) == 0 || round >= s.maxToolRounds {
			text := textOf(content)
			if text == "" {
				return nil, goerr.New("model response has no text")
			}
			return &Output{Text: text, Sources: sources}, nil
		}

		// Tool round: execute requested calls in order, then feed results
		// back. Sequential by design so that source order matches the order
		// the model saw the result blocks in.
		contents = append(contents, content)

		responses := make([]*genai.Part, 0, len(calls))
		for _, fc := range calls {
			logger.Debug("dispatching tool", "name", fc.Name, "args", fc.Args)

			result, err := s.registry.Dispatch(ctx, fc)
			if errors.Is(err, tool.ErrContract) {
				return nil, err
			}

			response := map[string]any{}
			if err != nil {
				logger.Warn("tool execution failed", "name", fc.Name, "error", err)
				response["result"] = "tool execution failed: " + err.Error()
			} else {
				response["result"] = result.Text
				sources = append(sources, result.Sources...)
			}

			responses = append(responses, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     fc.Name,
					Response: response,
				},
			})
		}

		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: responses,
		})
	}
}

// buildSystemPrompt appends the rendered prior exchanges to the static
// instruction, oldest first.
func buildSystemPrompt(history []model.Exchange) string {
	if len(history) == 0 {
		return systemPrompt
	}

	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\nPrevious conversation:\n")
	for i, ex := range history {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("User: " + ex.Query + "\n")
		sb.WriteString("Assistant: " + ex.Response + "\n")
	}
	return sb.String()
}

func functionCalls(content *genai.Content) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, part := range content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, *part.FunctionCall)
		}
	}
	return calls
}

func textOf(content *genai.Content) string {
	var sb strings.Builder
	for _, part := range content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
