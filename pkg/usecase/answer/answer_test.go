package answer_test

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/lectern-dev/lectern/pkg/tool"
	"github.com/lectern-dev/lectern/pkg/usecase/answer"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

// mockGemini replays scripted responses and records every call.
type mockGemini struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     []generateCall
}

type generateCall struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	snapshot := make([]*genai.Content, len(contents))
	copy(snapshot, contents)
	cfg := *config
	m.calls = append(m.calls, generateCall{contents: snapshot, config: &cfg})

	i := len(m.calls) - 1
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		return nil, goerr.New("mock has no more responses")
	}
	return m.responses[i], nil
}

func (m *mockGemini) Embedding(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{float32(sum%101) + 1, float32(sum%211) + 1, float32(sum%307) + 1}, nil
}

func (m *mockGemini) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, _ := m.Embedding(ctx, text)
		vectors[i] = vec
	}
	return vectors, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func toolCallResponse(name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{{
					FunctionCall: &genai.FunctionCall{Name: name, Args: args},
				}},
			},
		}},
	}
}

// fakeTool returns a fixed result or error.
type fakeTool struct {
	name   string
	result *tool.Result
	err    error
	calls  int
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "test tool" }

func (f *fakeTool) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string"},
		},
		Required: []string{"query"},
	}
}

func (f *fakeTool) Execute(ctx context.Context, args map[string]any) (*tool.Result, error) {
	f.calls++
	return f.result, f.err
}

func newRegistry(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()
	registry, err := tool.New(tools...)
	gt.NoError(t, err)
	return registry
}

func functionResponseText(contents []*genai.Content) string {
	var sb strings.Builder
	for _, content := range contents {
		for _, part := range content.Parts {
			if part.FunctionResponse != nil {
				if result, ok := part.FunctionResponse.Response["result"].(string); ok {
					sb.WriteString(result)
				}
			}
		}
	}
	return sb.String()
}

func TestGenerateDirectAnswer(t *testing.T) {
	gemini := &mockGemini{responses: []*genai.GenerateContentResponse{
		textResponse("The answer is 42."),
	}}
	ft := &fakeTool{name: "search_course_content", result: &tool.Result{Text: "unused"}}
	svc := answer.NewService(gemini, newRegistry(t, ft))

	out, err := svc.Generate(context.Background(), "what is the answer?", nil)
	gt.NoError(t, err)
	gt.V(t, out.Text).Equal("The answer is 42.")
	gt.V(t, len(out.Sources)).Equal(0)
	gt.V(t, ft.calls).Equal(0)

	gt.V(t, len(gemini.calls)).Equal(1)
	gt.True(t, gemini.calls[0].config.Tools != nil).Describe("tools must be offered on the first call")
}

func TestGenerateWithToolRound(t *testing.T) {
	toolText := "[Intro to X - Lesson 2]\nMCP servers expose tools."
	gemini := &mockGemini{responses: []*genai.GenerateContentResponse{
		toolCallResponse("search_course_content", map[string]any{"query": "lesson 2 content"}),
		textResponse("Lesson 2 covers MCP servers."),
	}}
	ft := &fakeTool{
		name:   "search_course_content",
		result: &tool.Result{Text: toolText, Sources: []string{"Intro to X - Lesson 2"}},
	}
	svc := answer.NewService(gemini, newRegistry(t, ft))

	out, err := svc.Generate(context.Background(), "what is in lesson 2?", nil)
	gt.NoError(t, err)
	gt.V(t, out.Text).Equal("Lesson 2 covers MCP servers.")
	gt.V(t, out.Sources).Equal([]string{"Intro to X - Lesson 2"})
	gt.V(t, ft.calls).Equal(1)

	// The second model call must carry the tool's formatted text verbatim.
	gt.V(t, len(gemini.calls)).Equal(2)
	gt.S(t, functionResponseText(gemini.calls[1].contents)).Contains(toolText)

	// One round allowed by default: the follow-up call offers no tools.
	gt.True(t, gemini.calls[1].config.Tools == nil).Describe("final call must not offer tools")
}

func TestGenerateToolFailureDegrades(t *testing.T) {
	gemini := &mockGemini{responses: []*genai.GenerateContentResponse{
		toolCallResponse("search_course_content", map[string]any{"query": "anything"}),
		textResponse("I could not find relevant material."),
	}}
	ft := &fakeTool{name: "search_course_content", err: goerr.New("index unavailable")}
	svc := answer.NewService(gemini, newRegistry(t, ft))

	out, err := svc.Generate(context.Background(), "query", nil)
	gt.NoError(t, err)
	gt.V(t, out.Text).Equal("I could not find relevant material.")
	gt.V(t, len(out.Sources)).Equal(0)

	gt.S(t, functionResponseText(gemini.calls[1].contents)).Contains("tool execution failed: ")
	gt.S(t, functionResponseText(gemini.calls[1].contents)).Contains("index unavailable")
}

func TestGenerateContractErrorAborts(t *testing.T) {
	gemini := &mockGemini{responses: []*genai.GenerateContentResponse{
		toolCallResponse("tool_nobody_registered", map[string]any{}),
	}}
	ft := &fakeTool{name: "search_course_content", result: &tool.Result{Text: "x"}}
	svc := answer.NewService(gemini, newRegistry(t, ft))

	_, err := svc.Generate(context.Background(), "query", nil)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, tool.ErrContract))
}

func TestGenerateModelErrorPropagates(t *testing.T) {
	gemini := &mockGemini{errs: []error{goerr.New("transport broke")}}
	ft := &fakeTool{name: "search_course_content", result: &tool.Result{Text: "x"}}
	svc := answer.NewService(gemini, newRegistry(t, ft))

	_, err := svc.Generate(context.Background(), "query", nil)
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("model call failed")
}

func TestGenerateRendersHistory(t *testing.T) {
	gemini := &mockGemini{responses: []*genai.GenerateContentResponse{
		textResponse("second answer"),
	}}
	svc := answer.NewService(gemini, newRegistry(t))

	history := []model.Exchange{
		{Query: "first question", Response: "first answer"},
	}
	_, err := svc.Generate(context.Background(), "second question", history)
	gt.NoError(t, err)

	system := gemini.calls[0].config.SystemInstruction.Parts[0].Text
	gt.S(t, system).Contains("Previous conversation:")
	gt.S(t, system).Contains("User: first question")
	gt.S(t, system).Contains("Assistant: first answer")
}

func TestGenerateMultipleToolRounds(t *testing.T) {
	gemini := &mockGemini{responses: []*genai.GenerateContentResponse{
		toolCallResponse("search_course_content", map[string]any{"query": "first"}),
		toolCallResponse("search_course_content", map[string]any{"query": "second"}),
		textResponse("combined answer"),
	}}
	ft := &fakeTool{
		name:   "search_course_content",
		result: &tool.Result{Text: "block", Sources: []string{"Course A - Lesson 1"}},
	}
	svc := answer.NewService(gemini, newRegistry(t, ft), answer.WithMaxToolRounds(2))

	out, err := svc.Generate(context.Background(), "query", nil)
	gt.NoError(t, err)
	gt.V(t, out.Text).Equal("combined answer")
	gt.V(t, ft.calls).Equal(2)
	gt.V(t, out.Sources).Equal([]string{"Course A - Lesson 1", "Course A - Lesson 1"})
	gt.V(t, len(gemini.calls)).Equal(3)
}
