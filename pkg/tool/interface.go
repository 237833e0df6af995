package tool

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Result is the outcome of one tool execution. Sources carries the
// provenance labels for the passages behind Text, in the same order the
// passages appear in Text. Provenance lives here, per call, so nothing is
// shared between queries.
type Result struct {
	Text    string
	Sources []string
}

// Tool is a capability the LLM can invoke by name with structured
// parameters.
type Tool interface {
	// Name is the function name offered to the LLM
	Name() string

	// Description tells the LLM when to use this tool
	Description() string

	// Parameters declares the parameter contract as JSON Schema
	Parameters() *jsonschema.Schema

	// Execute runs the tool with already-validated arguments
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}
