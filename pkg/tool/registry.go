package tool

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// ErrContract marks an inconsistency between what the LLM was offered and
// what the registry holds: an unknown tool name or arguments that violate
// the declared schema. These are programming errors, not user input errors.
var ErrContract = goerr.New("tool contract violation")

// Registry is the typed catalog of tools offered to the LLM. It holds no
// per-query state, so one instance serves concurrent queries.
type Registry struct {
	tools map[string]Tool
	decls []*genai.FunctionDeclaration
}

// New builds a registry and converts each tool's parameter contract to the
// function declaration shape once, up front.
func New(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Tool, len(tools)),
	}

	for _, t := range tools {
		if _, exists := r.tools[t.Name()]; exists {
			return nil, goerr.Wrap(ErrContract, "duplicate tool name", goerr.V("name", t.Name()))
		}

		params, err := toGenaiSchema(t.Parameters())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert tool parameters", goerr.V("name", t.Name()))
		}

		r.tools[t.Name()] = t
		r.decls = append(r.decls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  params,
		})
	}

	return r, nil
}

// Declarations returns the function declarations to attach to a model call.
func (r *Registry) Declarations() []*genai.FunctionDeclaration {
	return r.decls
}

// Dispatch validates the call against the tool's declared schema and
// executes it. Unknown names and malformed arguments return ErrContract.
func (r *Registry) Dispatch(ctx context.Context, fc genai.FunctionCall) (*Result, error) {
	t, ok := r.tools[fc.Name]
	if !ok {
		return nil, goerr.Wrap(ErrContract, "unknown tool", goerr.V("name", fc.Name))
	}

	if err := validateArgs(t.Parameters(), fc.Args); err != nil {
		return nil, goerr.Wrap(ErrContract, "invalid tool arguments",
			goerr.V("name", fc.Name), goerr.V("args", fc.Args), goerr.V("cause", err.Error()))
	}

	return t.Execute(ctx, fc.Args)
}
