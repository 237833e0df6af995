package tool

import (
	"math"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// toGenaiSchema converts a JSON Schema parameter contract to the
// genai.Schema shape the Gemini function-calling API expects.
func toGenaiSchema(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{}

	switch schema.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	default:
		if schema.Type != "" {
			return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
		}
	}

	if schema.Description != "" {
		out.Description = schema.Description
	}

	if len(schema.Enum) > 0 {
		out.Enum = make([]string, 0, len(schema.Enum))
		for _, v := range schema.Enum {
			if s, ok := v.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}

	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema)
		for name, prop := range schema.Properties {
			converted, err := toGenaiSchema(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema",
					goerr.V("property", name))
			}
			out.Properties[name] = converted
		}
	}

	if len(schema.Required) > 0 {
		out.Required = schema.Required
	}

	if schema.Items != nil {
		converted, err := toGenaiSchema(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		out.Items = converted
	}

	return out, nil
}

// validateArgs checks tool-call arguments against the declared schema
// before dispatch: required properties must be present and values must
// match the declared primitive types. The LLM sends numbers as float64.
func validateArgs(schema *jsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}

	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			return goerr.New("missing required parameter", goerr.V("parameter", name))
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok {
			return goerr.New("undeclared parameter", goerr.V("parameter", name))
		}
		if value == nil {
			continue
		}

		switch prop.Type {
		case "string":
			if _, ok := value.(string); !ok {
				return goerr.New("parameter must be a string", goerr.V("parameter", name))
			}
		case "integer":
			f, ok := value.(float64)
			if !ok {
				if _, isInt := value.(int); isInt {
					continue
				}
				return goerr.New("parameter must be an integer", goerr.V("parameter", name))
			}
			if f != math.Trunc(f) {
				return goerr.New("parameter must be an integer", goerr.V("parameter", name))
			}
		case "number":
			switch value.(type) {
			case float64, int:
			default:
				return goerr.New("parameter must be a number", goerr.V("parameter", name))
			}
		case "boolean":
			if _, ok := value.(bool); !ok {
				return goerr.New("parameter must be a boolean", goerr.V("parameter", name))
			}
		}
	}

	return nil
}

// IntArg reads an optional integer argument, tolerating the float64 form
// that function-call payloads arrive in. Returns nil when absent.
func IntArg(args map[string]any, name string) *int {
	value, ok := args[name]
	if !ok || value == nil {
		return nil
	}
	switch v := value.(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	}
	return nil
}

// StringArg reads an optional string argument, returning "" when absent.
func StringArg(args map[string]any, name string) string {
	if value, ok := args[name]; ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}
