package ollama

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Structured-output schemas. Each is sent as the "format" field and the
// response is checked against the same schema before decoding.
var (
	routerSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"datasource": map[string]any{
				"type":        "string",
				"enum":        []any{"vector_search", "graph_query"},
				"description": "Route the question to vector search or graph query.",
			},
		},
		"required": []any{"datasource"},
	}

	decomposerSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sub_queries": map[string]any{
				"type":     "array",
				"minItems": 2,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"purpose": map[string]any{
							"type": "string",
							"enum": []any{"similarity", "structured"},
						},
						"sub_query": map[string]any{
							"type":      "string",
							"minLength": 1,
						},
					},
					"required": []any{"purpose", "sub_query"},
				},
			},
		},
		"required": []any{"sub_queries"},
	}
)

func validateStructured(schema map[string]any, raw string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("validate structured output: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("structured output does not match schema: %s", strings.Join(errs, "; "))
	}
	return nil
}
