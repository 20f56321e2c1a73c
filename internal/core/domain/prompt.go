package domain

import (
	"fmt"
	"strings"
	"text/template"
)

type Exemplar struct {
	Question string `yaml:"question" json:"question"`
	Query    string `yaml:"query" json:"query"`
}

// PromptSpec is a query-generation template. Schema and question are bound
// at render time; rendering never touches the graph.
type PromptSpec struct {
	Instructions string     `json:"instructions"`
	Exemplars    []Exemplar `json:"exemplars"`
	// Suffix is a template with a single {{.Question}} slot.
	Suffix   string `json:"suffix"`
	Grounded bool   `json:"grounded"`
}

var promptLayout = template.Must(template.New("prompt").Parse(`{{.Instructions}}
Schema:
{{.Schema}}

Examples: Here are a few examples of generated Cypher statements for particular questions:
{{range .Exemplars}}
Question: {{.Question}}
Cypher query: {{.Query}}
{{end}}
{{.Suffix}}`))

// Render binds the schema description and question into the final prompt text.
func (p PromptSpec) Render(schema, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("render prompt: question is empty")
	}

	suffix, err := template.New("suffix").Parse(p.Suffix)
	if err != nil {
		return "", fmt.Errorf("parse prompt suffix: %w", err)
	}
	var suffixOut strings.Builder
	if err := suffix.Execute(&suffixOut, struct{ Question string }{question}); err != nil {
		return "", fmt.Errorf("render prompt suffix: %w", err)
	}

	var out strings.Builder
	if err := promptLayout.Execute(&out, struct {
		Instructions string
		Schema       string
		Exemplars    []Exemplar
		Suffix       string
	}{
		Instructions: p.Instructions,
		Schema:       schema,
		Exemplars:    p.Exemplars,
		Suffix:       suffixOut.String(),
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out.String(), nil
}
