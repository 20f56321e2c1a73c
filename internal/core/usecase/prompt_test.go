package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

func TestPromptAssemblerPlainMode(t *testing.T) {
	embedder := &embedderFake{dims: 2}
	assembler := NewPromptAssembler(NewExampleSelector(embedder, testExemplars(8)))

	spec, err := assembler.Build(context.Background(), PromptRequest{Question: "Who authored the most publications?"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if spec.Grounded {
		t.Fatalf("plain prompt must not be grounded")
	}
	if len(spec.Exemplars) != ExemplarCount {
		t.Fatalf("expected %d exemplars, got %d", ExemplarCount, len(spec.Exemplars))
	}
	if strings.Contains(spec.Instructions, "omid:") {
		t.Fatalf("plain prompt must not enumerate publications: %s", spec.Instructions)
	}
	if got := embedder.queries[len(embedder.queries)-1]; got != "Who authored the most publications?" {
		t.Fatalf("exemplars selected for %q", got)
	}
}

func TestPromptAssemblerContextModeListsArticlesInOrder(t *testing.T) {
	assembler := NewPromptAssembler(NewExampleSelector(&embedderFake{dims: 2}, testExemplars(2)))
	spec, err := assembler.Build(context.Background(), PromptRequest{
		Question: "Return titles of the articles",
		Articles: []domain.ArticleRef{
			{Identifier: "omid:br/2", Title: "High"},
			{Identifier: "omid:br/3", Title: "Mid"},
		},
		Grounded: true,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !spec.Grounded {
		t.Fatalf("expected grounded prompt")
	}
	first := strings.Index(spec.Instructions, "omid: omid:br/2, title: High")
	second := strings.Index(spec.Instructions, "omid: omid:br/3, title: Mid")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("articles missing or out of order:\n%s", spec.Instructions)
	}
	if !strings.Contains(spec.Instructions, "Publications") {
		t.Fatalf("expected label note in instructions")
	}
}

func TestPromptSpecRenderBindsSchemaAndQuestion(t *testing.T) {
	spec := domain.PromptSpec{
		Instructions: queryInstructions,
		Exemplars:    []domain.Exemplar{{Question: "How many authors?", Query: "MATCH (a:Author) RETURN count(a)"}},
		Suffix:       querySuffix,
	}
	rendered, err := spec.Render(testSchema().Describe(), "List publications from 2020")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{
		"(:Author)-[:AUTHORED]->(:Publication)",
		"Cypher query: MATCH (a:Author) RETURN count(a)",
		"Question: List publications from 2020\nCypher query:",
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered prompt missing %q:\n%s", want, rendered)
		}
	}
}

func TestPromptSpecRenderDoesNotEvaluateInstructionText(t *testing.T) {
	spec := domain.PromptSpec{
		Instructions: "omid: x, title: {{weird}} braces",
		Suffix:       querySuffix,
	}
	rendered, err := spec.Render("schema", "q")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(rendered, "{{weird}}") {
		t.Fatalf("instructions must be copied verbatim:\n%s", rendered)
	}
}
