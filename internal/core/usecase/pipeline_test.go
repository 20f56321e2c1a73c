package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

type pipelineFixture struct {
	classifier *classifierFake
	subQueries *subQueryFake
	embedder   *embedderFake
	index      *vectorIndexFake
	store      *graphStoreFake
	queries    *queryGeneratorFake
	text       *textGeneratorFake
	observer   *observerFake
}

func newPipelineFixture(label string) *pipelineFixture {
	return &pipelineFixture{
		classifier: &classifierFake{label: label},
		subQueries: &subQueryFake{items: []domain.SubQuery{
			{Text: "articles related to photosynthesis", Purpose: domain.PurposeSimilarity},
			{Text: "return titles of the articles", Purpose: domain.PurposeStructured},
		}},
		embedder: &embedderFake{dims: 2},
		index: &vectorIndexFake{hits: []domain.VectorHit{
			publicationHit("omid:br/1", "Light reactions", "Nature", 0.4),
			publicationHit("omid:br/2", "Calvin cycle", "Science", 0.9),
		}},
		store: &graphStoreFake{
			schema: testSchema(),
			result: domain.GraphResult{Rows: []map[string]any{{"p.title": "Calvin cycle"}}},
		},
		queries:  &queryGeneratorFake{query: "MATCH (p:Publication) WHERE p.omid IN ['omid:br/2'] RETURN p.title"},
		text:     &textGeneratorFake{answer: "The most relevant article is Calvin cycle."},
		observer: &observerFake{},
	}
}

func (f *pipelineFixture) pipeline() *Pipeline {
	return NewPipeline(
		NewRouter(f.classifier),
		NewDecomposer(f.subQueries),
		NewVectorRetriever(f.embedder, f.index),
		NewPromptAssembler(NewExampleSelector(f.embedder, testExemplars(6))),
		NewGraphRetriever(f.store, f.queries, 10),
		NewResponseFormatter(f.text),
		f.observer,
	)
}

func TestPipelineVectorBranch(t *testing.T) {
	f := newPipelineFixture("vector_search")
	pc, err := f.pipeline().Run(context.Background(), "Find the articles about photosynthesis and return their titles")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantStages := []string{"intake", "route", "decompose", "vector_retrieve", "prompt_ctx", "graph_retrieve_ctx", "format"}
	if !reflect.DeepEqual(f.observer.stages, wantStages) {
		t.Fatalf("stages = %v, want %v", f.observer.stages, wantStages)
	}
	if pc.Strategy != domain.StrategyVectorSearch || pc.SubQueries == nil {
		t.Fatalf("unexpected context %+v", pc)
	}
	if len(pc.ArticleRefs) != 2 || pc.ArticleRefs[0].Identifier != "omid:br/2" {
		t.Fatalf("article refs not in score order: %+v", pc.ArticleRefs)
	}
	if pc.Prompt == nil || !pc.Prompt.Grounded {
		t.Fatalf("expected grounded prompt")
	}
	if !strings.Contains(f.queries.prompts[0], "omid: omid:br/2, title: Calvin cycle") {
		t.Fatalf("query prompt missing retrieved article:\n%s", f.queries.prompts[0])
	}
	if !strings.Contains(f.queries.prompts[0], "Question: return titles of the articles") {
		t.Fatalf("grounded path must use the structured sub-query:\n%s", f.queries.prompts[0])
	}
	if f.embedder.queries[0] != "articles related to photosynthesis" {
		t.Fatalf("vector path must embed the similarity sub-query, got %q", f.embedder.queries[0])
	}
	if pc.Answer != "The most relevant article is Calvin cycle." || !pc.Answered() {
		t.Fatalf("unexpected answer %q", pc.Answer)
	}
}

func TestPipelineGraphBranchSkipsVectorStages(t *testing.T) {
	f := newPipelineFixture("graph_query")
	pc, err := f.pipeline().Run(context.Background(), "Who authored the most publications?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantStages := []string{"intake", "route", "prompt_plain", "graph_retrieve_plain", "format"}
	if !reflect.DeepEqual(f.observer.stages, wantStages) {
		t.Fatalf("stages = %v, want %v", f.observer.stages, wantStages)
	}
	if pc.SubQueries != nil || pc.Documents != nil || pc.ArticleRefs != nil {
		t.Fatalf("graph path must not populate vector fields: %+v", pc)
	}
	if f.subQueries.question != "" || f.index.limit != 0 {
		t.Fatalf("decomposer or vector index invoked on graph path")
	}
	if pc.Prompt == nil || pc.Prompt.Grounded {
		t.Fatalf("expected plain prompt")
	}
}

func TestPipelineEmptyResultStatesNoResults(t *testing.T) {
	f := newPipelineFixture("graph_query")
	f.store.result = domain.GraphResult{}
	pc, err := f.pipeline().Run(context.Background(), "Which publications cite a paper that does not exist?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if pc.Answer != NoResultsAnswer {
		t.Fatalf("expected no-results answer, got %q", pc.Answer)
	}
	if f.text.calls != 0 {
		t.Fatalf("formatter model must not run on empty results")
	}
}

func TestPipelineStopsAtFirstFault(t *testing.T) {
	f := newPipelineFixture("vector_search")
	f.index.err = errors.New("index offline")

	pc, err := f.pipeline().Run(context.Background(), "Find similar articles about oxidative stress")
	if !domain.IsKind(err, domain.ErrRetrieval) {
		t.Fatalf("expected retrieval fault, got %v", err)
	}
	if pc.Answered() || len(f.queries.prompts) != 0 || f.text.calls != 0 {
		t.Fatalf("stages after the fault must not run")
	}
	if pc.SubQueries == nil {
		t.Fatalf("context built before the fault should be returned")
	}
}

func TestPipelineRejectsEmptyQuestion(t *testing.T) {
	f := newPipelineFixture("graph_query")
	_, err := f.pipeline().Run(context.Background(), "  ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if f.classifier.calls != 0 {
		t.Fatalf("router must not run for empty question")
	}
}

func TestNextTransitions(t *testing.T) {
	vector := domain.PipelineContext{Strategy: domain.StrategyVectorSearch}
	graph := domain.PipelineContext{Strategy: domain.StrategyGraphQuery}

	cases := []struct {
		from Stage
		pc   domain.PipelineContext
		want Stage
	}{
		{StageIntake, graph, StageRoute},
		{StageRoute, vector, StageDecompose},
		{StageRoute, graph, StagePromptPlain},
		{StageGraphRetrieveContext, vector, StageFormat},
		{StageGraphRetrievePlain, graph, StageFormat},
		{StageFormat, graph, StageDone},
	}
	for _, tc := range cases {
		if got := next(tc.from, tc.pc); got != tc.want {
			t.Fatalf("next(%s) = %s, want %s", tc.from, got, tc.want)
		}
	}
}
