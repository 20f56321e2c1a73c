package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

type Stage string

const (
	StageIntake               Stage = "intake"
	StageRoute                Stage = "route"
	StageDecompose            Stage = "decompose"
	StageVectorRetrieve       Stage = "vector_retrieve"
	StagePromptContext        Stage = "prompt_ctx"
	StageGraphRetrieveContext Stage = "graph_retrieve_ctx"
	StagePromptPlain          Stage = "prompt_plain"
	StageGraphRetrievePlain   Stage = "graph_retrieve_plain"
	StageFormat               Stage = "format"
	StageDone                 Stage = "done"
)

// Pipeline drives a question through routing, retrieval and formatting.
// Each stage returns only what it adds; Run merges it into the context.
type Pipeline struct {
	router     *Router
	decomposer *Decomposer
	vector     *VectorRetriever
	assembler  *PromptAssembler
	graph      *GraphRetriever
	formatter  *ResponseFormatter
	observer   ports.StageObserver
}

func NewPipeline(
	router *Router,
	decomposer *Decomposer,
	vector *VectorRetriever,
	assembler *PromptAssembler,
	graph *GraphRetriever,
	formatter *ResponseFormatter,
	observer ports.StageObserver,
) *Pipeline {
	return &Pipeline{
		router:     router,
		decomposer: decomposer,
		vector:     vector,
		assembler:  assembler,
		graph:      graph,
		formatter:  formatter,
		observer:   observer,
	}
}

// Run executes every stage on the path chosen by the router. The first fault
// stops the run and is returned together with the context built so far.
func (p *Pipeline) Run(ctx context.Context, question string) (domain.PipelineContext, error) {
	pc := domain.NewPipelineContext(question)
	stage := StageIntake

	for stage != StageDone {
		start := time.Now()
		out, err := p.execute(ctx, stage, pc)
		if err == nil {
			pc, err = pc.Apply(out)
		}
		if p.observer != nil {
			p.observer.ObserveStage(string(stage), time.Since(start), err)
		}
		if err != nil {
			slog.Warn("pipeline_fault",
				"stage", string(stage),
				"fault", domain.FaultKind(err),
				"error", err,
			)
			return pc, fmt.Errorf("stage %s: %w", stage, err)
		}
		slog.Debug("pipeline_stage",
			"stage", string(stage),
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
		)
		stage = next(stage, pc)
	}
	return pc, nil
}

// next is the transition function; only ROUTE branches.
func next(stage Stage, pc domain.PipelineContext) Stage {
	switch stage {
	case StageIntake:
		return StageRoute
	case StageRoute:
		if pc.Strategy == domain.StrategyVectorSearch {
			return StageDecompose
		}
		return StagePromptPlain
	case StageDecompose:
		return StageVectorRetrieve
	case StageVectorRetrieve:
		return StagePromptContext
	case StagePromptContext:
		return StageGraphRetrieveContext
	case StagePromptPlain:
		return StageGraphRetrievePlain
	case StageGraphRetrieveContext, StageGraphRetrievePlain:
		return StageFormat
	default:
		return StageDone
	}
}

func (p *Pipeline) execute(ctx context.Context, stage Stage, pc domain.PipelineContext) (domain.StageOutput, error) {
	switch stage {
	case StageIntake:
		if strings.TrimSpace(pc.Question) == "" {
			return domain.StageOutput{}, domain.WrapError(domain.ErrInvalidInput, "intake", fmt.Errorf("question is empty"))
		}
		return domain.StageOutput{}, nil

	case StageRoute:
		strategy, err := p.router.Route(ctx, pc.Question)
		if err != nil {
			return domain.StageOutput{}, err
		}
		if p.observer != nil {
			p.observer.ObserveStrategy(strategy)
		}
		return domain.StageOutput{Strategy: &strategy}, nil

	case StageDecompose:
		sub, err := p.decomposer.Decompose(ctx, pc.Question)
		if err != nil {
			return domain.StageOutput{}, err
		}
		return domain.StageOutput{SubQueries: &sub}, nil

	case StageVectorRetrieve:
		if pc.SubQueries == nil {
			return domain.StageOutput{}, missing(stage, "sub_queries")
		}
		docs, refs, err := p.vector.Retrieve(ctx, pc.SubQueries.Similarity.Text)
		if err != nil {
			return domain.StageOutput{}, err
		}
		if p.observer != nil {
			p.observer.ObserveDocuments(len(docs))
		}
		return domain.StageOutput{Documents: &docs, ArticleRefs: refs}, nil

	case StagePromptContext:
		if pc.SubQueries == nil {
			return domain.StageOutput{}, missing(stage, "sub_queries")
		}
		spec, err := p.assembler.Build(ctx, PromptRequest{
			Question: pc.SubQueries.Structured.Text,
			Articles: pc.ArticleRefs,
			Grounded: true,
		})
		if err != nil {
			return domain.StageOutput{}, err
		}
		return domain.StageOutput{Prompt: &spec}, nil

	case StagePromptPlain:
		spec, err := p.assembler.Build(ctx, PromptRequest{Question: pc.Question})
		if err != nil {
			return domain.StageOutput{}, err
		}
		return domain.StageOutput{Prompt: &spec}, nil

	case StageGraphRetrieveContext, StageGraphRetrievePlain:
		if pc.Prompt == nil {
			return domain.StageOutput{}, missing(stage, "prompt")
		}
		question := pc.Question
		if stage == StageGraphRetrieveContext {
			if pc.SubQueries == nil {
				return domain.StageOutput{}, missing(stage, "sub_queries")
			}
			question = pc.SubQueries.Structured.Text
		}
		result, err := p.graph.Retrieve(ctx, *pc.Prompt, question)
		if err != nil {
			return domain.StageOutput{}, err
		}
		return domain.StageOutput{RawResult: &result}, nil

	case StageFormat:
		if pc.RawResult == nil {
			return domain.StageOutput{}, missing(stage, "raw_result")
		}
		answer, err := p.formatter.Format(ctx, FormatRequest{
			Question:   pc.Question,
			Strategy:   pc.Strategy,
			Result:     *pc.RawResult,
			SubQueries: pc.SubQueries,
			Articles:   pc.ArticleRefs,
		})
		if err != nil {
			return domain.StageOutput{}, err
		}
		return domain.StageOutput{Answer: &answer}, nil

	default:
		return domain.StageOutput{}, domain.WrapError(domain.ErrInvariant, "pipeline", fmt.Errorf("unknown stage %q", stage))
	}
}

func missing(stage Stage, field string) error {
	return domain.WrapError(domain.ErrInvariant, string(stage), fmt.Errorf("%s not set", field))
}
