package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

const (
	// ExemplarCount is the number of exemplars placed in a query prompt.
	ExemplarCount = 5
	// MMRLambda balances relevance (1.0) against diversity (0.0).
	MMRLambda = 0.5
)

// ExampleSelector picks query exemplars by maximal marginal relevance.
// Exemplar embeddings are computed once and read-only afterwards.
type ExampleSelector struct {
	embedder  ports.Embedder
	exemplars []domain.Exemplar

	mu      sync.RWMutex
	vectors [][]float32
}

func NewExampleSelector(embedder ports.Embedder, exemplars []domain.Exemplar) *ExampleSelector {
	return &ExampleSelector{
		embedder:  embedder,
		exemplars: append([]domain.Exemplar(nil), exemplars...),
	}
}

func (s *ExampleSelector) Exemplars() []domain.Exemplar {
	return append([]domain.Exemplar(nil), s.exemplars...)
}

// Warm embeds every exemplar question in one call. Later calls are no-ops.
func (s *ExampleSelector) Warm(ctx context.Context) error {
	s.mu.RLock()
	warmed := s.vectors != nil
	s.mu.RUnlock()
	if warmed {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vectors != nil {
		return nil
	}

	questions := make([]string, len(s.exemplars))
	for i, ex := range s.exemplars {
		questions[i] = ex.Question
	}
	vectors, err := s.embedder.Embed(ctx, questions)
	if err != nil {
		return domain.WrapError(domain.ErrRetrieval, "warm exemplars", err)
	}
	if len(vectors) != len(s.exemplars) {
		return domain.WrapError(domain.ErrRetrieval, "warm exemplars",
			fmt.Errorf("expected %d embeddings, got %d", len(s.exemplars), len(vectors)))
	}
	s.vectors = vectors
	return nil
}

// Select returns up to ExemplarCount exemplars for question, most relevant
// first, each later pick penalized by its similarity to earlier picks.
func (s *ExampleSelector) Select(ctx context.Context, question string) ([]domain.Exemplar, error) {
	if len(s.exemplars) == 0 {
		return []domain.Exemplar{}, nil
	}
	if err := s.Warm(ctx); err != nil {
		return nil, err
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "select exemplars", err)
	}

	s.mu.RLock()
	vectors := s.vectors
	s.mu.RUnlock()

	picked := maxMarginalRelevance(queryVector, vectors, ExemplarCount, MMRLambda)
	out := make([]domain.Exemplar, 0, len(picked))
	for _, idx := range picked {
		out = append(out, s.exemplars[idx])
	}
	return out, nil
}

// maxMarginalRelevance greedily picks k candidate indices maximizing
// lambda*sim(query, c) - (1-lambda)*max sim(c, picked). Ties keep the lower index.
func maxMarginalRelevance(query []float32, candidates [][]float32, k int, lambda float64) []int {
	if k > len(candidates) {
		k = len(candidates)
	}
	if k <= 0 {
		return nil
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = cosineSimilarity(query, c)
	}

	selected := make([]int, 0, k)
	used := make([]bool, len(candidates))
	// redundancy[i] tracks max similarity of candidate i to anything selected.
	redundancy := make([]float64, len(candidates))

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if used[i] {
				continue
			}
			score := lambda * relevance[i]
			if len(selected) > 0 {
				score -= (1 - lambda) * redundancy[i]
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		used[bestIdx] = true
		selected = append(selected, bestIdx)
		for i := range candidates {
			if used[i] {
				continue
			}
			if sim := cosineSimilarity(candidates[i], candidates[bestIdx]); len(selected) == 1 || sim > redundancy[i] {
				redundancy[i] = sim
			}
		}
	}
	return selected
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
