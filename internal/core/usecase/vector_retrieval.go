package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

// VectorTopK is the number of publications kept from similarity search.
const VectorTopK = 3

type VectorRetriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewVectorRetriever(embedder ports.Embedder, index ports.VectorIndex) *VectorRetriever {
	return &VectorRetriever{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve returns up to VectorTopK documents in descending score order
// together with their (identifier, title) references in the same order.
func (r *VectorRetriever) Retrieve(ctx context.Context, text string) ([]domain.RetrievedDocument, []domain.ArticleRef, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, domain.WrapError(domain.ErrRetrieval, "vector retrieve", fmt.Errorf("similarity query is empty"))
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrRetrieval, "vector retrieve", fmt.Errorf("embed query: %w", err))
	}

	hits, err := r.index.Search(ctx, queryVector, VectorTopK)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrRetrieval, "vector retrieve", fmt.Errorf("search index: %w", err))
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > VectorTopK {
		hits = hits[:VectorTopK]
	}

	docs := make([]domain.RetrievedDocument, 0, len(hits))
	refs := make([]domain.ArticleRef, 0, len(hits))
	for _, hit := range hits {
		doc := ParseDocument(hit)
		docs = append(docs, doc)
		refs = append(refs, doc.Ref())
	}
	return docs, refs, nil
}
