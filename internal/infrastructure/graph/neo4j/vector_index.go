package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

// VectorIndex searches a Neo4j vector index over publication nodes. Hit
// content lists the configured text properties one per line, metadata
// carries every other node property except the stored embedding.
type VectorIndex struct {
	store             *Store
	index             string
	textProperties    []string
	embeddingProperty string
}

func NewVectorIndex(store *Store, index string, textProperties []string, embeddingProperty string) *VectorIndex {
	return &VectorIndex{
		store:             store,
		index:             index,
		textProperties:    textProperties,
		embeddingProperty: embeddingProperty,
	}
}

func (v *VectorIndex) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.VectorHit, error) {
	if limit <= 0 {
		return nil, nil
	}
	params := map[string]any{
		"index":     v.index,
		"k":         limit,
		"embedding": toFloat64(queryVector),
		"props":     v.textProperties,
	}
	_, records, err := v.store.read(ctx, "vector_search", vectorSearchQuery(v.embeddingProperty), params)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.VectorHit, 0, len(records))
	for _, row := range recordsToRows([]string{"text", "metadata", "score"}, records) {
		hit := domain.VectorHit{}
		hit.Content, _ = row["text"].(string)
		hit.Metadata, _ = row["metadata"].(map[string]any)
		switch score := row["score"].(type) {
		case float64:
			hit.Score = score
		case int64:
			hit.Score = float64(score)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func vectorSearchQuery(embeddingProperty string) string {
	query := `CALL db.index.vector.queryNodes($index, $k, $embedding) YIELD node, score
RETURN reduce(str = '', k IN $props | str + '\n' + k + ': ' + coalesce(toString(node[k]), '')) AS text,
       node {.*`
	if embeddingProperty != "" {
		query += fmt.Sprintf(", `%s`: Null", strings.ReplaceAll(embeddingProperty, "`", ""))
	}
	return query + `} AS metadata, score
ORDER BY score DESC`
}

func toFloat64(vector []float32) []float64 {
	out := make([]float64, len(vector))
	for i, v := range vector {
		out[i] = float64(v)
	}
	return out
}
