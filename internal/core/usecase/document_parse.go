package usecase

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

// Metadata keys carried by publication hits.
const (
	MetadataIdentifier = "omid"
	MetadataYear       = "year"
	MetadataMonth      = "month"
	MetadataDay        = "day"
	MetadataPublisher  = "publisher"
	MetadataEmbedding  = "embedding_vectors"
)

// ExtractField returns the value of the first "key: value" line in content.
// Keys match case-sensitively at the start of a line.
func ExtractField(content, key string) (string, bool) {
	prefix := key + ":"
	for _, line := range strings.Split(content, "\n") {
		rest, found := strings.CutPrefix(strings.TrimSpace(line), prefix)
		if !found {
			continue
		}
		value := strings.TrimSpace(rest)
		if value == "" {
			continue
		}
		return value, true
	}
	return "", false
}

// ParseDocument converts a vector hit into a publication record. Missing
// title or venue is logged and left nil.
func ParseDocument(hit domain.VectorHit) domain.RetrievedDocument {
	doc := domain.RetrievedDocument{
		Content:    hit.Content,
		Identifier: metadataString(hit.Metadata, MetadataIdentifier),
		Year:       metadataInt(hit.Metadata, MetadataYear),
		Month:      metadataInt(hit.Metadata, MetadataMonth),
		Day:        metadataInt(hit.Metadata, MetadataDay),
		Embedding:  metadataVector(hit.Metadata, MetadataEmbedding),
	}
	if doc.Identifier == "" {
		doc.Identifier = metadataString(hit.Metadata, "id")
	}
	if publisher := metadataString(hit.Metadata, MetadataPublisher); publisher != "" {
		doc.Publisher = &publisher
	}

	if title, ok := ExtractField(hit.Content, "title"); ok {
		doc.Title = &title
	} else {
		slog.Warn("document_field_missing", "field", "title", "omid", doc.Identifier)
	}
	if venue, ok := ExtractField(hit.Content, "venue"); ok {
		doc.Venue = &venue
	} else {
		slog.Warn("document_field_missing", "field", "venue", "omid", doc.Identifier)
	}
	return doc
}

func metadataString(metadata map[string]any, key string) string {
	v, ok := metadata[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%v", v)
}

func metadataInt(metadata map[string]any, key string) *int {
	v, ok := metadata[key]
	if !ok || v == nil {
		return nil
	}

	var n int
	switch typed := v.(type) {
	case int:
		n = typed
	case int64:
		n = int(typed)
	case int32:
		n = int(typed)
	case float64:
		if math.IsNaN(typed) || typed != math.Trunc(typed) {
			return nil
		}
		n = int(typed)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}

func metadataVector(metadata map[string]any, key string) []float32 {
	v, ok := metadata[key]
	if !ok || v == nil {
		return nil
	}
	switch typed := v.(type) {
	case []float32:
		return typed
	case []float64:
		out := make([]float32, len(typed))
		for i, f := range typed {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, 0, len(typed))
		for _, item := range typed {
			f, ok := item.(float64)
			if !ok {
				return nil
			}
			out = append(out, float32(f))
		}
		return out
	default:
		return nil
	}
}
