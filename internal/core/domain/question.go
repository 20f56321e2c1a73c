package domain

import (
	"fmt"
	"strings"
)

type Strategy string

const (
	StrategyVectorSearch Strategy = "vector_search"
	StrategyGraphQuery   Strategy = "graph_query"
)

// ParseStrategy accepts the canonical labels and their spaced variants.
func ParseStrategy(raw string) (Strategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch Strategy(normalized) {
	case StrategyVectorSearch:
		return StrategyVectorSearch, nil
	case StrategyGraphQuery:
		return StrategyGraphQuery, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", raw)
	}
}

// QueryType is the human label handed to the formatter.
func (s Strategy) QueryType() string {
	if s == StrategyVectorSearch {
		return "Vector Search + Graph Query"
	}
	return "Direct Graph Query"
}

type Purpose string

const (
	PurposeSimilarity Purpose = "similarity"
	PurposeStructured Purpose = "structured"
)

func ParsePurpose(raw string) (Purpose, bool) {
	switch Purpose(strings.ToLower(strings.TrimSpace(raw))) {
	case PurposeSimilarity:
		return PurposeSimilarity, true
	case PurposeStructured:
		return PurposeStructured, true
	default:
		return "", false
	}
}

type SubQuery struct {
	Text    string  `json:"sub_query"`
	Purpose Purpose `json:"purpose"`
}

// Decomposition is addressed by purpose, never by position.
type Decomposition struct {
	Similarity SubQuery `json:"similarity"`
	Structured SubQuery `json:"structured"`
}

func (d Decomposition) Items() []SubQuery {
	return []SubQuery{d.Similarity, d.Structured}
}
