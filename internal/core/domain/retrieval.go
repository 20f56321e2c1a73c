package domain

// VectorHit is a raw similarity-index match before field extraction.
type VectorHit struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// GraphResult is the row set returned by a validated graph query.
type GraphResult struct {
	Query   string           `json:"query"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func (r GraphResult) Empty() bool {
	return len(r.Rows) == 0
}
