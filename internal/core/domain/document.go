package domain

// RetrievedDocument is a publication record recovered from a vector hit.
// Nil pointer fields were absent in the source record.
type RetrievedDocument struct {
	Content    string    `json:"content"`
	Identifier string    `json:"omid"`
	Title      *string   `json:"title"`
	Venue      *string   `json:"venue"`
	Publisher  *string   `json:"publisher"`
	Year       *int      `json:"year"`
	Month      *int      `json:"month"`
	Day        *int      `json:"day"`
	Embedding  []float32 `json:"-"`
}

// Ref returns the (identifier, title) pair passed to grounded prompts.
func (d RetrievedDocument) Ref() ArticleRef {
	ref := ArticleRef{Identifier: d.Identifier}
	if d.Title != nil {
		ref.Title = *d.Title
	}
	return ref
}

type ArticleRef struct {
	Identifier string `json:"omid"`
	Title      string `json:"title"`
}
