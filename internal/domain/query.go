package domain

// Query bounds.
const (
	MaxQueryTextLength = 500
	DefaultQueryLimit  = 20
	MaxQueryLimit      = 100
)

// Fusion strategies a query may select.
const (
	StrategyWeighted = "weighted"
	StrategyRRF      = "rrf"
)

// SearchRequest is the raw, unvalidated search input as decoded from a request.
type SearchRequest struct {
	Text           string    `json:"text"`
	Embedding      []float64 `json:"embedding,omitempty"`
	Limit          *int      `json:"limit,omitempty"`
	IncludeDetails bool      `json:"include_details,omitempty"`
	Strategy       string    `json:"strategy,omitempty"`
}

// Query is a validated search request.
// Embedding is nil when the caller supplied none.
type Query struct {
	Text           string
	Embedding      []float32
	Limit          int
	IncludeDetails bool
	Strategy       string
}

// HasEmbedding reports whether the query carries an embedding vector.
func (q Query) HasEmbedding() bool {
	return q.Embedding != nil
}
