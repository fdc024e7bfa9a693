package domain

// Candidate is one ranked search hit. It lives for a single request.
type Candidate struct {
	IllustrationID int64         `json:"illustration_id"`
	TextScore      float64       `json:"text_score"`
	EmbeddingScore *float64      `json:"embedding_score,omitempty"`
	FusedScore     float64       `json:"fused_score"`
	Illustration   *Illustration `json:"illustration,omitempty"`
}
