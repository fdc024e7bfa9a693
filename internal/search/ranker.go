package search

import (
	"context"
	"errors"
	"math"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
)

// ErrDimensionMismatch is returned by CosineSimilarity for vectors of different length.
var ErrDimensionMismatch = errors.New("vectors have different dimensions")

// ErrZeroVector is returned by CosineSimilarity when either vector has zero magnitude.
var ErrZeroVector = errors.New("cannot compute cosine similarity of zero vector")

// CosineSimilarity returns the cosine of the angle between a and b, in [-1,1].
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// EmbeddingRanker scores illustrations by cosine similarity of embeddings.
type EmbeddingRanker struct{}

// NewEmbeddingRanker creates an embedding ranker.
func NewEmbeddingRanker() *EmbeddingRanker {
	return &EmbeddingRanker{}
}

// Score returns one embedding score per illustration, in corpus order.
// Cosine is mapped from [-1,1] to [0,1] via (cos+1)/2. Illustrations with no
// stored embedding, or one that cannot be compared, score 0.
func (r *EmbeddingRanker) Score(ctx context.Context, query []float32, corpus []*domain.Illustration) ([]float64, error) {
	scores := make([]float64, len(corpus))
	for i, il := range corpus {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !il.HasEmbedding() {
			continue
		}
		cos, err := CosineSimilarity(query, il.Embedding)
		if err != nil {
			continue
		}
		scores[i] = clamp01((cos + 1) / 2)
	}
	return scores, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
