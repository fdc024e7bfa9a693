package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr error
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, nil},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, nil},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, nil},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0, ErrDimensionMismatch},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0, ErrZeroVector},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestEmbeddingRanker_MapsCosineToUnitInterval(t *testing.T) {
	corpus := []*domain.Illustration{
		{ID: 1, Embedding: []float32{1, 0}},
		{ID: 2, Embedding: []float32{-1, 0}},
		{ID: 3, Embedding: []float32{0, 1}},
		{ID: 4},
		{ID: 5, Embedding: []float32{1, 0, 0}},
		{ID: 6, Embedding: []float32{0, 0}},
	}

	scores, err := NewEmbeddingRanker().Score(context.Background(), []float32{1, 0}, corpus)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, scores[0], 1e-6)
	assert.InDelta(t, 0.0, scores[1], 1e-6)
	assert.InDelta(t, 0.5, scores[2], 1e-6)
	assert.InDelta(t, 0.0, scores[3], 1e-9, "missing embedding scores 0")
	assert.InDelta(t, 0.0, scores[4], 1e-9, "different dimension scores 0")
	assert.InDelta(t, 0.0, scores[5], 1e-9, "zero vector scores 0")
}
