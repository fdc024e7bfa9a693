package search

import (
	"context"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
)

// cancelCheckInterval is how many candidates are scored between context checks.
const cancelCheckInterval = 256

// TrigramMatcher scores illustrations by trigram overlap with the query text.
type TrigramMatcher struct{}

// NewTrigramMatcher creates a trigram matcher.
func NewTrigramMatcher() *TrigramMatcher {
	return &TrigramMatcher{}
}

// Score returns one text score per illustration, in corpus order.
// The score is the larger of the title similarity and the share of query
// trigrams found in the content. An empty corpus yields an empty slice.
func (m *TrigramMatcher) Score(ctx context.Context, text string, corpus []*domain.Illustration) ([]float64, error) {
	scores := make([]float64, len(corpus))
	if len(corpus) == 0 {
		return scores, nil
	}

	q := Trigrams(text)
	for i, il := range corpus {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		titleScore := similarity(q, Trigrams(il.Title))
		contentScore := wordSimilarity(q, Trigrams(il.Content))
		scores[i] = clamp01(max(titleScore, contentScore))
	}
	return scores, nil
}
