package validation

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
)

// ValidateQuery checks a raw search request and returns a well-typed Query.
// dimension is the corpus embedding size; an embedding of any other length
// fails with a dimension mismatch rather than being truncated or padded.
func ValidateQuery(raw domain.SearchRequest, dimension int) (domain.Query, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return domain.Query{}, domainerrors.ValidationField("text", "is required")
	}
	if utf8.RuneCountInString(text) > domain.MaxQueryTextLength {
		return domain.Query{}, domainerrors.ValidationField("text", "must not exceed 500 characters")
	}

	limit := domain.DefaultQueryLimit
	if raw.Limit != nil {
		limit = *raw.Limit
		if limit < 1 || limit > domain.MaxQueryLimit {
			return domain.Query{}, domainerrors.ValidationField("limit", "must be between 1 and 100")
		}
	}

	var embedding []float32
	if raw.Embedding != nil {
		if len(raw.Embedding) != dimension {
			return domain.Query{}, domainerrors.DimensionMismatch("embedding", dimension, len(raw.Embedding))
		}
		embedding = make([]float32, len(raw.Embedding))
		for i, v := range raw.Embedding {
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxFloat32 {
				return domain.Query{}, domainerrors.ValidationField("embedding", "must contain only finite numbers")
			}
			embedding[i] = float32(v)
		}
	}

	strategy := strings.ToLower(strings.TrimSpace(raw.Strategy))
	switch strategy {
	case "", domain.StrategyWeighted, domain.StrategyRRF:
	default:
		return domain.Query{}, domainerrors.ValidationField("strategy", "must be one of: weighted rrf")
	}

	return domain.Query{
		Text:           text,
		Embedding:      embedding,
		Limit:          limit,
		IncludeDetails: raw.IncludeDetails,
		Strategy:       strategy,
	}, nil
}
