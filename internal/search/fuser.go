package search

import (
	"cmp"
	"slices"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
)

// DefaultRRFK is the reciprocal rank fusion denominator offset.
const DefaultRRFK = 60

// FuserConfig tunes how text and embedding signals are combined.
type FuserConfig struct {
	TextWeight      float64
	EmbeddingWeight float64
	// MinScore drops candidates whose fused score is not above it.
	MinScore float64
	// Strategy is the default strategy when a query does not pick one.
	Strategy string
	// RRFK is the rank offset used by the rrf strategy.
	RRFK int
}

// DefaultFuserConfig returns equal weights and weighted fusion.
func DefaultFuserConfig() FuserConfig {
	return FuserConfig{
		TextWeight:      0.5,
		EmbeddingWeight: 0.5,
		Strategy:        domain.StrategyWeighted,
		RRFK:            DefaultRRFK,
	}
}

// Fuser merges per-illustration text and embedding scores into a ranked list.
type Fuser struct {
	textWeight      float64
	embeddingWeight float64
	minScore        float64
	strategy        string
	rrfK            int
}

// NewFuser creates a fuser. Weights are normalized to sum to 1; non-positive
// totals fall back to the defaults.
func NewFuser(cfg FuserConfig) *Fuser {
	def := DefaultFuserConfig()
	tw, ew := max(cfg.TextWeight, 0), max(cfg.EmbeddingWeight, 0)
	if tw+ew <= 0 {
		tw, ew = def.TextWeight, def.EmbeddingWeight
	}
	total := tw + ew

	strategy := cfg.Strategy
	if strategy != domain.StrategyRRF {
		strategy = domain.StrategyWeighted
	}
	k := cfg.RRFK
	if k <= 0 {
		k = DefaultRRFK
	}

	return &Fuser{
		textWeight:      tw / total,
		embeddingWeight: ew / total,
		minScore:        clamp01(cfg.MinScore),
		strategy:        strategy,
		rrfK:            k,
	}
}

// Strategy returns the default strategy.
func (f *Fuser) Strategy() string {
	return f.strategy
}

// Fuse combines scores into candidates ordered by fused score descending,
// ties broken by illustration id ascending, truncated to limit.
// textScores and embeddingScores are aligned with corpus; a nil
// embeddingScores means the query had no embedding and ranking is text-only.
// strategy overrides the configured default when non-empty.
func (f *Fuser) Fuse(corpus []*domain.Illustration, textScores, embeddingScores []float64, limit int, strategy string) []domain.Candidate {
	if strategy == "" {
		strategy = f.strategy
	}

	candidates := make([]domain.Candidate, len(corpus))
	for i, il := range corpus {
		c := domain.Candidate{
			IllustrationID: il.ID,
			TextScore:      textScores[i],
		}
		if embeddingScores != nil {
			e := embeddingScores[i]
			c.EmbeddingScore = &e
		}
		candidates[i] = c
	}

	if strategy == domain.StrategyRRF {
		f.applyRRF(candidates)
	} else {
		f.applyWeighted(candidates)
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if c.FusedScore > f.minScore {
			kept = append(kept, c)
		}
	}

	sortCandidates(kept)
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func (f *Fuser) applyWeighted(candidates []domain.Candidate) {
	for i := range candidates {
		c := &candidates[i]
		if c.EmbeddingScore == nil {
			c.FusedScore = c.TextScore
			continue
		}
		c.FusedScore = clamp01(f.textWeight*c.TextScore + f.embeddingWeight*(*c.EmbeddingScore))
	}
}

// applyRRF scores each candidate as the weighted sum of 1/(k+rank) over the
// signals in which it has a positive score.
func (f *Fuser) applyRRF(candidates []domain.Candidate) {
	textRanks := ranks(candidates, func(c domain.Candidate) float64 { return c.TextScore })
	var embRanks map[int64]int
	hasEmbedding := len(candidates) > 0 && candidates[0].EmbeddingScore != nil
	if hasEmbedding {
		embRanks = ranks(candidates, func(c domain.Candidate) float64 { return *c.EmbeddingScore })
	}

	k := float64(f.rrfK)
	tw, ew := f.textWeight, f.embeddingWeight
	if !hasEmbedding {
		tw = 1
	}
	for i := range candidates {
		c := &candidates[i]
		var score float64
		if r, ok := textRanks[c.IllustrationID]; ok {
			score += tw / (k + float64(r))
		}
		if r, ok := embRanks[c.IllustrationID]; ok {
			score += ew / (k + float64(r))
		}
		c.FusedScore = clamp01(score)
	}
}

// ranks assigns 1-based ranks to candidates with a positive signal, ordered by
// the signal descending and id ascending.
func ranks(candidates []domain.Candidate, signal func(domain.Candidate) float64) map[int64]int {
	ordered := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if signal(c) > 0 {
			ordered = append(ordered, c)
		}
	}
	slices.SortFunc(ordered, func(a, b domain.Candidate) int {
		if c := cmp.Compare(signal(b), signal(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.IllustrationID, b.IllustrationID)
	})

	out := make(map[int64]int, len(ordered))
	for i, c := range ordered {
		out[c.IllustrationID] = i + 1
	}
	return out
}

func sortCandidates(candidates []domain.Candidate) {
	slices.SortFunc(candidates, func(a, b domain.Candidate) int {
		if c := cmp.Compare(b.FusedScore, a.FusedScore); c != 0 {
			return c
		}
		return cmp.Compare(a.IllustrationID, b.IllustrationID)
	})
}
