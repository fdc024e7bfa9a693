package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
	"github.com/illustrationsapp/illustrations-server/internal/metrics"
	"github.com/illustrationsapp/illustrations-server/internal/search"
	"github.com/illustrationsapp/illustrations-server/internal/store"
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// SearchService runs hybrid search over one owner's illustrations.
// It validates the request, reads the owner's corpus once, scores it with the
// trigram matcher and the embedding ranker in parallel, and fuses the results.
type SearchService struct {
	store     store.Store
	matcher   *search.TrigramMatcher
	ranker    *search.EmbeddingRanker
	fuser     *search.Fuser
	dimension int
	logger    *slog.Logger
}

// NewSearchService creates a new search service.
// dimension is the embedding length every query vector must have.
func NewSearchService(store store.Store, fuser *search.Fuser, dimension int, logger *slog.Logger) *SearchService {
	return &SearchService{
		store:     store,
		matcher:   search.NewTrigramMatcher(),
		ranker:    search.NewEmbeddingRanker(),
		fuser:     fuser,
		dimension: dimension,
		logger:    logger,
	}
}

// Dimension returns the expected query embedding length.
func (s *SearchService) Dimension() int {
	return s.dimension
}

// Search validates req and returns ranked candidates for ownerID.
func (s *SearchService) Search(ctx context.Context, ownerID int64, req domain.SearchRequest) ([]domain.Candidate, error) {
	q, err := validation.ValidateQuery(req, s.dimension)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, ownerID, q)
}

// Run executes an already validated query.
func (s *SearchService) Run(ctx context.Context, ownerID int64, q domain.Query) ([]domain.Candidate, error) {
	start := time.Now()

	corpus, err := s.store.FetchEligibleIllustrations(ctx, ownerID)
	if err != nil {
		return nil, store.ToDomain(err, "fetch eligible illustrations")
	}

	var textScores, embeddingScores []float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scores, err := s.matcher.Score(gctx, q.Text, corpus)
		textScores = scores
		return err
	})
	if q.HasEmbedding() {
		g.Go(func() error {
			scores, err := s.ranker.Score(gctx, q.Embedding, corpus)
			embeddingScores = scores
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, scoringError(err)
	}

	strategy := q.Strategy
	if strategy == "" {
		strategy = s.fuser.Strategy()
	}
	candidates := s.fuser.Fuse(corpus, textScores, embeddingScores, q.Limit, strategy)

	if q.IncludeDetails {
		byID := make(map[int64]*domain.Illustration, len(corpus))
		for _, il := range corpus {
			byID[il.ID] = il
		}
		for i := range candidates {
			candidates[i].Illustration = byID[candidates[i].IllustrationID]
		}
	}

	elapsed := time.Since(start)
	metrics.ObserveSearch(strategy, q.HasEmbedding(), len(corpus), len(candidates), elapsed)
	s.logger.Debug("search complete",
		"owner_id", ownerID,
		"strategy", strategy,
		"hybrid", q.HasEmbedding(),
		"corpus", len(corpus),
		"results", len(candidates),
		"duration_ms", elapsed.Milliseconds(),
	)

	return candidates, nil
}

// scoringError converts a matcher or ranker failure into a domain error.
// Scoring only fails when the request context ends, so both context errors
// keep their cause for errors.Is and surface with a stable message.
func scoringError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "search timed out")
	case errors.Is(err, context.Canceled):
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "search cancelled")
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "search scoring failed")
	}
}
