package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

// DefaultBatchSize is how many illustrations are read per backfill round.
const DefaultBatchSize = 100

// BackfillStats summarizes a backfill run.
type BackfillStats struct {
	Embedded int64
	Failed   int64
}

// Backfiller computes embeddings for illustrations that have none.
type Backfiller struct {
	store     store.Store
	embedder  Embedder
	workers   int
	batchSize int
	logger    *slog.Logger
}

// NewBackfiller creates a backfiller running at most workers embed calls at once.
func NewBackfiller(s store.Store, embedder Embedder, workers int, logger *slog.Logger) *Backfiller {
	if workers <= 0 {
		workers = 4
	}
	return &Backfiller{
		store:     s,
		embedder:  embedder,
		workers:   workers,
		batchSize: DefaultBatchSize,
		logger:    logger,
	}
}

// Run embeds every illustration of ownerID (0 = all owners) lacking an
// embedding. The run walks the missing set once in id order; failed
// illustrations are logged and left for the next run.
func (b *Backfiller) Run(ctx context.Context, ownerID int64) (BackfillStats, error) {
	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return BackfillStats{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		stats   BackfillStats
		afterID int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch, err := b.store.ListIllustrationsMissingEmbedding(ctx, ownerID, afterID, b.batchSize)
		if err != nil {
			return stats, fmt.Errorf("list illustrations: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].ID

		var (
			wg       sync.WaitGroup
			embedded atomic.Int64
			failed   atomic.Int64
		)
		for _, il := range batch {
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				if err := b.embedOne(ctx, il); err != nil {
					failed.Add(1)
					b.logger.Warn("embedding failed", "illustration_id", il.ID, "error", err)
					return
				}
				embedded.Add(1)
			}); err != nil {
				wg.Done()
				wg.Wait()
				return stats, fmt.Errorf("submit embedding task: %w", err)
			}
		}
		wg.Wait()

		stats.Embedded += embedded.Load()
		stats.Failed += failed.Load()
		b.logger.Info("backfill round complete",
			"owner_id", ownerID,
			"after_id", afterID,
			"embedded", embedded.Load(),
			"failed", failed.Load(),
		)

		if len(batch) < b.batchSize {
			break
		}
	}
	return stats, nil
}

func (b *Backfiller) embedOne(ctx context.Context, il *domain.Illustration) error {
	vec, err := b.embedder.Embed(ctx, il.EmbeddingText())
	if err != nil {
		return err
	}
	return b.store.SetIllustrationEmbedding(ctx, il.ID, vec)
}
