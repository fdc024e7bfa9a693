package providers

import (
	"errors"

	"github.com/samber/do/v2"

	"github.com/illustrationsapp/illustrations-server/internal/config"
	"github.com/illustrationsapp/illustrations-server/internal/embedding"
	"github.com/illustrationsapp/illustrations-server/internal/logger"
)

// ErrEmbedderDisabled is returned when a worker needs the embedding provider
// but none is configured.
var ErrEmbedderDisabled = errors.New("embedding provider not configured: set EMBEDDER_API_KEY or EMBEDDER_BASE_URL")

// ProvideBackfiller provides the embedding backfill worker.
func ProvideBackfiller(i do.Injector) (*embedding.Backfiller, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	embedder := do.MustInvoke[*EmbedderHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if embedder.Embedder == nil {
		return nil, ErrEmbedderDisabled
	}

	return embedding.NewBackfiller(storeHandle.Store, embedder.Embedder, cfg.Embedder.Workers, log.Logger), nil
}
