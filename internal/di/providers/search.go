package providers

import (
	"github.com/samber/do/v2"

	"github.com/illustrationsapp/illustrations-server/internal/config"
	"github.com/illustrationsapp/illustrations-server/internal/embedding"
	"github.com/illustrationsapp/illustrations-server/internal/logger"
	"github.com/illustrationsapp/illustrations-server/internal/search"
	"github.com/illustrationsapp/illustrations-server/internal/service"
)

// EmbedderHandle holds the optional embedding provider.
// Embedder is nil when no provider is configured.
type EmbedderHandle struct {
	Embedder embedding.Embedder
}

// ProvideFuser provides the candidate fuser built from the search settings.
func ProvideFuser(i do.Injector) (*search.Fuser, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	fuser := search.NewFuser(cfg.Search.FuserConfig())

	log.Info("Search fuser configured",
		"strategy", fuser.Strategy(),
		"text_weight", cfg.Search.TextWeight,
		"embedding_weight", cfg.Search.EmbeddingWeight,
		"min_score", cfg.Search.MinScore,
		"dimension", cfg.Search.Dimension,
	)

	return fuser, nil
}

// ProvideEmbedder provides the OpenAI-compatible embedder when configured.
func ProvideEmbedder(i do.Injector) (*EmbedderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Embedder.Enabled() {
		log.Info("Embedding provider not configured, illustrations are indexed by text only")
		return &EmbedderHandle{}, nil
	}

	embedder := embedding.NewOpenAIEmbedder(embedding.Config{
		APIKey:     cfg.Embedder.APIKey,
		BaseURL:    cfg.Embedder.BaseURL,
		Model:      cfg.Embedder.Model,
		Dimensions: cfg.Search.Dimension,
	})

	log.Info("Embedding provider configured",
		"model", cfg.Embedder.Model,
		"base_url", cfg.Embedder.BaseURL,
		"dimension", cfg.Search.Dimension,
	)

	return &EmbedderHandle{Embedder: embedder}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	fuser := do.MustInvoke[*search.Fuser](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(storeHandle.Store, fuser, cfg.Search.Dimension, log.Logger), nil
}
