// Package di provides dependency injection configuration for the illustrations server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/illustrationsapp/illustrations-server/internal/auth"
	"github.com/illustrationsapp/illustrations-server/internal/config"
	"github.com/illustrationsapp/illustrations-server/internal/di/providers"
	"github.com/illustrationsapp/illustrations-server/internal/logger"
	"github.com/illustrationsapp/illustrations-server/internal/search"
	"github.com/illustrationsapp/illustrations-server/internal/service"
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
// The configuration is loaded by the caller so each binary can parse its own flags.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideFuser)
	do.Provide(injector, providers.ProvideEmbedder)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideIllustrationService)
	do.Provide(injector, providers.ProvideBulkService)
	do.Provide(injector, providers.ProvidePlaceService)
	do.Provide(injector, providers.ProvideImporter)

	// Workers
	do.Provide(injector, providers.ProvideBackfiller)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the serving graph and starts the HTTP listener.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*search.Fuser](injector)
	_ = do.MustInvoke[*providers.EmbedderHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)

	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}

	// Business services
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.IllustrationService](injector)
	_ = do.MustInvoke[*service.BulkService](injector)

	// Server
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
