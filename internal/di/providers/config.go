// Package providers contains dependency injection providers for the illustrations server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/illustrationsapp/illustrations-server/internal/config"
	"github.com/illustrationsapp/illustrations-server/internal/logger"
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting illustrations server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_dir", cfg.App.DataDir,
		"db_driver", cfg.Database.Driver,
	)

	return log, nil
}

// ProvideValidator provides the shared struct validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
