package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/illustrationsapp/illustrations-server/internal/config"
	"github.com/illustrationsapp/illustrations-server/internal/logger"
	"github.com/illustrationsapp/illustrations-server/internal/store"
	"github.com/illustrationsapp/illustrations-server/internal/store/postgres"
	"github.com/illustrationsapp/illustrations-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured database backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		db, err := postgres.Open(ctx, cfg.Database.URL, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", config.DriverPostgres)
		return &StoreHandle{Store: db}, nil

	case config.DriverSQLite, "":
		db, err := sqlite.Open(cfg.Database.Path, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", config.DriverSQLite, "path", cfg.Database.Path)
		return &StoreHandle{Store: db}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
