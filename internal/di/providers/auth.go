package providers

import (
	"github.com/samber/do/v2"

	"github.com/illustrationsapp/illustrations-server/internal/auth"
	"github.com/illustrationsapp/illustrations-server/internal/config"
	"github.com/illustrationsapp/illustrations-server/internal/logger"
)

// ProvideTokenService provides the PASETO token service.
// Without a configured key, one is loaded from or generated into the data directory.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex := cfg.Auth.KeyHex
	if keyHex == "" {
		var err error
		if keyHex, err = auth.LoadOrGenerateKey(cfg.App.DataDir); err != nil {
			return nil, err
		}
		cfg.Auth.KeyHex = keyHex
	}

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return auth.NewTokenService(keyHex, cfg.Auth.AccessTokenDuration)
}
