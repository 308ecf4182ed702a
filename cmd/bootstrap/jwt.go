package bootstrap

import (
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/jwt"

	"go.uber.org/fx"
)

var JWTModule = fx.Module("jwt",
	fx.Provide(
		NewJWTService,
	),
)

func NewJWTService(cfg config.Config) (*jwt.Service, error) {
	if cfg.JWT.Duration <= 0 || cfg.JWT.RefreshDuration < cfg.JWT.Duration {
		return nil, errs.Newf("invalid JWT durations: access %s, refresh %s", cfg.JWT.Duration, cfg.JWT.RefreshDuration)
	}
	return jwt.NewService(cfg.JWT.Secret, cfg.JWT.Duration, cfg.JWT.RefreshDuration), nil
}
