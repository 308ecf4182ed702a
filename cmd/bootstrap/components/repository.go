package components

import (
	"storefront/internal/infra/commerce"
	"storefront/internal/infra/credstore"
	"storefront/internal/pkg/config"
	"storefront/internal/usecase/cartsync"
	"storefront/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// RepositoryModule provides the stores that live outside Postgres: the
// remote commerce service and the sealed credential store.
var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			NewCommerceClient,
			fx.As(new(shared.AccountGateway)),
			fx.As(new(shared.DiscountGateway)),
			fx.As(new(shared.OrderGateway)),
			fx.As(new(cartsync.Store)),
		),
		fx.Annotate(
			NewCredentialStore,
			fx.As(new(shared.CredentialStore)),
		),
	),
)

func NewCommerceClient(cfg config.Config) (*commerce.Client, error) {
	return commerce.NewClient(cfg.Commerce)
}

func NewCredentialStore(client *redis.Client, cfg config.Config) (*credstore.RedisStore, error) {
	sealer, err := credstore.NewSealer(cfg.Redis.SealKey)
	if err != nil {
		return nil, err
	}
	return credstore.NewRedisStore(client, sealer), nil
}
