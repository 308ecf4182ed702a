package components

import (
	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/usecase"
	"storefront/internal/usecase/cartsync"
	"storefront/internal/usecase/commands"
	"storefront/internal/usecase/queries"
	"storefront/internal/usecase/session"
	"storefront/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewSessionRegistry,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAuthCommands,
		commands.NewDiscountCommands,
		NewCheckoutCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewUserQueries,
		queries.NewOrderQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

func NewSessionRegistry(store cartsync.Store, clk clock.Clock, cfg config.Config) *session.Registry {
	return session.NewRegistry(store, clk, cfg.Session)
}

func NewCheckoutCommands(
	accounts shared.AccountGateway,
	discounts shared.DiscountGateway,
	orders shared.OrderGateway,
	uow shared.UnitOfWork,
	clk clock.Clock,
	cfg config.Config,
) (commands.CheckoutCommands, error) {
	return commands.NewCheckoutCommands(accounts, discounts, orders, uow, clk, cfg.Checkout)
}
