package components

import (
	"storefront/internal/infra/uow"

	"go.uber.org/fx"
)

// Repositories are reached through the unit of work, which builds them
// on the transaction it opens.
var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		uow.NewPostgresUoW,
	),
)
