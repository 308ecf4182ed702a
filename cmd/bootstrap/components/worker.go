package components

import (
	"context"
	"log/slog"
	"sync"

	"storefront/internal/infra/notify"
	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/usecase/session"
	"storefront/internal/usecase/shared"

	"go.uber.org/fx"
)

// WorkerModule runs the background loops: idle session eviction and the
// notification outbox relay.
var WorkerModule = fx.Module("worker",
	fx.Provide(
		fx.Annotate(
			NewPublisher,
			fx.As(new(notify.Publisher)),
		),
		NewRelay,
	),
	fx.Invoke(RunWorkers),
)

func NewPublisher(lc fx.Lifecycle, cfg config.Config) *notify.AMQPPublisher {
	publisher := notify.NewAMQPPublisher(cfg.AMQP)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}

func NewRelay(uow shared.UnitOfWork, publisher notify.Publisher, clk clock.Clock, cfg config.Config) *notify.Relay {
	return notify.NewRelay(uow, publisher, clk, cfg.AMQP)
}

// RunWorkers ties both loops to the application lifecycle. Sessions still
// open at shutdown are closed after the loops return.
func RunWorkers(lc fx.Lifecycle, registry *session.Registry, relay *notify.Relay) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				registry.Run(ctx)
			}()
			go func() {
				defer wg.Done()
				relay.Run(ctx)
			}()
			slog.Info("background workers started")
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-stopCtx.Done():
				slog.Warn("background workers did not stop in time")
			}
			registry.CloseAll()
			return nil
		},
	})
}
