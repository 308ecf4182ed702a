//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"storefront/cmd/bootstrap"
	"storefront/cmd/bootstrap/components"
	"storefront/internal/infra/notify"
	"storefront/internal/pkg/config"
	"storefront/tests/common/dbtest"
	"storefront/tests/common/fakecommerce"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
)

// Message is one notification handed to the broker.
type Message struct {
	Topic string
	ID    string
	Body  []byte
}

// RecordingPublisher stands in for the AMQP broker.
type RecordingPublisher struct {
	mu       sync.Mutex
	messages []Message
}

func (p *RecordingPublisher) Publish(_ context.Context, topic, id string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, Message{Topic: topic, ID: id, Body: body})
	return nil
}

func (p *RecordingPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}

// ------------------------------------------------------------
// per test process setup
// ------------------------------------------------------------
type environment struct {
	pool      *pgxpool.Pool
	router    *gin.Engine
	cfg       config.Config
	commerce  *fakecommerce.Server
	redis     *miniredis.Miniredis
	publisher *RecordingPublisher
}

func setupE2EEnvironment(t *testing.T) environment {
	gin.SetMode(gin.TestMode)

	pool, dbConfig := dbtest.NewDatabase(t)
	store := fakecommerce.New(t)
	redis := miniredis.RunT(t)
	publisher := &RecordingPublisher{}

	cfg := createTestConfig(dbConfig, store.URL, redis.Addr())
	router, app := buildE2EApp(pool, cfg, publisher)
	require.NotNil(t, router, "router setup failed")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			slog.Warn("failed to stop fx app", "error", err.Error())
		}
	})

	return environment{
		pool:      pool,
		router:    router,
		cfg:       cfg,
		commerce:  store,
		redis:     redis,
		publisher: publisher,
	}
}

// ------------------------------------------------------------
// application wiring with the broker replaced
// ------------------------------------------------------------
func buildE2EApp(pool *pgxpool.Pool, cfg config.Config, publisher *RecordingPublisher) (*gin.Engine, *fx.App) {
	var router *gin.Engine

	app := fx.New(
		fx.Provide(
			func() *pgxpool.Pool { return pool },
			func() config.Config { return cfg },
			func() *gin.Engine { return gin.New() },
			func() notify.Publisher { return publisher },
			components.NewRelay,
		),
		bootstrap.LoggerModule,
		bootstrap.RedisModule,
		bootstrap.JWTModule,
		components.PersistenceModule,
		components.RepositoryModule,
		components.UseCaseModule,
		components.HandlerModule,
		fx.Invoke(components.RunWorkers),

		fx.Populate(&router),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		panic(fmt.Sprintf("failed to start fx app: %v", err))
	}
	return router, app
}

func createTestConfig(dbConfig config.DBConfig, commerceURL, redisAddr string) config.Config {
	cfg := config.NewTestConfig()
	cfg.DB = dbConfig
	cfg.Commerce.BaseURL = commerceURL
	cfg.Redis.Addr = redisAddr
	return cfg
}

// ------------------------------------------------------------
// shared suite for e2e tests
// ------------------------------------------------------------
type SharedSuite struct {
	suite.Suite
	Router    *gin.Engine
	DB        *pgxpool.Pool
	Config    config.Config
	Commerce  *fakecommerce.Server
	Redis     *miniredis.Miniredis
	Publisher *RecordingPublisher
}

func (s *SharedSuite) SetupSuite() {
	env := setupE2EEnvironment(s.T())
	s.DB = env.pool
	s.Router = env.router
	s.Config = env.cfg
	s.Commerce = env.commerce
	s.Redis = env.redis
	s.Publisher = env.publisher
}

// SetupSubTest gives each subtest an empty store cart, database and
// broker. Redis keeps its keys so sessions from the parent test survive.
func (s *SharedSuite) SetupSubTest() {
	dbtest.ResetDB(s.T(), s.DB)
	s.Commerce.Reset()
	s.Publisher.Reset()
}
