// Package app wires the engine's dependencies: device store, backend
// clients, billing channel, event bus, and the session-scoped stores.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	checkoutapp "github.com/minilingo/minilingo/internal/checkout/application"
	checkoutdomain "github.com/minilingo/minilingo/internal/checkout/domain"
	checkoutbackend "github.com/minilingo/minilingo/internal/checkout/infrastructure/backend"
	checkoutPersistence "github.com/minilingo/minilingo/internal/checkout/infrastructure/persistence"
	"github.com/minilingo/minilingo/internal/checkout/infrastructure/playbilling"
	entapp "github.com/minilingo/minilingo/internal/entitlements/application"
	entbackend "github.com/minilingo/minilingo/internal/entitlements/infrastructure/backend"
	identityapp "github.com/minilingo/minilingo/internal/identity/application"
	identitydomain "github.com/minilingo/minilingo/internal/identity/domain"
	identityPersistence "github.com/minilingo/minilingo/internal/identity/infrastructure/persistence"
	"github.com/minilingo/minilingo/internal/shared/infrastructure/database"
	"github.com/minilingo/minilingo/internal/shared/infrastructure/eventbus"
	"github.com/minilingo/minilingo/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	DB          *sql.DB
	PGPool      *pgxpool.Pool
	RedisClient *redis.Client

	Publisher eventbus.Publisher
	Bus       *eventbus.InProcessBus

	Credentials *identityPersistence.SQLiteCredentialRepository
	Sessions    *identityapp.Manager

	Channel  checkoutdomain.Channel
	History  *entbackend.Client
	Verifier *checkoutbackend.Verifier

	Cart     *checkoutPersistence.SQLiteCartRepository
	Attempts checkoutdomain.AttemptRepository

	// Session-scoped; populated by AttachSession, destroyed on logout.
	Store        *entapp.Store
	Selection    *checkoutdomain.Selection
	Orchestrator *checkoutapp.Orchestrator
}

// New builds the container. Optional backends (Postgres, Redis, RabbitMQ)
// degrade gracefully when not configured or not reachable.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{Config: cfg, Logger: logger}

	db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open device store: %w", err)
	}
	c.DB = db

	c.Credentials = identityPersistence.NewSQLiteCredentialRepository(db)
	if err := c.Credentials.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init credential store: %w", err)
	}

	c.Cart = checkoutPersistence.NewSQLiteCartRepository(db)
	if err := c.Cart.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init cart store: %w", err)
	}

	if err := c.initAttempts(ctx); err != nil {
		return nil, err
	}
	c.initRedis(ctx)
	if err := c.initPublisher(); err != nil {
		return nil, err
	}

	c.Sessions = identityapp.NewManager(c.Credentials, logger)

	c.History = entbackend.NewClient(cfg.BackendURL, c.Sessions.Token, cfg.BackendTimeout, logger)
	c.Verifier = checkoutbackend.NewVerifier(cfg.BackendURL, c.Sessions.Token, cfg.VerifyTimeout, logger)

	sandbox := playbilling.NewSandboxChannel(cfg.LocalizedPrice, logger)
	c.Channel = playbilling.NewProductCachingChannel(sandbox, c.RedisClient, cfg.ProductCacheTTL, logger)

	return c, nil
}

func (c *Container) initAttempts(ctx context.Context) error {
	if c.Config.DatabaseURL == "" {
		repo := checkoutPersistence.NewSQLiteAttemptRepository(c.DB)
		if err := repo.Init(ctx); err != nil {
			return fmt.Errorf("failed to init attempt store: %w", err)
		}
		c.Attempts = repo
		return nil
	}

	pool, err := pgxpool.New(ctx, c.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	c.PGPool = pool

	repo := checkoutPersistence.NewPostgresAttemptRepository(pool)
	if err := repo.Init(ctx); err != nil {
		return fmt.Errorf("failed to init attempt store: %w", err)
	}
	c.Attempts = repo
	return nil
}

func (c *Container) initRedis(ctx context.Context) {
	if c.Config.RedisURL == "" {
		return
	}
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid redis url, product cache disabled", "error", err)
		return
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		c.Logger.Warn("redis unreachable, product cache disabled", "error", err)
		_ = client.Close()
		return
	}
	c.RedisClient = client
}

func (c *Container) initPublisher() error {
	if c.Config.AMQPURL == "" {
		bus := eventbus.NewInProcessBus(c.Logger)
		c.Bus = bus
		c.Publisher = bus
		return nil
	}
	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.AMQPURL, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect event publisher: %w", err)
	}
	c.Publisher = publisher
	return nil
}

// cartSnapshotConsumer re-saves the device cart snapshot whenever a
// purchase is verified, so a purchase settled outside the usual command
// flow (platform redelivery, teardown race) never leaves a bought course
// in the persisted cart.
type cartSnapshotConsumer struct {
	cart      *checkoutPersistence.SQLiteCartRepository
	selection *checkoutdomain.Selection
}

func (c *cartSnapshotConsumer) EventTypes() []string {
	return []string{eventbus.RoutingKeyPurchaseVerified}
}

func (c *cartSnapshotConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	purchasable := c.selection.PurchasableSelections()
	keys := make([]catalog.Key, 0, len(purchasable))
	for _, o := range purchasable {
		keys = append(keys, o.Key())
	}
	return c.cart.Save(ctx, keys)
}

// AttachSession builds the session-scoped stores and the purchase
// orchestrator for the given session, and ties their destruction to
// session end.
func (c *Container) AttachSession(session *identitydomain.Session, notifier checkoutdomain.Notifier) {
	c.Store = entapp.NewStore(c.History, c.Publisher, c.Logger)
	c.Selection = checkoutdomain.NewSelection(c.Store)
	if c.Bus != nil {
		c.Bus.RegisterConsumer(&cartSnapshotConsumer{cart: c.Cart, selection: c.Selection})
	}
	c.Orchestrator = checkoutapp.NewOrchestrator(
		checkoutapp.OrchestratorConfig{
			UserID:        session.UserID,
			VerifyTimeout: c.Config.VerifyTimeout,
		},
		c.Channel,
		c.Verifier,
		c.Store,
		c.Selection,
		c.Attempts,
		notifier,
		c.Publisher,
		c.Logger,
	)

	store, selection := c.Store, c.Selection
	c.Sessions.OnEnd(func() {
		store.Clear()
		selection.Clear()
		ctx, cancel := context.WithTimeout(context.Background(), c.Config.BackendTimeout)
		defer cancel()
		if err := c.Cart.Clear(ctx); err != nil {
			c.Logger.Warn("failed to clear cart snapshot", "error", err)
		}
	})
}

// Close releases every connection the container owns.
func (c *Container) Close() error {
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing redis client", "error", err)
		}
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
