// Package container is the composition root. It builds the dependency graph
// from configuration and owns the shutdown order of external resources.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	httpadapter "github.com/dkrylov/coinledger/internal/adapters/http"
	"github.com/dkrylov/coinledger/internal/adapters/http/handlers"
	"github.com/dkrylov/coinledger/internal/application/ports"
	movementuc "github.com/dkrylov/coinledger/internal/application/usecases/movement"
	transactionuc "github.com/dkrylov/coinledger/internal/application/usecases/transaction"
	"github.com/dkrylov/coinledger/internal/config"
	"github.com/dkrylov/coinledger/internal/infrastructure/cache"
	"github.com/dkrylov/coinledger/internal/infrastructure/events"
	"github.com/dkrylov/coinledger/internal/infrastructure/persistence/postgres"
)

// Container holds the wired application.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Pool        *pgxpool.Pool
	redisClient *redis.Client
	natsConn    *nats.Conn

	Users        ports.UserRepository
	AssetTypes   ports.AssetTypeRepository
	Wallets      ports.WalletRepository
	Transactions ports.TransactionRepository
	Ledger       ports.LedgerRepository
	UnitOfWork   ports.UnitOfWork
	Publisher    ports.EventPublisher

	TopUp    *movementuc.TopUpUseCase
	Bonus    *movementuc.BonusUseCase
	Purchase *movementuc.PurchaseUseCase

	GetTransaction *transactionuc.GetTransactionUseCase
	GetByKey       *transactionuc.GetByIdempotencyKeyUseCase
	List           *transactionuc.ListTransactionsUseCase

	Server *httpadapter.Server
}

// New builds the container. Optional backends (redis, NATS) are wired only
// when configured; the service is fully functional without them.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	c.Logger = newLogger(cfg.Log)

	pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConnections,
		MinConns:        cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.Pool = pool

	c.Users = postgres.NewUserRepository(pool)
	c.AssetTypes = postgres.NewAssetTypeRepository(pool)
	c.Wallets = postgres.NewWalletRepository(pool)
	c.Transactions = postgres.NewTransactionRepository(pool)
	c.Ledger = postgres.NewLedgerRepository(pool)
	c.UnitOfWork = postgres.NewUnitOfWork(pool)

	var idempotencyCache ports.IdempotencyCache
	if cfg.Redis.Enabled() {
		c.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			c.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		idempotencyCache = cache.NewRedisIdempotencyCache(c.redisClient)
		c.Logger.Info("idempotency cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	if cfg.NATS.Enabled() {
		conn, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		c.natsConn = conn
		c.Publisher = events.NewNATSPublisher(conn, c.Logger)
		c.Logger.Info("event publisher enabled", slog.String("url", cfg.NATS.URL))
	}

	gate := movementuc.NewIdempotencyGate(c.Transactions, idempotencyCache, c.Logger)
	executor := movementuc.NewExecutor(c.UnitOfWork, c.Transactions, c.Wallets, c.Ledger, c.Logger)

	c.TopUp = movementuc.NewTopUpUseCase(gate, executor, c.Wallets, c.Publisher, c.Logger)
	c.Bonus = movementuc.NewBonusUseCase(gate, executor, c.Wallets, c.Publisher, c.Logger)
	c.Purchase = movementuc.NewPurchaseUseCase(gate, executor, c.Wallets, c.Publisher, c.Logger)

	c.GetTransaction = transactionuc.NewGetTransactionUseCase(c.Transactions)
	c.GetByKey = transactionuc.NewGetByIdempotencyKeyUseCase(c.Transactions)
	c.List = transactionuc.NewListTransactionsUseCase(c.Transactions)

	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		Logger:             c.Logger,
		ServiceName:        cfg.App.Name,
		Environment:        cfg.App.Environment,
		EnableStackTrace:   !cfg.App.IsProduction(),
		MovementHandler:    handlers.NewMovementHandler(c.TopUp, c.Bonus, c.Purchase, c.Logger),
		TransactionHandler: handlers.NewTransactionHandler(c.GetTransaction, c.GetByKey, c.List),
		HealthHandler:      handlers.NewHealthHandler(pool, cfg.App.Version),
	})

	c.Server = httpadapter.NewServer(httpadapter.ServerConfig{
		Address:         cfg.Server.Address(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, c.Logger)

	return c, nil
}

// Close releases external resources in reverse acquisition order.
func (c *Container) Close() {
	if c.natsConn != nil {
		if err := c.natsConn.Drain(); err != nil {
			c.Logger.Warn("nats drain failed", slog.String("error", err.Error()))
		}
		c.natsConn = nil
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.Logger.Warn("redis close failed", slog.String("error", err.Error()))
		}
		c.redisClient = nil
	}
	if c.Pool != nil {
		c.Pool.Close()
		c.Pool = nil
	}
}

// newLogger builds the slog logger from config.
func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
