package container

import (
	"context"
	"fmt"
	"moviemark/internal/bookmarks"
	"moviemark/internal/config"
	"moviemark/internal/logger"
	"moviemark/internal/services"
	"moviemark/internal/storage"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Container struct {
	DB           *pgxpool.Pool
	Redis        *redis.Client
	Logger       *logrus.Logger
	MovieService *services.Client
	Storage      storage.Storage
	Bookmarks    *bookmarks.Store
}

// NewProxy wires the upstream client. Redis is dialled only when a
// response cache TTL is configured.
func NewProxy(ctx context.Context) (*Container, error) {
	logger := logger.Get()

	upstream, err := config.UpstreamConfig()
	if err != nil {
		return nil, err
	}

	c := &Container{Logger: logger}

	ttl := config.CacheTTL()
	if ttl > 0 {
		redisClient, err := newRedis(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = redisClient
	}

	c.MovieService = services.NewClientWithConfig(&services.ClientConfig{
		BaseURL:  upstream.BaseURL,
		Host:     upstream.Host,
		Key:      upstream.Key,
		Timeout:  upstream.Timeout,
		Logger:   logger,
		Redis:    c.Redis,
		CacheTTL: ttl,
	})
	return c, nil
}

// NewStore opens the persistence backend selected by STORAGE_DRIVER.
func NewStore(ctx context.Context) (*Container, error) {
	logger := logger.Get()
	cfg := config.StorageConfig()
	c := &Container{Logger: logger}

	switch cfg.Driver {
	case "memory":
		c.Storage = storage.NewMemory()
	case "bolt":
		s, err := storage.OpenBolt(cfg.Path)
		if err != nil {
			return nil, err
		}
		c.Storage = s
	case "redis":
		redisClient, err := newRedis(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = redisClient
		c.Storage = storage.NewRedis(redisClient, cfg.Namespace)
	case "postgres":
		db, err := newDatabase(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		s, err := storage.NewPostgres(ctx, db, cfg.Namespace)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Storage = s
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	c.Bookmarks = bookmarks.New(c.Storage, logger)
	logger.WithField("storage", cfg.Describe()).Debug("Storage ready")
	return c, nil
}

func (c *Container) Close() {
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close storage")
		}
	}
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}

func newDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	host, port, user, password, databaseName := config.DatabaseConfig()

	if host == "" || port == "" || user == "" || password == "" || databaseName == "" {
		return nil, fmt.Errorf("missing required database configuration")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, databaseName)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// a single local profile never needs many connections
	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Get().Info("Database connection successful")
	return pool, nil
}

func newRedis(ctx context.Context) (*redis.Client, error) {
	host, port, password := config.RedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Get().Info("Redis connection successful")
	return client, nil
}
