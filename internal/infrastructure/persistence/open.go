// Package persistence selects and assembles the sheet store from
// configuration: PostgreSQL when a database URL is configured, the in-memory
// store otherwise, optionally fronted by the Redis snapshot cache.
package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/halaqat-hub/halaqat-reports/config"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/persistence/memory"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/persistence/postgres"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/persistence/redis"
)

// Backend names the durable layer in use.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Storage is the assembled store plus the connections behind it, kept for
// health checks and shutdown.
type Storage struct {
	Store   sheet.Store
	Backend Backend

	// Postgres is nil with the memory backend.
	Postgres *postgres.Connection

	// Redis is nil when the cache is disabled or could not be reached.
	Redis *redis.Cache
}

// Open connects the configured backends. A database that cannot be reached
// or migrated is fatal; an unreachable Redis only disables the cache.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Storage{}

	if cfg.Database.URL != "" {
		logger.Info("connecting to database...")
		conn, err := postgres.NewConnection(ctx, postgresConfig(cfg.Database))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		s.Postgres = conn

		if cfg.Database.AutoMigrate {
			logger.Info("checking database migrations...")
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				conn.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		s.Store = postgres.NewSheetStore(conn, logger)
		s.Backend = BackendPostgres
		logger.Info("database connection established")
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory sheet store")
		s.Store = memory.NewSheetStore(logger)
		s.Backend = BackendMemory
	}

	if !cfg.Redis.Disabled {
		logger.Info("connecting to Redis...")
		cache, err := redis.NewCache(ctx, redisConfig(cfg.Redis))
		if err != nil {
			logger.Warn("failed to connect to Redis, snapshot cache disabled", slog.String("error", err.Error()))
		} else {
			s.Redis = cache
			s.Store = redis.NewSheetCache(cache, s.Store, cfg.Redis.SnapshotTTL, logger)
			logger.Info("Redis connection established")
		}
	}

	return s, nil
}

// Close releases every connection.
func (s *Storage) Close() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.Postgres != nil {
		s.Postgres.Close()
	}
}

func postgresConfig(db config.DatabaseConfig) postgres.Config {
	pc := postgres.DefaultConfig()
	pc.URL = db.URL
	if db.MaxConns > 0 {
		pc.MaxConns = int32(db.MaxConns)
	}
	if db.MinConns >= 0 {
		pc.MinConns = int32(db.MinConns)
	}
	if db.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = db.ConnMaxLifetime
	}
	if db.ConnMaxIdleTime > 0 {
		pc.MaxConnIdleTime = db.ConnMaxIdleTime
	}
	return pc
}

func redisConfig(rc config.RedisConfig) redis.Config {
	out := redis.DefaultConfig()
	out.URL = rc.URL
	if rc.Host != "" {
		out.Host = rc.Host
	}
	if rc.Port > 0 {
		out.Port = rc.Port
	}
	out.Password = rc.Password
	out.DB = rc.DB
	if rc.PoolSize > 0 {
		out.PoolSize = rc.PoolSize
	}
	if rc.MinIdleConns > 0 {
		out.MinIdleConns = rc.MinIdleConns
	}
	if rc.DialTimeout > 0 {
		out.DialTimeout = rc.DialTimeout
	}
	if rc.ReadTimeout > 0 {
		out.ReadTimeout = rc.ReadTimeout
	}
	if rc.WriteTimeout > 0 {
		out.WriteTimeout = rc.WriteTimeout
	}
	return out
}
