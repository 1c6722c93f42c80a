// Package app assembles the concrete adapters selected by config behind
// the service ports. It is shared by the HTTP server and tzctl.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"timezone-lookup-service/internal/adapters/cache"
	"timezone-lookup-service/internal/adapters/offline"
	"timezone-lookup-service/internal/adapters/repositories"
	"timezone-lookup-service/internal/adapters/timezonedb"
	"timezone-lookup-service/internal/config"
	"timezone-lookup-service/internal/platform/db"
	"timezone-lookup-service/internal/ports"
	"timezone-lookup-service/internal/services"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired service and the resources that must be released on
// shutdown.
type App struct {
	Config  config.Config
	Service *services.TimezoneService
	DB      *sql.DB
	Dialect db.Dialect

	redis *redis.Client
}

// New opens storage, initializes the schema and builds the provider and
// cache chosen by cfg.
func New(ctx context.Context, cfg config.Config) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.HasDatabase() {
		if err := a.openDatabase(ctx); err != nil {
			return nil, err
		}
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	tzCache, err := a.newCache(ctx)
	if err != nil {
		return nil, err
	}

	var history ports.LookupRepository
	if cfg.HistoryEnabled && a.DB != nil {
		history = repositories.NewSQLLookupRepository(a.DB, a.Dialect)
	}

	a.Service = services.NewTimezoneService(provider, tzCache, history, cfg.Cache.TTL)
	a.Service.CallTimeout = time.Duration(cfg.TimezoneDB.MaxAttempts)*cfg.TimezoneDB.Timeout + 5*time.Second
	return a, nil
}

// OpenDatabase connects to the configured database and prepares the schema
// without building a provider. Used by maintenance commands.
func OpenDatabase(ctx context.Context, cfg config.Config) (*App, error) {
	if !cfg.HasDatabase() {
		return nil, errors.New("no database configured (DB_DRIVER=none)")
	}

	a := &App{Config: cfg}
	if err := a.openDatabase(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) openDatabase(ctx context.Context) error {
	dialect, err := db.ParseDialect(a.Config.Database.Driver)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if dialect == db.SQLite {
		if err := ensureParentDir(a.Config.Database.Path); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
	}

	conn, err := db.Open(dialect, a.Config.DSN())
	if err != nil {
		return err
	}
	a.DB = conn
	a.Dialect = dialect

	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	return nil
}

// SQLCache returns the SQL cache adapter over the open database.
func (a *App) SQLCache() *cache.SQLTimezoneCache {
	return cache.NewSQLTimezoneCache(a.DB, a.Dialect)
}

func (a *App) newCache(ctx context.Context) (ports.TimezoneCache, error) {
	switch a.Config.Cache.Backend {
	case config.CacheSQL:
		if a.DB == nil {
			return nil, errors.New("sql cache requires a database")
		}
		return a.SQLCache(), nil
	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, a.Config.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return cache.NewRedisTimezoneCache(client), nil
	default:
		return nil, nil
	}
}

func newProvider(cfg config.Config) (ports.TimezoneProvider, error) {
	if cfg.Provider == config.ProviderOffline {
		p, err := offline.NewProvider()
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	if cfg.TimezoneDB.APIKey == "" {
		zap.L().Warn("TIMEZONEDB_API_KEY is not set; lookups will fail with an upstream authentication error")
	}

	return timezonedb.NewProvider(timezonedb.Options{
		APIKey:      cfg.TimezoneDB.APIKey,
		BaseURL:     cfg.TimezoneDB.BaseURL,
		Timeout:     cfg.TimezoneDB.Timeout,
		MaxAttempts: cfg.TimezoneDB.MaxAttempts,
	}), nil
}

// Close releases the database and redis connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.L().Warn("close redis", zap.Error(err))
		}
		a.redis = nil
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Warn("close database", zap.Error(err))
		}
		a.DB = nil
	}
}

func ensureParentDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
