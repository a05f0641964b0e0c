package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/bitex/backend/internal/account"
	"github.com/wonny/bitex/backend/internal/execution"
	"github.com/wonny/bitex/backend/internal/marketconfig"
	"github.com/wonny/bitex/backend/internal/matching"
	"github.com/wonny/bitex/backend/pkg/config"
	"github.com/wonny/bitex/backend/pkg/database"
	"github.com/wonny/bitex/backend/pkg/logger"
	"github.com/wonny/bitex/backend/pkg/redis"
)

// app wires configuration, storage and the engine for one command run
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	orders   *execution.Repository
	balances *account.Repository
	cache    *account.CachedBalances
	limiter  *redis.RateLimiter
	markets  map[string]marketconfig.Rules // nil without MARKETS_FILE
	engine   *matching.Engine
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("❌ Failed to load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 로그는 stderr, 결과는 stdout
	log := logger.NewWithWriter(os.Stderr, cfg)

	markets, err := loadMarkets(cfg.Exchange.MarketsFile, log)
	if err != nil {
		return nil, fmt.Errorf("❌ Failed to load market rules: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("❌ Failed to connect to database: %w", err)
	}

	rc, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without it")
		rc = redis.Disabled()
	}

	balances := account.NewRepository(db.Pool)
	cache := account.NewCachedBalances(balances, redis.NewCache(rc, "bitex"), cfg.Exchange.BalanceCacheTTL, log)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    rc,
		orders:   execution.NewRepository(db.Pool),
		balances: balances,
		cache:    cache,
		limiter:  redis.NewRateLimiter(rc, "bitex"),
		markets:  markets,
	}, nil
}

func loadMarkets(path string, log *logger.Logger) (map[string]marketconfig.Rules, error) {
	if path == "" {
		return nil, nil
	}

	cfg, rules, data, err := marketconfig.Load(path)
	if err != nil {
		return nil, err
	}

	snap, err := marketconfig.NewSnapshot(cfg, data)
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"path":    path,
		"hash":    snap.ConfigHash,
		"symbols": snap.Symbols,
	}).Info("Market rules loaded")

	return rules, nil
}

// engineConfig returns the engine settings. With a rules file the traded symbols
// come from it and EXCHANGE_SYMBOLS is ignored.
func (a *app) engineConfig() matching.Config {
	cfg := matching.Config{
		Markets:         a.markets,
		Limiter:         a.limiter,
		OrderRateLimit:  a.cfg.Exchange.OrderRateLimit,
		OrderRateWindow: a.cfg.Exchange.OrderRateWindow,
	}
	if len(a.markets) == 0 {
		cfg.Symbols = a.cfg.Exchange.Symbols
	}
	return cfg
}

// loadEngine builds the engine and rehydrates its books from PostgreSQL
func (a *app) loadEngine(ctx context.Context) (*matching.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}

	engine, err := matching.NewEngine(a.orders, a.cache, a.engineConfig(), a.log)
	if err != nil {
		return nil, err
	}

	if err := engine.Load(ctx); err != nil {
		return nil, err
	}

	a.engine = engine
	return engine, nil
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}

func requireAccount() error {
	if accountID <= 0 {
		return fmt.Errorf("--account is required")
	}
	return nil
}
