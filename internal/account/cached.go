package account

import (
	"context"
	"time"

	"github.com/wonny/bitex/backend/internal/contracts"
	"github.com/wonny/bitex/backend/internal/order"
	"github.com/wonny/bitex/backend/pkg/logger"
	"github.com/wonny/bitex/backend/pkg/redis"
)

// CachedBalances serves balances from Redis and falls back to the wrapped provider.
// Cache errors are logged and never fail a lookup.
type CachedBalances struct {
	next   contracts.BalanceProvider
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedBalances wraps next. A zero ttl disables caching.
func NewCachedBalances(next contracts.BalanceProvider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedBalances {
	return &CachedBalances{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithComponent("balance_cache"),
	}
}

var _ contracts.BalanceProvider = (*CachedBalances)(nil)

func (c *CachedBalances) Balance(ctx context.Context, accountID int64, currency order.Currency) (int64, error) {
	if c.ttl <= 0 {
		return c.next.Balance(ctx, accountID, currency)
	}

	key := redis.BalanceKey(accountID, string(currency))

	var cached int64
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Balance cache read failed")
	}
	if found {
		return cached, nil
	}

	available, err := c.next.Balance(ctx, accountID, currency)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Set(ctx, key, available, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Balance cache write failed")
	}

	return available, nil
}

// Invalidate drops the cached balance, e.g. after SetBalance
func (c *CachedBalances) Invalidate(ctx context.Context, accountID int64, currency order.Currency) error {
	return c.cache.Delete(ctx, redis.BalanceKey(accountID, string(currency)))
}
