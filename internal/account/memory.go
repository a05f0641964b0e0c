package account

import (
	"context"
	"sync"

	"github.com/wonny/bitex/backend/internal/contracts"
	"github.com/wonny/bitex/backend/internal/order"
)

type balanceKey struct {
	accountID int64
	currency  order.Currency
}

// MemoryBalances is an in-memory BalanceProvider for dry runs and tests
type MemoryBalances struct {
	mu       sync.RWMutex
	balances map[balanceKey]int64
}

// NewMemoryBalances creates an empty balance set
func NewMemoryBalances() *MemoryBalances {
	return &MemoryBalances{balances: make(map[balanceKey]int64)}
}

var _ contracts.BalanceProvider = (*MemoryBalances)(nil)

func (m *MemoryBalances) Balance(_ context.Context, accountID int64, currency order.Currency) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[balanceKey{accountID, currency}], nil
}

// Set replaces the available balance of an account
func (m *MemoryBalances) Set(accountID int64, currency order.Currency, available int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[balanceKey{accountID, currency}] = available
}
