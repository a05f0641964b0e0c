package matching

import (
	"context"

	"github.com/wonny/bitex/backend/internal/contracts"
	"github.com/wonny/bitex/backend/internal/order"
)

type balanceKey struct {
	accountID int64
	currency  order.Currency
}

// committedBalances reports the provider's balances minus what earlier fills of
// the same Submit used. Persistence never debits balances.
// Not safe for concurrent use; it lives under the symbol lock.
type committedBalances struct {
	next contracts.BalanceProvider
	used map[balanceKey]int64
}

func newCommittedBalances(next contracts.BalanceProvider) *committedBalances {
	return &committedBalances{next: next, used: make(map[balanceKey]int64)}
}

func (b *committedBalances) Balance(ctx context.Context, accountID int64, currency order.Currency) (int64, error) {
	available, err := b.next.Balance(ctx, accountID, currency)
	if err != nil {
		return 0, err
	}
	return available - b.used[balanceKey{accountID, currency}], nil
}

// commit records a fill of qty at price: the buyer spends quote, the seller base
func (b *committedBalances) commit(buy, sell *order.Order, qty, price int64) error {
	pair, err := buy.Pair()
	if err != nil {
		return err
	}
	b.used[balanceKey{buy.AccountID, pair.Quote}] += order.Notional(qty, price)
	b.used[balanceKey{sell.AccountID, pair.Base}] += qty
	return nil
}
