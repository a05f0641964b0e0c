package order

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceProvider returns the available balance of an account in one currency,
// as a fixed-point integer.
type BalanceProvider interface {
	Balance(ctx context.Context, accountID int64, currency Currency) (int64, error)
}

// AvailableQtyToExecute caps qty by what the order's account can afford.
// A buy is capped by floor(quote balance * QtyScale / price), a sell by the base
// balance. Any other side returns qty unchanged.
// Only a cap is computed; nothing is reserved or debited.
func (o *Order) AvailableQtyToExecute(ctx context.Context, balances BalanceProvider, side Side, qty, price int64) (int64, error) {
	if qty <= 0 {
		return 0, nil
	}

	pair, err := o.Pair()
	if err != nil {
		return 0, err
	}

	switch side {
	case SideBuy:
		if price <= 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidPrice, price)
		}
		quote, err := balances.Balance(ctx, o.AccountID, pair.Quote)
		if err != nil {
			return 0, fmt.Errorf("failed to get %s balance: %w", pair.Quote, err)
		}
		return min(qty, affordableQty(quote, price)), nil

	case SideSell:
		base, err := balances.Balance(ctx, o.AccountID, pair.Base)
		if err != nil {
			return 0, fmt.Errorf("failed to get %s balance: %w", pair.Base, err)
		}
		return min(qty, max(base, 0)), nil
	}

	return qty, nil
}

// affordableQty is floor(quote * QtyScale / price), clamped to [0, MaxInt64]
func affordableQty(quote, price int64) int64 {
	if quote <= 0 {
		return 0
	}

	q, _ := decimal.NewFromInt(quote).
		Mul(decimal.NewFromInt(QtyScale)).
		QuoRem(decimal.NewFromInt(price), 0)

	if q.GreaterThan(maxQty) {
		return maxQty.IntPart()
	}
	return q.IntPart()
}

var maxQty = decimal.NewFromInt(1<<63 - 1)

// Notional is the quote amount paid for qty at price: ceil(qty * price / QtyScale).
// Rounding up keeps Notional(affordableQty(q, p), p) <= q.
func Notional(qty, price int64) int64 {
	if qty <= 0 || price <= 0 {
		return 0
	}

	n := decimal.NewFromInt(qty).
		Mul(decimal.NewFromInt(price)).
		Div(decimal.NewFromInt(QtyScale)).
		Ceil()

	if n.GreaterThan(maxQty) {
		return maxQty.IntPart()
	}
	return n.IntPart()
}
