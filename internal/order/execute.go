package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Execute applies a fill of qty at price.
// A zero qty is a no-op. qty above LeavesQty fails with ErrOverfill and leaves
// the order untouched.
func (o *Order) Execute(qty, price int64) error {
	if qty == 0 {
		return nil
	}
	if err := o.checkQty(qty); err != nil {
		return err
	}
	if price < 0 {
		return fmt.Errorf("%w: execution price %d", ErrInvalidPrice, price)
	}

	o.AveragePrice = weightedAverage(o.AveragePrice, o.CumQty, price, qty)
	o.CumQty += qty
	o.LeavesQty -= qty
	o.LastPrice = price
	o.LastQty = qty
	o.UpdatedAt = time.Now()
	o.adjustStatus()
	return nil
}

// Cancel withdraws qty from the leaves quantity
func (o *Order) Cancel(qty int64) error {
	if qty == 0 {
		return nil
	}
	if err := o.checkQty(qty); err != nil {
		return err
	}

	o.CxlQty += qty
	o.LeavesQty -= qty
	o.UpdatedAt = time.Now()
	o.adjustStatus()
	return nil
}

func (o *Order) checkQty(qty int64) error {
	if qty < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if qty > o.LeavesQty {
		return fmt.Errorf("order %d: %w: qty %d, leaves %d", o.ID, ErrOverfill, qty, o.LeavesQty)
	}
	return nil
}

// weightedAverage computes (price*qty + cum*avg) / (cum+qty) exactly and rounds
// half to even. Products are done in decimal so large notional values cannot overflow.
func weightedAverage(avg, cum, price, qty int64) int64 {
	num := decimal.NewFromInt(price).Mul(decimal.NewFromInt(qty)).
		Add(decimal.NewFromInt(cum).Mul(decimal.NewFromInt(avg)))
	den := decimal.NewFromInt(cum + qty)

	return roundHalfEven(num, den).IntPart()
}

// roundHalfEven divides two non-negative integers and rounds the quotient half to even
func roundHalfEven(num, den decimal.Decimal) decimal.Decimal {
	q, r := num.QuoRem(den, 0)
	switch r.Mul(decimal.NewFromInt(2)).Cmp(den) {
	case 1:
		q = q.Add(decimal.NewFromInt(1))
	case 0:
		if q.Mod(decimal.NewFromInt(2)).Sign() != 0 {
			q = q.Add(decimal.NewFromInt(1))
		}
	}
	return q
}
