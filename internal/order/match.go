package order

import "fmt"

// Match returns how much of executeQty can trade between o and the opposite
// order other. The result is capped by other's leaves quantity, and is 0 when
// both are on the same side or the prices do not cross.
// A market order crosses any opposite price. Match never mutates either order.
func (o *Order) Match(other *Order, executeQty int64) (int64, error) {
	if !o.Side.Valid() || !other.Side.Valid() {
		return 0, fmt.Errorf("%w: %s vs %s", ErrInvalidSide, o.Side, other.Side)
	}
	if o.Side == other.Side || executeQty <= 0 {
		return 0, nil
	}

	var crosses bool
	switch {
	case o.Type == TypeMarket:
		crosses = true
	case o.IsBuy():
		crosses = o.Price >= other.Price
	default:
		crosses = o.Price <= other.Price
	}
	if !crosses {
		return 0, nil
	}

	return min(executeQty, other.LeavesQty), nil
}
