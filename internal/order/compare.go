package order

import "fmt"

// Ordering is the result of a priority comparison
type Ordering int

const (
	// Before means the left order has priority
	Before Ordering = -1
	Equal  Ordering = 0
	After  Ordering = 1
)

// Compare ranks two orders of the same side by price-time priority.
// Buys rank higher price first, sells lower price first; equal prices rank the
// earlier creation time first, then the lower sequence number.
// Orders of different sides cannot be compared.
func Compare(a, b *Order) (Ordering, error) {
	if !a.Side.Valid() || !b.Side.Valid() {
		return Equal, fmt.Errorf("%w: %s vs %s", ErrInvalidSide, a.Side, b.Side)
	}
	if a.Side != b.Side {
		return Equal, ErrMixedSides
	}

	switch {
	case a.Seq == b.Seq && a.Price == b.Price && a.CreatedAt.Equal(b.CreatedAt):
		return Equal, nil
	case HasPriority(a, b):
		return Before, nil
	default:
		return After, nil
	}
}

// HasPriority reports whether a ranks ahead of b. Both must be on the same valid side.
func HasPriority(a, b *Order) bool {
	if a.Price != b.Price {
		if a.Side == SideBuy {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}
