package matching

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/wonny/bitex/backend/internal/order"
)

// sideQueue is a price-time priority heap of one side of a book
type sideQueue struct {
	orders []*order.Order
	index  map[int64]int // order id -> heap index
}

func newSideQueue() *sideQueue {
	return &sideQueue{index: make(map[int64]int)}
}

func (q *sideQueue) Len() int { return len(q.orders) }

func (q *sideQueue) Less(i, j int) bool {
	return order.HasPriority(q.orders[i], q.orders[j])
}

func (q *sideQueue) Swap(i, j int) {
	q.orders[i], q.orders[j] = q.orders[j], q.orders[i]
	q.index[q.orders[i].ID] = i
	q.index[q.orders[j].ID] = j
}

func (q *sideQueue) Push(x interface{}) {
	o := x.(*order.Order)
	q.index[o.ID] = len(q.orders)
	q.orders = append(q.orders, o)
}

func (q *sideQueue) Pop() interface{} {
	old := q.orders
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	q.orders = old[:n-1]
	delete(q.index, o.ID)
	return o
}

// Book holds the resting orders of one symbol.
// ⭐ SSOT: 호가창 우선순위는 order.HasPriority 에서만
// Book is not safe for concurrent use; Engine guards it with the symbol lock.
type Book struct {
	Symbol string
	bids   *sideQueue
	asks   *sideQueue
}

// NewBook creates an empty book
func NewBook(symbol string) *Book {
	return &Book{
		Symbol: symbol,
		bids:   newSideQueue(),
		asks:   newSideQueue(),
	}
}

func (b *Book) queue(side order.Side) *sideQueue {
	switch side {
	case order.SideBuy:
		return b.bids
	case order.SideSell:
		return b.asks
	}
	return nil
}

// Add rests an order. Orders without leaves quantity are rejected.
func (b *Book) Add(o *order.Order) error {
	q := b.queue(o.Side)
	if q == nil {
		return fmt.Errorf("%w: %s", order.ErrInvalidSide, o.Side)
	}
	if o.Symbol != b.Symbol {
		return fmt.Errorf("order %d symbol %s does not belong to book %s", o.ID, o.Symbol, b.Symbol)
	}
	if !o.HasLeavesQty() {
		return fmt.Errorf("order %d has no leaves quantity", o.ID)
	}
	if _, exists := b.Get(o.ID); exists {
		return fmt.Errorf("order %d already in book", o.ID)
	}

	heap.Push(q, o)
	return nil
}

// Best returns the order with priority on side, if any
func (b *Book) Best(side order.Side) (*order.Order, bool) {
	q := b.queue(side)
	if q == nil || q.Len() == 0 {
		return nil, false
	}
	return q.orders[0], true
}

// Get finds a resting order by id
func (b *Book) Get(id int64) (*order.Order, bool) {
	for _, q := range []*sideQueue{b.bids, b.asks} {
		if i, ok := q.index[id]; ok {
			return q.orders[i], true
		}
	}
	return nil, false
}

// Remove takes an order out of the book. It reports whether the order was present.
func (b *Book) Remove(id int64) bool {
	for _, q := range []*sideQueue{b.bids, b.asks} {
		if i, ok := q.index[id]; ok {
			heap.Remove(q, i)
			return true
		}
	}
	return false
}

// Len returns the number of resting orders on side
func (b *Book) Len(side order.Side) int {
	q := b.queue(side)
	if q == nil {
		return 0
	}
	return q.Len()
}

// Orders returns the resting orders of side in priority order
func (b *Book) Orders(side order.Side) []*order.Order {
	q := b.queue(side)
	if q == nil {
		return nil
	}

	out := make([]*order.Order, len(q.orders))
	copy(out, q.orders)
	sort.Slice(out, func(i, j int) bool {
		return order.HasPriority(out[i], out[j])
	})
	return out
}

// Level is the aggregated leaves quantity at one price
type Level struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

// Levels aggregates side by price, best first. depth <= 0 returns every level.
func (b *Book) Levels(side order.Side, depth int) []Level {
	levels := make([]Level, 0)
	for _, o := range b.Orders(side) {
		n := len(levels)
		if n > 0 && levels[n-1].Price == o.Price {
			levels[n-1].Qty += o.LeavesQty
			levels[n-1].Orders++
			continue
		}
		if depth > 0 && n == depth {
			break
		}
		levels = append(levels, Level{Price: o.Price, Qty: o.LeavesQty, Orders: 1})
	}
	return levels
}
