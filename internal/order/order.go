package order

import (
	"fmt"
	"time"
)

// QtyScale is the fixed-point scale of base currency quantities (satoshi precision)
const QtyScale int64 = 100_000_000

// Order is a single resting or filled order.
// ⭐ SSOT: 주문 수량/상태 변경은 Execute, Cancel 에서만
//
// Prices and quantities are fixed-point integers. The quantity fields always satisfy
// OrderQty == CumQty + LeavesQty + CxlQty and Status is derived from them.
// Order carries no lock; callers serialize mutation per order (see matching.Engine).
type Order struct {
	ID            int64     `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	AccountID     int64     `json:"account_id"`
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Type          Type      `json:"type"`
	Price         int64     `json:"price"`
	OrderQty      int64     `json:"order_qty"`
	CumQty        int64     `json:"cum_qty"`
	LeavesQty     int64     `json:"leaves_qty"`
	CxlQty        int64     `json:"cxl_qty"`
	LastPrice     int64     `json:"last_price"`
	LastQty       int64     `json:"last_qty"`
	AveragePrice  int64     `json:"average_price"`
	Status        Status    `json:"status"`
	Seq           uint64    `json:"seq"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Params holds the client supplied fields of a new order
type Params struct {
	ClientOrderID string
	AccountID     int64
	Symbol        string
	Side          Side
	Type          Type
	Price         int64 // 0 for market order
	Qty           int64
	Seq           uint64
	CreatedAt     time.Time
}

// New creates a validated order in the New state with LeavesQty = OrderQty
func New(p Params) (*Order, error) {
	if !p.Side.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSide, p.Side)
	}
	if p.Type != TypeLimit && p.Type != TypeMarket {
		return nil, fmt.Errorf("unknown order type %d", p.Type)
	}
	if p.Qty <= 0 {
		return nil, fmt.Errorf("%w: order qty %d", ErrInvalidQuantity, p.Qty)
	}
	if p.Price < 0 || (p.Type == TypeLimit && p.Price == 0) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPrice, p.Price)
	}
	pair, err := ParseSymbol(p.Symbol)
	if err != nil {
		return nil, err
	}

	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	return &Order{
		ClientOrderID: p.ClientOrderID,
		AccountID:     p.AccountID,
		Symbol:        pair.Symbol(),
		Side:          p.Side,
		Type:          p.Type,
		Price:         p.Price,
		OrderQty:      p.Qty,
		LeavesQty:     p.Qty,
		Status:        StatusNew,
		Seq:           p.Seq,
		CreatedAt:     created,
		UpdatedAt:     created,
	}, nil
}

// IsBuy reports whether the order is on the bid side
func (o *Order) IsBuy() bool {
	return o.Side == SideBuy
}

// IsSell reports whether the order is on the ask side
func (o *Order) IsSell() bool {
	return o.Side == SideSell
}

// HasLeavesQty reports whether the order can still trade
func (o *Order) HasLeavesQty() bool {
	return o.LeavesQty > 0
}

// IsFilled checks if the order is filled
func (o *Order) IsFilled() bool {
	return o.Status == StatusFilled
}

// Pair returns the parsed symbol
func (o *Order) Pair() (Pair, error) {
	return ParseSymbol(o.Symbol)
}

// Clone returns a copy used for snapshot and rollback
func (o *Order) Clone() *Order {
	c := *o
	return &c
}

// Validate checks the quantity invariant and the derived status of an order
// loaded from storage.
func (o *Order) Validate() error {
	if !o.Side.Valid() {
		return fmt.Errorf("order %d: %w", o.ID, ErrInvalidSide)
	}
	if o.LeavesQty < 0 || o.CumQty < 0 || o.CxlQty < 0 {
		return fmt.Errorf("order %d: %w: negative quantity", o.ID, ErrInvariant)
	}
	if o.OrderQty != o.CumQty+o.LeavesQty+o.CxlQty {
		return fmt.Errorf("order %d: %w: order_qty %d != cum %d + leaves %d + cxl %d",
			o.ID, ErrInvariant, o.OrderQty, o.CumQty, o.LeavesQty, o.CxlQty)
	}
	if want := deriveStatus(o.CumQty, o.CxlQty, o.OrderQty); o.Status != want {
		return fmt.Errorf("order %d: %w: status %s, expected %s", o.ID, ErrInvariant, o.Status, want)
	}
	return nil
}

func (o *Order) String() string {
	return fmt.Sprintf("Order(id:%d %s %s price:%d leaves:%d status:%s)",
		o.ID, o.Symbol, o.Side, o.Price, o.LeavesQty, o.Status)
}
