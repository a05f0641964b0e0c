package contracts

import (
	"time"

	"github.com/wonny/bitex/backend/internal/order"
)

// Execution is one fill between an aggressor and a resting order
// ⭐ SSOT: 체결 기록 형식은 여기서만 정의
type Execution struct {
	ID            int64      `json:"id"`
	Symbol        string     `json:"symbol"`
	AggressorID   int64      `json:"aggressor_order_id"`
	RestingID     int64      `json:"resting_order_id"`
	AggressorSide order.Side `json:"aggressor_side"`
	BuyAccountID  int64      `json:"buy_account_id"`
	SellAccountID int64      `json:"sell_account_id"`
	Price         int64      `json:"price"`
	Qty           int64      `json:"qty"`
	ExecutedAt    time.Time  `json:"executed_at"`
}

// Cross is the unit of persistence of a match: both orders after the fill and
// the execution record. It must be committed all or nothing.
type Cross struct {
	Aggressor *order.Order
	Resting   *order.Order
	Execution *Execution

	// Quantities before the fill, used for optimistic concurrency checks
	PrevAggressor QtyState
	PrevResting   QtyState
}

// QtyState is the mutable quantity state an update expects to find in storage
type QtyState struct {
	CumQty int64
	CxlQty int64
}

// StateOf captures the current quantity state of an order
func StateOf(o *order.Order) QtyState {
	return QtyState{CumQty: o.CumQty, CxlQty: o.CxlQty}
}

// NewExecution builds the execution record of a fill of qty at price
func NewExecution(aggressor, resting *order.Order, qty, price int64, at time.Time) *Execution {
	exec := &Execution{
		Symbol:        aggressor.Symbol,
		AggressorID:   aggressor.ID,
		RestingID:     resting.ID,
		AggressorSide: aggressor.Side,
		Price:         price,
		Qty:           qty,
		ExecutedAt:    at,
	}
	if aggressor.IsBuy() {
		exec.BuyAccountID, exec.SellAccountID = aggressor.AccountID, resting.AccountID
	} else {
		exec.BuyAccountID, exec.SellAccountID = resting.AccountID, aggressor.AccountID
	}
	return exec
}
