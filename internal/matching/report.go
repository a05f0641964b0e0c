package matching

import (
	"fmt"

	"github.com/wonny/bitex/backend/internal/contracts"
	"github.com/wonny/bitex/backend/internal/order"
)

// NewOrder is an order entry request
type NewOrder struct {
	ClientOrderID string     `json:"client_order_id"` // generated when empty
	AccountID     int64      `json:"account_id"`
	Symbol        string     `json:"symbol"`
	Side          order.Side `json:"side"`
	Type          order.Type `json:"type"`
	Price         int64      `json:"price"`
	Qty           int64      `json:"qty"`
}

// Report is the outcome of Submit
type Report struct {
	Order      *order.Order          `json:"order"`
	Executions []contracts.Execution `json:"executions"`

	// Resting orders cancelled during matching because their account could not pay
	Canceled []*order.Order `json:"canceled,omitempty"`
}

// FilledQty returns the quantity executed by this submission
func (r *Report) FilledQty() int64 {
	var qty int64
	for _, e := range r.Executions {
		qty += e.Qty
	}
	return qty
}

// Discrepancy describes a resting order that failed reconciliation
type Discrepancy struct {
	OrderID int64  `json:"order_id"`
	Symbol  string `json:"symbol"`
	Reason  string `json:"reason"`
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("order %d (%s): %s", d.OrderID, d.Symbol, d.Reason)
}

// ReconcileReport is the outcome of Reconcile
type ReconcileReport struct {
	Checked       int           `json:"checked"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// OK reports whether no discrepancy was found
func (r *ReconcileReport) OK() bool {
	return len(r.Discrepancies) == 0
}
