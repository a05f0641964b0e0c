package commands

import (
	"fmt"

	"github.com/wonny/bitex/backend/internal/matching"
	"github.com/wonny/bitex/backend/internal/order"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 가격/수량은 모두 1e8 고정소수점 정수 (order.FormatFixed)
// ═══════════════════════════════════════════════════════════

func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintOrder prints the state of an order
func PrintOrder(o *order.Order) {
	fmt.Printf("  Order     : #%d (%s)\n", o.ID, o.ClientOrderID)
	fmt.Printf("  Account   : %d\n", o.AccountID)
	fmt.Printf("  Symbol    : %s %s %s\n", o.Symbol, o.Side, o.Type)
	if o.Type == order.TypeLimit {
		fmt.Printf("  Price     : %s\n", order.FormatFixed(o.Price))
	}
	fmt.Printf("  Status    : %s\n", o.Status)
	fmt.Printf("  Qty       : %s (cum %s, leaves %s, cxl %s)\n",
		order.FormatFixed(o.OrderQty), order.FormatFixed(o.CumQty), order.FormatFixed(o.LeavesQty), order.FormatFixed(o.CxlQty))
	if o.CumQty > 0 {
		fmt.Printf("  Avg Price : %s (last %s @ %s)\n",
			order.FormatFixed(o.AveragePrice), order.FormatFixed(o.LastQty), order.FormatFixed(o.LastPrice))
	}
}

// PrintReport prints the outcome of an order submission
func PrintReport(r *matching.Report) {
	PrintDoubleSeparator()
	PrintOrder(r.Order)
	PrintSeparator()

	if len(r.Executions) == 0 {
		fmt.Println("  No executions")
	}
	for _, e := range r.Executions {
		fmt.Printf("  ✅ Exec #%d: %s @ %s against order #%d\n",
			e.ID, order.FormatFixed(e.Qty), order.FormatFixed(e.Price), e.RestingID)
	}
	for _, c := range r.Canceled {
		fmt.Printf("  ⚠️  Resting order #%d canceled: insufficient balance\n", c.ID)
	}
	PrintDoubleSeparator()
}

// PrintLevels prints one side of a book
func PrintLevels(title string, levels []matching.Level) {
	fmt.Printf("  %s\n", title)
	if len(levels) == 0 {
		fmt.Println("    (empty)")
		return
	}
	for _, l := range levels {
		fmt.Printf("    %20s  %20s  (%d)\n", order.FormatFixed(l.Price), order.FormatFixed(l.Qty), l.Orders)
	}
}
