package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bitex/backend/internal/matching"
	"github.com/wonny/bitex/backend/internal/order"
)

// orderCmd represents the order command group
var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "주문 접수/취소/조회",
}

var (
	placeSymbol   string
	placeSide     string
	placeType     string
	placePrice    string
	placeQty      string
	placeClientID string

	byClientID string
)

var orderPlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "주문 접수 및 매칭",
	Long: `주문을 접수하고 반대편 호가와 매칭합니다.
지정가 잔량은 호가창에 남고, 시장가 잔량은 취소됩니다.
가격과 수량은 소수로 입력합니다 (소수점 8자리까지).

Example:
  go run ./cmd/bitex order place --account 1 --symbol BTCBRL --side sell --price 250000 --qty 0.5
  go run ./cmd/bitex order place --account 2 --symbol BTC/BRL --side buy --type market --qty 0.25`,
	RunE: runOrderPlace,
}

var orderCancelCmd = &cobra.Command{
	Use:   "cancel [order-id]",
	Short: "주문 취소 (본인 주문만)",
	Long: `Example:
  go run ./cmd/bitex order cancel 42 --account 1
  go run ./cmd/bitex order cancel --client-id my-order-1 --account 1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrderCancel,
}

var orderGetCmd = &cobra.Command{
	Use:   "get [order-id]",
	Short: "주문 조회 (본인 주문만)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOrderGet,
}

func init() {
	rootCmd.AddCommand(orderCmd)
	orderCmd.AddCommand(orderPlaceCmd, orderCancelCmd, orderGetCmd)

	f := orderPlaceCmd.Flags()
	f.StringVar(&placeSymbol, "symbol", "BTCBRL", "symbol, e.g. BTCBRL or BTC/BRL")
	f.StringVar(&placeSide, "side", "", "buy | sell")
	f.StringVar(&placeType, "type", "limit", "limit | market")
	f.StringVar(&placePrice, "price", "0", "limit price")
	f.StringVar(&placeQty, "qty", "", "quantity")
	f.StringVar(&placeClientID, "client-id", "", "client order id (generated when empty)")
	_ = orderPlaceCmd.MarkFlagRequired("side")
	_ = orderPlaceCmd.MarkFlagRequired("qty")

	for _, c := range []*cobra.Command{orderCancelCmd, orderGetCmd} {
		c.Flags().StringVar(&byClientID, "client-id", "", "look up by client order id instead of order id")
	}
}

func runOrderPlace(cmd *cobra.Command, args []string) error {
	if err := requireAccount(); err != nil {
		return err
	}

	side, err := order.ParseSideName(placeSide)
	if err != nil {
		return err
	}
	typ, err := order.ParseTypeName(placeType)
	if err != nil {
		return err
	}
	price, err := order.ParseFixed(placePrice)
	if err != nil {
		return err
	}
	qty, err := order.ParseFixed(placeQty)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	engine, err := a.loadEngine(ctx)
	if err != nil {
		return err
	}

	report, err := engine.Submit(ctx, matching.NewOrder{
		ClientOrderID: placeClientID,
		AccountID:     accountID,
		Symbol:        placeSymbol,
		Side:          side,
		Type:          typ,
		Price:         price,
		Qty:           qty,
	})
	if report != nil {
		PrintReport(report)
	}
	if err != nil {
		return fmt.Errorf("❌ Order failed: %w", err)
	}
	return nil
}

// orderRef resolves the positional order id or --client-id
func orderRef(args []string) (int64, error) {
	if byClientID != "" {
		return 0, nil
	}
	if len(args) != 1 {
		return 0, fmt.Errorf("order id or --client-id is required")
	}
	var id int64
	if _, err := fmt.Sscan(args[0], &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q", args[0])
	}
	return id, nil
}

func runOrderCancel(cmd *cobra.Command, args []string) error {
	if err := requireAccount(); err != nil {
		return err
	}
	id, err := orderRef(args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	engine, err := a.loadEngine(ctx)
	if err != nil {
		return err
	}

	var o *order.Order
	if byClientID != "" {
		o, err = engine.CancelByClientID(ctx, accountID, byClientID)
	} else {
		o, err = engine.Cancel(ctx, accountID, id)
	}
	if err != nil {
		return fmt.Errorf("❌ Cancel failed: %w", err)
	}

	PrintDoubleSeparator()
	PrintOrder(o)
	PrintDoubleSeparator()
	return nil
}

func runOrderGet(cmd *cobra.Command, args []string) error {
	if err := requireAccount(); err != nil {
		return err
	}
	id, err := orderRef(args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	engine, err := a.loadEngine(ctx)
	if err != nil {
		return err
	}

	var o *order.Order
	if byClientID != "" {
		o, err = engine.GetOrderByClientID(ctx, accountID, byClientID)
	} else {
		o, err = engine.GetOrder(ctx, accountID, id)
	}
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	PrintDoubleSeparator()
	PrintOrder(o)

	executions, err := a.orders.GetExecutionsByOrderID(ctx, o.ID)
	if err != nil {
		return err
	}
	if len(executions) > 0 {
		PrintSeparator()
	}
	for _, e := range executions {
		fmt.Printf("  Exec #%d: %s @ %s (%s)\n",
			e.ID, order.FormatFixed(e.Qty), order.FormatFixed(e.Price), e.ExecutedAt.Format(time.RFC3339))
	}
	PrintDoubleSeparator()
	return nil
}
