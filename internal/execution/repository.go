package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/bitex/backend/internal/contracts"
	"github.com/wonny/bitex/backend/internal/order"
	"github.com/wonny/bitex/backend/pkg/database"
)

// Repository handles order and execution persistence
// ⭐ SSOT: 주문/체결 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new execution repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ contracts.OrderStore = (*Repository)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderColumns = `
	id, account_id, client_order_id, status, symbol, side, type, price,
	order_qty, cum_qty, leaves_qty, cxl_qty, last_price, last_qty, average_price,
	seq, created_at, updated_at`

// CreateOrder inserts a new order and assigns its ID
func (r *Repository) CreateOrder(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO exchange.orders (
			account_id, client_order_id, status, symbol, side, type, price,
			order_qty, cum_qty, leaves_qty, cxl_qty, last_price, last_qty, average_price,
			seq, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		o.AccountID, o.ClientOrderID, o.Status.Code(), o.Symbol, o.Side.Code(), o.Type.Code(), o.Price,
		o.OrderQty, o.CumQty, o.LeavesQty, o.CxlQty, o.LastPrice, o.LastQty, o.AveragePrice,
		int64(o.Seq), o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// UpdateOrder writes the execution state of an order.
// The row must still hold prev, otherwise contracts.ErrConcurrentUpdate is returned.
func (r *Repository) UpdateOrder(ctx context.Context, o *order.Order, prev contracts.QtyState) error {
	return updateOrder(ctx, r.pool, o, prev)
}

func updateOrder(ctx context.Context, q querier, o *order.Order, prev contracts.QtyState) error {
	query := `
		UPDATE exchange.orders
		SET status = $1, cum_qty = $2, leaves_qty = $3, cxl_qty = $4,
		    last_price = $5, last_qty = $6, average_price = $7, updated_at = $8
		WHERE id = $9 AND cum_qty = $10 AND cxl_qty = $11
	`

	tag, err := q.Exec(ctx, query,
		o.Status.Code(), o.CumQty, o.LeavesQty, o.CxlQty,
		o.LastPrice, o.LastQty, o.AveragePrice, o.UpdatedAt,
		o.ID, prev.CumQty, prev.CxlQty,
	)
	if err != nil {
		return fmt.Errorf("failed to update order %d: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", o.ID, contracts.ErrConcurrentUpdate)
	}

	return nil
}

// SaveCross persists both orders and the execution in one transaction
func (r *Repository) SaveCross(ctx context.Context, cross *contracts.Cross) error {
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := updateOrder(ctx, tx, cross.Aggressor, cross.PrevAggressor); err != nil {
			return err
		}
		if err := updateOrder(ctx, tx, cross.Resting, cross.PrevResting); err != nil {
			return err
		}
		return insertExecution(ctx, tx, cross.Execution)
	})
}

func insertExecution(ctx context.Context, q querier, exec *contracts.Execution) error {
	query := `
		INSERT INTO exchange.executions (
			symbol, aggressor_order_id, resting_order_id, aggressor_side,
			buy_account_id, sell_account_id, price, qty, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := q.QueryRow(ctx, query,
		exec.Symbol, exec.AggressorID, exec.RestingID, exec.AggressorSide.Code(),
		exec.BuyAccountID, exec.SellAccountID, exec.Price, exec.Qty, exec.ExecutedAt,
	).Scan(&exec.ID)

	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}

	return nil
}

// GetOrder retrieves an order by ID
func (r *Repository) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	query := `SELECT` + orderColumns + ` FROM exchange.orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", order.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return o, nil
}

// GetOrderByClientID retrieves an order by the client supplied identifier
func (r *Repository) GetOrderByClientID(ctx context.Context, accountID int64, clientOrderID string) (*order.Order, error) {
	query := `SELECT` + orderColumns + `
		FROM exchange.orders
		WHERE account_id = $1 AND client_order_id = $2`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, accountID, clientOrderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: client order id %q", order.ErrOrderNotFound, clientOrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return o, nil
}

// ListOpenOrders retrieves orders with leaves quantity, oldest first
func (r *Repository) ListOpenOrders(ctx context.Context, symbol string) ([]*order.Order, error) {
	query := `SELECT` + orderColumns + `
		FROM exchange.orders
		WHERE leaves_qty > 0 AND ($1 = '' OR symbol = $1)
		ORDER BY created_at ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query open orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return orders, nil
}

// LastSeq returns the highest stored sequence number
func (r *Repository) LastSeq(ctx context.Context) (uint64, error) {
	var last int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM exchange.orders`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	return uint64(last), nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o                      order.Order
		status, side, typeCode string
		seq                    int64
	)

	err := row.Scan(
		&o.ID, &o.AccountID, &o.ClientOrderID, &status, &o.Symbol, &side, &typeCode, &o.Price,
		&o.OrderQty, &o.CumQty, &o.LeavesQty, &o.CxlQty, &o.LastPrice, &o.LastQty, &o.AveragePrice,
		&seq, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if o.Status, err = order.ParseStatus(status); err != nil {
		return nil, err
	}
	if o.Side, err = order.ParseSide(side); err != nil {
		return nil, err
	}
	if o.Type, err = order.ParseType(typeCode); err != nil {
		return nil, err
	}
	o.Seq = uint64(seq)

	return &o, nil
}

// GetExecutionsByOrderID retrieves executions in which an order took part
func (r *Repository) GetExecutionsByOrderID(ctx context.Context, orderID int64) ([]contracts.Execution, error) {
	query := `
		SELECT id, symbol, aggressor_order_id, resting_order_id, aggressor_side,
		       buy_account_id, sell_account_id, price, qty, executed_at
		FROM exchange.executions
		WHERE aggressor_order_id = $1 OR resting_order_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	executions := make([]contracts.Execution, 0)

	for rows.Next() {
		var exec contracts.Execution
		var side string
		err := rows.Scan(
			&exec.ID, &exec.Symbol, &exec.AggressorID, &exec.RestingID, &side,
			&exec.BuyAccountID, &exec.SellAccountID, &exec.Price, &exec.Qty, &exec.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		if exec.AggressorSide, err = order.ParseSide(side); err != nil {
			return nil, err
		}
		executions = append(executions, exec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return executions, nil
}

// GetExecutionSummary retrieves trading statistics of a symbol since a point in time
func (r *Repository) GetExecutionSummary(ctx context.Context, symbol string, since time.Time) (*ExecutionSummary, error) {
	query := `
		SELECT
			COUNT(*) as trades,
			COALESCE(SUM(qty), 0) as volume,
			COALESCE(SUM(price::numeric * qty), 0)::text as notional,
			COALESCE(MIN(price), 0) as low,
			COALESCE(MAX(price), 0) as high
		FROM exchange.executions
		WHERE symbol = $1 AND executed_at >= $2
	`

	summary := ExecutionSummary{Symbol: symbol, Since: since}
	var notional string
	err := r.pool.QueryRow(ctx, query, symbol, since).Scan(
		&summary.Trades, &summary.Volume, &notional, &summary.Low, &summary.High,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get execution summary: %w", err)
	}

	if summary.Notional, err = decimal.NewFromString(notional); err != nil {
		return nil, fmt.Errorf("failed to parse notional %q: %w", notional, err)
	}

	return &summary, nil
}

// ExecutionSummary represents execution statistics of a symbol
type ExecutionSummary struct {
	Symbol   string
	Since    time.Time
	Trades   int
	Volume   int64
	Notional decimal.Decimal // sum(price*qty)
	Low      int64
	High     int64
}

// VWAP returns the volume weighted average price, truncated
func (s *ExecutionSummary) VWAP() int64 {
	if s.Volume == 0 {
		return 0
	}
	return s.Notional.Div(decimal.NewFromInt(s.Volume)).Truncate(0).IntPart()
}
