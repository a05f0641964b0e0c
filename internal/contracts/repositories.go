package contracts

import (
	"context"
	"errors"

	"github.com/wonny/bitex/backend/internal/order"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// ErrConcurrentUpdate is returned when a stored order changed since it was read
var ErrConcurrentUpdate = errors.New("order was modified concurrently")

// BalanceProvider returns available balances per account and currency
type BalanceProvider = order.BalanceProvider

// OrderStore manages order and execution records.
// Lookups of unknown orders return order.ErrOrderNotFound.
type OrderStore interface {
	// CreateOrder inserts a new order and assigns its ID
	CreateOrder(ctx context.Context, o *order.Order) error

	// UpdateOrder writes the execution state of o, expecting prev in storage
	UpdateOrder(ctx context.Context, o *order.Order, prev QtyState) error

	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	GetOrderByClientID(ctx context.Context, accountID int64, clientOrderID string) (*order.Order, error)

	// ListOpenOrders returns orders with leaves quantity, oldest first.
	// An empty symbol lists every symbol.
	ListOpenOrders(ctx context.Context, symbol string) ([]*order.Order, error)

	// LastSeq returns the highest sequence number ever stored, 0 when empty
	LastSeq(ctx context.Context) (uint64, error)

	// SaveCross atomically persists both orders and the execution
	SaveCross(ctx context.Context, cross *Cross) error
}
