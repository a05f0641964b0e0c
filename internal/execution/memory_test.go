package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bitex/backend/internal/contracts"
	"github.com/wonny/bitex/backend/internal/order"
)

var t0 = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, account int64, client string, side order.Side, price, qty int64, seq uint64) *order.Order {
	t.Helper()
	o, err := order.New(order.Params{
		ClientOrderID: client,
		AccountID:     account,
		Symbol:        "BTCBRL",
		Side:          side,
		Type:          order.TypeLimit,
		Price:         price,
		Qty:           qty,
		Seq:           seq,
		CreatedAt:     t0.Add(time.Duration(seq) * time.Second),
	})
	require.NoError(t, err)
	return o
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	o := newOrder(t, 1, "c-1", order.SideBuy, 100, 10, 1)
	require.NoError(t, store.CreateOrder(ctx, o))
	assert.Equal(t, int64(1), o.ID)

	got, err := store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	// 반환된 주문은 복사본
	got.CumQty = 5
	again, err := store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.CumQty)

	byClient, err := store.GetOrderByClientID(ctx, 1, "c-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, byClient.ID)

	_, err = store.GetOrderByClientID(ctx, 2, "c-1")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	_, err = store.GetOrder(ctx, 99)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestMemoryStore_DuplicateClientID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateOrder(ctx, newOrder(t, 1, "dup", order.SideBuy, 100, 10, 1)))
	assert.Error(t, store.CreateOrder(ctx, newOrder(t, 1, "dup", order.SideSell, 100, 10, 2)))
	// 다른 계좌는 같은 client id 사용 가능
	assert.NoError(t, store.CreateOrder(ctx, newOrder(t, 2, "dup", order.SideSell, 100, 10, 3)))
}

func TestMemoryStore_UpdateOrder_Optimistic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	o := newOrder(t, 1, "c-1", order.SideBuy, 100, 10, 1)
	require.NoError(t, store.CreateOrder(ctx, o))

	prev := contracts.StateOf(o)
	require.NoError(t, o.Execute(4, 100))
	require.NoError(t, store.UpdateOrder(ctx, o, prev))

	// stale prev state is rejected
	require.NoError(t, o.Cancel(6))
	err := store.UpdateOrder(ctx, o, prev)
	assert.True(t, errors.Is(err, contracts.ErrConcurrentUpdate))

	stored, err := store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.CumQty)
	assert.Equal(t, int64(0), stored.CxlQty)
}

func TestMemoryStore_SaveCross(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	resting := newOrder(t, 1, "sell", order.SideSell, 100, 10, 1)
	aggressor := newOrder(t, 2, "buy", order.SideBuy, 100, 4, 2)
	require.NoError(t, store.CreateOrder(ctx, resting))
	require.NoError(t, store.CreateOrder(ctx, aggressor))

	cross := &contracts.Cross{
		Aggressor:     aggressor,
		Resting:       resting,
		PrevAggressor: contracts.StateOf(aggressor),
		PrevResting:   contracts.StateOf(resting),
	}
	require.NoError(t, aggressor.Execute(4, 100))
	require.NoError(t, resting.Execute(4, 100))
	cross.Execution = contracts.NewExecution(aggressor, resting, 4, 100, t0)

	require.NoError(t, store.SaveCross(ctx, cross))
	assert.Equal(t, int64(1), cross.Execution.ID)

	executions := store.Executions()
	require.Len(t, executions, 1)
	assert.Equal(t, int64(2), executions[0].BuyAccountID)
	assert.Equal(t, int64(1), executions[0].SellAccountID)

	open, err := store.ListOpenOrders(ctx, "BTCBRL")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, resting.ID, open[0].ID)
	assert.Equal(t, int64(6), open[0].LeavesQty)
}

func TestMemoryStore_SaveCross_StaleLeavesNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	resting := newOrder(t, 1, "sell", order.SideSell, 100, 10, 1)
	aggressor := newOrder(t, 2, "buy", order.SideBuy, 100, 4, 2)
	require.NoError(t, store.CreateOrder(ctx, resting))
	require.NoError(t, store.CreateOrder(ctx, aggressor))

	cross := &contracts.Cross{
		Aggressor:     aggressor,
		Resting:       resting,
		PrevAggressor: contracts.StateOf(aggressor),
		PrevResting:   contracts.QtyState{CumQty: 3},
	}
	require.NoError(t, aggressor.Execute(4, 100))
	require.NoError(t, resting.Execute(4, 100))
	cross.Execution = contracts.NewExecution(aggressor, resting, 4, 100, t0)

	err := store.SaveCross(ctx, cross)
	assert.ErrorIs(t, err, contracts.ErrConcurrentUpdate)

	stored, err := store.GetOrder(ctx, aggressor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.CumQty)
	assert.Empty(t, store.Executions())
}

func TestMemoryStore_ListOpenOrders_Filter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	later := newOrder(t, 1, "a", order.SideBuy, 100, 10, 5)
	earlier := newOrder(t, 1, "b", order.SideSell, 120, 10, 2)
	require.NoError(t, store.CreateOrder(ctx, later))
	require.NoError(t, store.CreateOrder(ctx, earlier))

	closed := newOrder(t, 1, "c", order.SideSell, 120, 10, 3)
	require.NoError(t, store.CreateOrder(ctx, closed))
	prev := contracts.StateOf(closed)
	require.NoError(t, closed.Cancel(10))
	require.NoError(t, store.UpdateOrder(ctx, closed, prev))

	open, err := store.ListOpenOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, earlier.ID, open[0].ID)
	assert.Equal(t, later.ID, open[1].ID)

	none, err := store.ListOpenOrders(ctx, "LTCBRL")
	require.NoError(t, err)
	assert.Empty(t, none)
}
