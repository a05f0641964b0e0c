package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T, side Side, price, qty int64, created time.Time, seq uint64) *Order {
	t.Helper()
	o, err := New(Params{
		AccountID: 1,
		Symbol:    "BTCBRL",
		Side:      side,
		Type:      TypeLimit,
		Price:     price,
		Qty:       qty,
		Seq:       seq,
		CreatedAt: created,
	})
	require.NoError(t, err)
	return o
}

func assertInvariant(t *testing.T, o *Order) {
	t.Helper()
	assert.Equal(t, o.OrderQty, o.CumQty+o.LeavesQty+o.CxlQty, "order_qty invariant")
	assert.GreaterOrEqual(t, o.LeavesQty, int64(0))
	assert.NoError(t, o.Validate())
}

func TestNew(t *testing.T) {
	o := newTestOrder(t, SideBuy, 100, 50, t0, 1)

	assert.Equal(t, int64(50), o.LeavesQty)
	assert.Equal(t, StatusNew, o.Status)
	assert.True(t, o.IsBuy())
	assert.False(t, o.IsSell())
	assert.True(t, o.HasLeavesQty())
	assertInvariant(t, o)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want error
	}{
		{"unknown side", Params{Symbol: "BTCBRL", Type: TypeLimit, Price: 1, Qty: 1}, ErrInvalidSide},
		{"zero qty", Params{Symbol: "BTCBRL", Side: SideBuy, Type: TypeLimit, Price: 1}, ErrInvalidQuantity},
		{"limit without price", Params{Symbol: "BTCBRL", Side: SideBuy, Type: TypeLimit, Qty: 1}, ErrInvalidPrice},
		{"bad symbol", Params{Symbol: "FOO", Side: SideBuy, Type: TypeLimit, Price: 1, Qty: 1}, ErrUnknownSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_MarketOrderWithoutPrice(t *testing.T) {
	o, err := New(Params{Symbol: "btc/brl", Side: SideSell, Type: TypeMarket, Qty: 10})
	require.NoError(t, err)
	assert.Equal(t, "BTCBRL", o.Symbol)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestDeriveStatus_Exhaustive(t *testing.T) {
	const orderQty = 6

	for cum := int64(0); cum <= orderQty; cum++ {
		for cxl := int64(0); cum+cxl <= orderQty; cxl++ {
			got := deriveStatus(cum, cxl, orderQty)

			var want Status
			switch {
			case cum == orderQty:
				want = StatusFilled
			case cum+cxl == orderQty:
				want = StatusCanceled
			case cum > 0:
				want = StatusPartiallyFilled
			default:
				want = StatusNew
			}
			if got != want {
				t.Errorf("deriveStatus(cum=%d, cxl=%d) = %s, want %s", cum, cxl, got, want)
			}
		}
	}
}

func TestExecute_WeightedAverage(t *testing.T) {
	o := newTestOrder(t, SideBuy, 200, 100, t0, 1)

	require.NoError(t, o.Execute(10, 100))
	assert.Equal(t, int64(10), o.CumQty)
	assert.Equal(t, int64(90), o.LeavesQty)
	assert.Equal(t, int64(100), o.AveragePrice)
	assert.Equal(t, int64(100), o.LastPrice)
	assert.Equal(t, int64(10), o.LastQty)
	assert.Equal(t, StatusPartiallyFilled, o.Status)

	require.NoError(t, o.Execute(10, 200))
	assert.Equal(t, int64(20), o.CumQty)
	assert.Equal(t, int64(150), o.AveragePrice)
	assert.Equal(t, int64(200), o.LastPrice)
	assertInvariant(t, o)

	require.NoError(t, o.Execute(80, 200))
	assert.Equal(t, StatusFilled, o.Status)
	assert.False(t, o.HasLeavesQty())
	assertInvariant(t, o)
}

func TestExecute_RoundHalfEven(t *testing.T) {
	tests := []struct {
		name                 string
		avg, cum, price, qty int64
		want                 int64
	}{
		{"exact", 0, 0, 100, 10, 100},
		{"half down to even", 100, 1, 101, 1, 100}, // 100.5 -> 100
		{"half up to even", 101, 1, 102, 1, 102},   // 101.5 -> 102
		{"below half", 100, 2, 101, 1, 100},        // 100.33 -> 100
		{"above half", 100, 1, 102, 2, 101},        // 101.33 -> 101
		{"large notional", 9_000_000_000_000, 9_000_000_000, 9_000_000_000_000, 9_000_000_000, 9_000_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, weightedAverage(tt.avg, tt.cum, tt.price, tt.qty))
		})
	}
}

func TestExecute_Overfill(t *testing.T) {
	o := newTestOrder(t, SideSell, 100, 10, t0, 1)
	before := *o

	err := o.Execute(11, 100)
	assert.ErrorIs(t, err, ErrOverfill)
	assert.Equal(t, before, *o, "failed execute must not mutate")

	assert.ErrorIs(t, o.Execute(-1, 100), ErrInvalidQuantity)
}

func TestExecute_TerminalStateIsFinal(t *testing.T) {
	o := newTestOrder(t, SideSell, 100, 10, t0, 1)
	require.NoError(t, o.Execute(10, 100))
	assert.Equal(t, StatusFilled, o.Status)

	assert.ErrorIs(t, o.Execute(1, 100), ErrOverfill)
	assert.ErrorIs(t, o.Cancel(1), ErrOverfill)
	assert.Equal(t, StatusFilled, o.Status)
}

func TestNoOps(t *testing.T) {
	o := newTestOrder(t, SideBuy, 100, 10, t0, 1)
	require.NoError(t, o.Execute(3, 90))
	before := *o

	require.NoError(t, o.Execute(0, 500))
	require.NoError(t, o.Cancel(0))
	assert.Equal(t, before, *o)
}

func TestCancel(t *testing.T) {
	t.Run("new order partially canceled stays new", func(t *testing.T) {
		o := newTestOrder(t, SideBuy, 100, 50, t0, 1)
		require.NoError(t, o.Cancel(20))
		assert.Equal(t, int64(30), o.LeavesQty)
		assert.Equal(t, int64(20), o.CxlQty)
		assert.Equal(t, StatusNew, o.Status)
		assertInvariant(t, o)
	})

	t.Run("partially filled then partially canceled", func(t *testing.T) {
		o := newTestOrder(t, SideBuy, 100, 60, t0, 1)
		require.NoError(t, o.Execute(10, 100))
		require.NoError(t, o.Cancel(20))
		assert.Equal(t, int64(30), o.LeavesQty)
		assert.Equal(t, StatusPartiallyFilled, o.Status)
		assertInvariant(t, o)
	})

	t.Run("remaining canceled", func(t *testing.T) {
		o := newTestOrder(t, SideBuy, 100, 60, t0, 1)
		require.NoError(t, o.Execute(10, 100))
		require.NoError(t, o.Cancel(50))
		assert.Equal(t, StatusCanceled, o.Status)
		assert.False(t, o.HasLeavesQty())
		assertInvariant(t, o)
	})

	t.Run("overcancel", func(t *testing.T) {
		o := newTestOrder(t, SideBuy, 100, 5, t0, 1)
		assert.ErrorIs(t, o.Cancel(6), ErrOverfill)
		assert.Equal(t, int64(5), o.LeavesQty)
	})
}

func TestCompare(t *testing.T) {
	t1 := t0
	t2 := t0.Add(time.Second)

	tests := []struct {
		name string
		a, b *Order
		want Ordering
	}{
		{"buy higher price first", newTestOrder(t, SideBuy, 105, 1, t2, 2), newTestOrder(t, SideBuy, 100, 1, t1, 1), Before},
		{"buy lower price after", newTestOrder(t, SideBuy, 100, 1, t1, 1), newTestOrder(t, SideBuy, 105, 1, t2, 2), After},
		{"buy earlier first", newTestOrder(t, SideBuy, 100, 1, t1, 1), newTestOrder(t, SideBuy, 100, 1, t2, 2), Before},
		{"sell lower price first", newTestOrder(t, SideSell, 95, 1, t2, 2), newTestOrder(t, SideSell, 100, 1, t1, 1), Before},
		{"sell higher price after", newTestOrder(t, SideSell, 100, 1, t1, 1), newTestOrder(t, SideSell, 95, 1, t2, 2), After},
		{"sell earlier first", newTestOrder(t, SideSell, 100, 1, t1, 1), newTestOrder(t, SideSell, 100, 1, t2, 2), Before},
		{"same timestamp lower seq first", newTestOrder(t, SideSell, 100, 1, t1, 7), newTestOrder(t, SideSell, 100, 1, t1, 8), Before},
		{"same timestamp higher seq after", newTestOrder(t, SideBuy, 100, 1, t1, 9), newTestOrder(t, SideBuy, 100, 1, t1, 8), After},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_Preconditions(t *testing.T) {
	buy := newTestOrder(t, SideBuy, 100, 1, t0, 1)
	sell := newTestOrder(t, SideSell, 100, 1, t0, 2)

	_, err := Compare(buy, sell)
	assert.ErrorIs(t, err, ErrMixedSides)

	bogus := buy.Clone()
	bogus.Side = SideUnknown
	_, err = Compare(bogus, buy)
	assert.ErrorIs(t, err, ErrInvalidSide)

	got, err := Compare(buy, buy.Clone())
	require.NoError(t, err)
	assert.Equal(t, Equal, got)
}

func TestMatch(t *testing.T) {
	buy := newTestOrder(t, SideBuy, 100, 80, t0, 1)

	sell95 := newTestOrder(t, SideSell, 95, 100, t0, 2)
	require.NoError(t, sell95.Cancel(50)) // leaves 50

	qty, err := buy.Match(sell95, 80)
	require.NoError(t, err)
	assert.Equal(t, int64(50), qty, "capped by counterparty leaves")

	sell105 := newTestOrder(t, SideSell, 105, 100, t0, 3)
	qty, err = buy.Match(sell105, 80)
	require.NoError(t, err)
	assert.Zero(t, qty, "no cross")

	otherBuy := newTestOrder(t, SideBuy, 90, 100, t0, 4)
	qty, err = buy.Match(otherBuy, 80)
	require.NoError(t, err)
	assert.Zero(t, qty, "same side")

	qty, err = sell95.Match(buy, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(30), qty)

	// match is pure
	assert.Equal(t, int64(50), sell95.LeavesQty)
	assert.Equal(t, int64(80), buy.LeavesQty)
}

func TestMatch_MarketCrossesAnyPrice(t *testing.T) {
	mkt, err := New(Params{Symbol: "BTCBRL", Side: SideBuy, Type: TypeMarket, Qty: 5})
	require.NoError(t, err)

	sell := newTestOrder(t, SideSell, 1_000_000, 3, t0, 1)
	qty, err := mkt.Match(sell, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)
}

func TestMatch_InvalidSide(t *testing.T) {
	buy := newTestOrder(t, SideBuy, 100, 1, t0, 1)
	bogus := buy.Clone()
	bogus.Side = Side(9)

	_, err := buy.Match(bogus, 1)
	assert.ErrorIs(t, err, ErrInvalidSide)
}

type stubBalances map[Currency]int64

func (s stubBalances) Balance(_ context.Context, _ int64, c Currency) (int64, error) {
	return s[c], nil
}

type failingBalances struct{}

func (failingBalances) Balance(context.Context, int64, Currency) (int64, error) {
	return 0, errors.New("balance store unavailable")
}

func TestAvailableQtyToExecute(t *testing.T) {
	ctx := context.Background()
	o := newTestOrder(t, SideBuy, 50_000, 1, t0, 1)
	balances := stubBalances{CurrencyBRL: 1_000_000, CurrencyBTC: 300}

	buyCap := int64(1_000_000 / 50_000 * QtyScale)

	tests := []struct {
		name  string
		side  Side
		qty   int64
		price int64
		want  int64
	}{
		{"buy above cap", SideBuy, buyCap + 1, 50_000, buyCap},
		{"buy at cap", SideBuy, buyCap, 50_000, buyCap},
		{"buy below cap", SideBuy, 10, 50_000, 10},
		{"buy floors", SideBuy, 1 << 50, 3, 33_333_333_333_333},
		{"sell above balance", SideSell, 500, 50_000, 300},
		{"sell below balance", SideSell, 200, 50_000, 200},
		{"unknown side unchanged", SideUnknown, 777, 50_000, 777},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := o.AvailableQtyToExecute(ctx, balances, tt.side, tt.qty, tt.price)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAvailableQtyToExecute_Errors(t *testing.T) {
	ctx := context.Background()
	o := newTestOrder(t, SideBuy, 50_000, 1, t0, 1)

	_, err := o.AvailableQtyToExecute(ctx, stubBalances{}, SideBuy, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = o.AvailableQtyToExecute(ctx, failingBalances{}, SideSell, 10, 1)
	assert.Error(t, err)

	got, err := o.AvailableQtyToExecute(ctx, stubBalances{CurrencyBTC: -5}, SideSell, 10, 1)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestValidate(t *testing.T) {
	o := newTestOrder(t, SideBuy, 100, 10, t0, 1)
	require.NoError(t, o.Execute(4, 100))
	require.NoError(t, o.Validate())

	broken := o.Clone()
	broken.LeavesQty = 7
	assert.ErrorIs(t, broken.Validate(), ErrInvariant)

	stale := o.Clone()
	stale.Status = StatusNew
	assert.ErrorIs(t, stale.Validate(), ErrInvariant)
}
