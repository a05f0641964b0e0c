package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/bitex/backend/internal/contracts"
	"github.com/wonny/bitex/backend/internal/marketconfig"
	"github.com/wonny/bitex/backend/internal/order"
	"github.com/wonny/bitex/backend/pkg/logger"
	"github.com/wonny/bitex/backend/pkg/redis"
)

const maxClientOrderIDLen = 36

// Config configures an Engine
type Config struct {
	// Traded symbols. Defaults to the keys of Markets when empty.
	Symbols []string

	// Per-symbol entry rules keyed by canonical symbol. Symbols without rules accept any order.
	Markets map[string]marketconfig.Rules

	// Optional. Nil disables order entry throttling.
	Limiter         *redis.RateLimiter
	OrderRateLimit  int
	OrderRateWindow time.Duration
}

// symbolBook pairs a book with the lock that serializes all mutation of its orders
type symbolBook struct {
	mu   sync.Mutex
	book *Book
}

// Engine matches orders by price-time priority, one book per symbol.
// ⭐ SSOT: 주문 체결/취소는 Engine 을 통해서만
type Engine struct {
	store    contracts.OrderStore
	balances contracts.BalanceProvider
	cfg      Config
	seq      *Sequencer
	logger   *logger.Logger
	books    map[string]*symbolBook // fixed after NewEngine
	now      func() time.Time
}

// NewEngine creates an engine with an empty book for every configured symbol
func NewEngine(store contracts.OrderStore, balances contracts.BalanceProvider, cfg Config, log *logger.Logger) (*Engine, error) {
	if len(cfg.Symbols) == 0 {
		for s := range cfg.Markets {
			cfg.Symbols = append(cfg.Symbols, s)
		}
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}

	books := make(map[string]*symbolBook, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		pair, err := order.ParseSymbol(s)
		if err != nil {
			return nil, err
		}
		books[pair.Symbol()] = &symbolBook{book: NewBook(pair.Symbol())}
	}

	return &Engine{
		store:    store,
		balances: balances,
		cfg:      cfg,
		seq:      NewSequencer(0),
		logger:   log.WithComponent("matching"),
		books:    books,
		now:      time.Now,
	}, nil
}

// Symbols returns the traded symbols, sorted
func (e *Engine) Symbols() []string {
	symbols := make([]string, 0, len(e.books))
	for s := range e.books {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

func (e *Engine) book(symbol string) (*symbolBook, error) {
	pair, err := order.ParseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	sb, ok := e.books[pair.Symbol()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, symbol)
	}
	return sb, nil
}

// Load rehydrates the books from the store's open orders and seeds the sequencer
func (e *Engine) Load(ctx context.Context) error {
	open, err := e.store.ListOpenOrders(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load open orders: %w", err)
	}

	last, err := e.store.LastSeq(ctx)
	if err != nil {
		return err
	}
	e.seq.Observe(last)

	loaded := 0
	for _, o := range open {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}

		sb, ok := e.books[o.Symbol]
		if !ok {
			e.logger.WithFields(logger.Fields{
				"order_id": o.ID,
				"symbol":   o.Symbol,
			}).Warn("Skipping open order of untraded symbol")
			continue
		}

		sb.mu.Lock()
		err := sb.book.Add(o)
		sb.mu.Unlock()
		if err != nil {
			return fmt.Errorf("failed to rest order %d: %w", o.ID, err)
		}
		loaded++
	}

	e.logger.WithFields(logger.Fields{
		"orders": loaded,
		"seq":    e.seq.Current(),
	}).Info("Order books loaded")

	return nil
}

// Submit enters a new order, matches it against the opposite side and rests the
// limit remainder. A failed persist of a fill leaves both orders as they were
// before that fill and cancels what is left of the new order; executions already
// committed stay in the report.
func (e *Engine) Submit(ctx context.Context, req NewOrder) (*Report, error) {
	sb, err := e.book(req.Symbol)
	if err != nil {
		return nil, err
	}

	if rules, ok := e.cfg.Markets[sb.book.Symbol]; ok {
		if err := rules.Check(req.Type, req.Price, req.Qty); err != nil {
			return nil, err
		}
	}

	if err := e.checkRate(ctx, req.AccountID); err != nil {
		return nil, err
	}

	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	if len(req.ClientOrderID) > maxClientOrderIDLen {
		return nil, fmt.Errorf("%w: longer than %d characters", ErrInvalidClientOrderID, maxClientOrderIDLen)
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	o, err := order.New(order.Params{
		ClientOrderID: req.ClientOrderID,
		AccountID:     req.AccountID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Price:         req.Price,
		Qty:           req.Qty,
		Seq:           e.seq.Next(),
		CreatedAt:     e.now(),
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	report := &Report{Order: o, Executions: make([]contracts.Execution, 0)}
	if err := e.match(ctx, sb.book, o, report); err != nil {
		// 체결 실패: 잔량이 호가창 밖에 열린 채로 남지 않도록 취소
		if cerr := e.cancelRemainder(ctx, o); cerr != nil {
			e.logger.WithError(cerr).WithField("order_id", o.ID).Error("Failed to cancel order after match error")
		}
		return report, err
	}

	if o.HasLeavesQty() {
		if o.Type == order.TypeMarket {
			// 시장가 잔량은 취소
			if err := e.cancelRemainder(ctx, o); err != nil {
				return report, err
			}
		} else if err := sb.book.Add(o); err != nil {
			return report, err
		}
	}

	e.logger.WithFields(logger.Fields{
		"order_id": o.ID,
		"symbol":   o.Symbol,
		"side":     o.Side.String(),
		"status":   o.Status.String(),
		"filled":   report.FilledQty(),
	}).Info("Order processed")

	return report, nil
}

// match executes o against the book until it is filled, stops crossing, or its
// account cannot pay for more. Caller holds the symbol lock.
func (e *Engine) match(ctx context.Context, book *Book, o *order.Order, report *Report) error {
	balances := newCommittedBalances(e.balances)

	for o.HasLeavesQty() {
		resting, ok := book.Best(o.Side.Opposite())
		if !ok {
			return nil
		}

		qty, err := o.Match(resting, o.LeavesQty)
		if err != nil {
			return err
		}
		if qty == 0 {
			return nil
		}

		price := resting.Price
		affordable, err := o.AvailableQtyToExecute(ctx, balances, o.Side, qty, price)
		if err != nil {
			return err
		}
		if affordable == 0 {
			// 잔고 부족: 남은 수량 취소
			return e.cancelRemainder(ctx, o)
		}

		fillQty, err := resting.AvailableQtyToExecute(ctx, balances, resting.Side, affordable, price)
		if err != nil {
			return err
		}
		if fillQty == 0 {
			if err := e.cancelRemainder(ctx, resting); err != nil {
				return err
			}
			book.Remove(resting.ID)
			report.Canceled = append(report.Canceled, resting.Clone())
			continue
		}

		exec, err := e.fill(ctx, o, resting, fillQty, price)
		if err != nil {
			return err
		}
		report.Executions = append(report.Executions, *exec)

		buy, sell := o, resting
		if o.Side == order.SideSell {
			buy, sell = resting, o
		}
		if err := balances.commit(buy, sell, fillQty, price); err != nil {
			return err
		}

		// An order is capped by balance at most once:
		// the unaffordable remainder of a capped side is cancelled.
		if fillQty < affordable && resting.HasLeavesQty() {
			if err := e.cancelRemainder(ctx, resting); err != nil {
				return err
			}
			report.Canceled = append(report.Canceled, resting.Clone())
		}
		if !resting.HasLeavesQty() {
			book.Remove(resting.ID)
		}
		if affordable < qty {
			return e.cancelRemainder(ctx, o)
		}
	}
	return nil
}

// fill executes qty at price on copies of both orders and commits them only after
// the cross is persisted.
func (e *Engine) fill(ctx context.Context, aggressor, resting *order.Order, qty, price int64) (*contracts.Execution, error) {
	a, r := aggressor.Clone(), resting.Clone()
	if err := a.Execute(qty, price); err != nil {
		return nil, err
	}
	if err := r.Execute(qty, price); err != nil {
		return nil, err
	}

	cross := &contracts.Cross{
		Aggressor:     a,
		Resting:       r,
		Execution:     contracts.NewExecution(a, r, qty, price, e.now()),
		PrevAggressor: contracts.StateOf(aggressor),
		PrevResting:   contracts.StateOf(resting),
	}
	if err := e.store.SaveCross(ctx, cross); err != nil {
		e.logger.WithError(err).WithFields(logger.Fields{
			"aggressor_id": aggressor.ID,
			"resting_id":   resting.ID,
			"qty":          qty,
			"price":        price,
		}).Error("Failed to persist cross")
		return nil, fmt.Errorf("failed to save cross: %w", err)
	}

	*aggressor = *a
	*resting = *r

	e.logger.WithFields(logger.Fields{
		"execution_id": cross.Execution.ID,
		"symbol":       cross.Execution.Symbol,
		"price":        price,
		"qty":          qty,
	}).Debug("Executed")

	return cross.Execution, nil
}

// cancelRemainder cancels all leaves quantity of o and persists it.
// o is left untouched when the update fails.
func (e *Engine) cancelRemainder(ctx context.Context, o *order.Order) error {
	if !o.HasLeavesQty() {
		return nil
	}

	c := o.Clone()
	if err := c.Cancel(c.LeavesQty); err != nil {
		return err
	}
	if err := e.store.UpdateOrder(ctx, c, contracts.StateOf(o)); err != nil {
		return err
	}

	*o = *c
	return nil
}

func (e *Engine) checkRate(ctx context.Context, accountID int64) error {
	if e.cfg.Limiter == nil {
		return nil
	}

	allowed, _, err := e.cfg.Limiter.Allow(ctx, redis.RateLimitConfig{
		Key:    redis.OrderRateKey(accountID),
		Limit:  e.cfg.OrderRateLimit,
		Window: e.cfg.OrderRateWindow,
	})
	if err != nil {
		// Redis 장애 시 주문 접수는 계속
		e.logger.WithError(err).WithField("account_id", accountID).Warn("Rate limit check failed")
		return nil
	}
	if !allowed {
		return fmt.Errorf("%w: account %d", ErrRateLimited, accountID)
	}
	return nil
}

// Cancel cancels the leaves quantity of an order owned by accountID.
// Orders of other accounts are reported as order.ErrOrderNotFound. An order that is
// already terminal is returned unchanged.
func (e *Engine) Cancel(ctx context.Context, accountID, orderID int64) (*order.Order, error) {
	stored, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return e.cancel(ctx, accountID, stored)
}

// CancelByClientID cancels an order by the identifier its owner supplied
func (e *Engine) CancelByClientID(ctx context.Context, accountID int64, clientOrderID string) (*order.Order, error) {
	stored, err := e.store.GetOrderByClientID(ctx, accountID, clientOrderID)
	if err != nil {
		return nil, err
	}
	return e.cancel(ctx, accountID, stored)
}

func (e *Engine) cancel(ctx context.Context, accountID int64, stored *order.Order) (*order.Order, error) {
	if stored.AccountID != accountID {
		return nil, fmt.Errorf("%w: id %d", order.ErrOrderNotFound, stored.ID)
	}

	sb, err := e.book(stored.Symbol)
	if err != nil {
		return nil, err
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	o := stored
	if resting, ok := sb.book.Get(stored.ID); ok {
		o = resting
	} else if stored.HasLeavesQty() {
		// 호가창 밖의 주문은 저장소 상태를 다시 확인
		if o, err = e.store.GetOrder(ctx, stored.ID); err != nil {
			return nil, err
		}
	}

	if !o.HasLeavesQty() {
		return o.Clone(), nil
	}

	if err := e.cancelRemainder(ctx, o); err != nil {
		return nil, err
	}
	sb.book.Remove(o.ID)

	e.logger.WithFields(logger.Fields{
		"order_id":   o.ID,
		"account_id": accountID,
		"cxl_qty":    o.CxlQty,
	}).Info("Order canceled")

	return o.Clone(), nil
}

// GetOrder returns an order by id. Orders of other accounts are not found.
func (e *Engine) GetOrder(ctx context.Context, accountID, orderID int64) (*order.Order, error) {
	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.AccountID != accountID {
		return nil, fmt.Errorf("%w: id %d", order.ErrOrderNotFound, orderID)
	}
	return o, nil
}

// GetOrderByClientID returns an order by the identifier its owner supplied
func (e *Engine) GetOrderByClientID(ctx context.Context, accountID int64, clientOrderID string) (*order.Order, error) {
	return e.store.GetOrderByClientID(ctx, accountID, clientOrderID)
}

// Depth returns aggregated price levels of both sides of a book
func (e *Engine) Depth(symbol string, depth int) (bids, asks []Level, err error) {
	sb, err := e.book(symbol)
	if err != nil {
		return nil, nil, err
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.book.Levels(order.SideBuy, depth), sb.book.Levels(order.SideSell, depth), nil
}

// Reconcile checks every resting order against its invariant and the store, and
// reports open orders in the store missing from the books.
func (e *Engine) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{Discrepancies: make([]Discrepancy, 0)}

	for _, symbol := range e.Symbols() {
		if err := e.reconcileBook(ctx, e.books[symbol], report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func (e *Engine) reconcileBook(ctx context.Context, sb *symbolBook, report *ReconcileReport) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	symbol := sb.book.Symbol
	add := func(id int64, reason string) {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{OrderID: id, Symbol: symbol, Reason: reason})
	}

	resting := append(sb.book.Orders(order.SideBuy), sb.book.Orders(order.SideSell)...)
	for _, o := range resting {
		report.Checked++

		if err := o.Validate(); err != nil {
			add(o.ID, err.Error())
			continue
		}

		stored, err := e.store.GetOrder(ctx, o.ID)
		if errors.Is(err, order.ErrOrderNotFound) {
			add(o.ID, "resting order missing from store")
			continue
		}
		if err != nil {
			return err
		}
		if contracts.StateOf(stored) != contracts.StateOf(o) || stored.LeavesQty != o.LeavesQty {
			add(o.ID, fmt.Sprintf("book cum/leaves/cxl %d/%d/%d, store %d/%d/%d",
				o.CumQty, o.LeavesQty, o.CxlQty, stored.CumQty, stored.LeavesQty, stored.CxlQty))
		}
	}

	open, err := e.store.ListOpenOrders(ctx, symbol)
	if err != nil {
		return err
	}
	for _, o := range open {
		if _, ok := sb.book.Get(o.ID); !ok {
			add(o.ID, "open order in store is not resting in book")
		}
	}

	return nil
}
