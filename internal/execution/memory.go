package execution

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/bitex/backend/internal/contracts"
	"github.com/wonny/bitex/backend/internal/order"
)

// MemoryStore implements contracts.OrderStore in memory.
// Stored orders are copies, so callers observe the same isolation as with PostgreSQL.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	nextExecID int64
	orders     map[int64]*order.Order
	executions []contracts.Execution
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[int64]*order.Order),
	}
}

var _ contracts.OrderStore = (*MemoryStore)(nil)

func (s *MemoryStore) CreateOrder(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.AccountID == o.AccountID && existing.ClientOrderID == o.ClientOrderID {
			return fmt.Errorf("failed to create order: duplicate client order id %q", o.ClientOrderID)
		}
	}

	s.nextID++
	o.ID = s.nextID
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *MemoryStore) UpdateOrder(_ context.Context, o *order.Order, prev contracts.QtyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPrev(o, prev); err != nil {
		return err
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *MemoryStore) checkPrev(o *order.Order, prev contracts.QtyState) error {
	stored, ok := s.orders[o.ID]
	if !ok || contracts.StateOf(stored) != prev {
		return fmt.Errorf("order %d: %w", o.ID, contracts.ErrConcurrentUpdate)
	}
	return nil
}

func (s *MemoryStore) SaveCross(_ context.Context, cross *contracts.Cross) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPrev(cross.Aggressor, cross.PrevAggressor); err != nil {
		return err
	}
	if err := s.checkPrev(cross.Resting, cross.PrevResting); err != nil {
		return err
	}

	s.orders[cross.Aggressor.ID] = cross.Aggressor.Clone()
	s.orders[cross.Resting.ID] = cross.Resting.Clone()

	s.nextExecID++
	cross.Execution.ID = s.nextExecID
	s.executions = append(s.executions, *cross.Execution)
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id int64) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", order.ErrOrderNotFound, id)
	}
	return o.Clone(), nil
}

func (s *MemoryStore) GetOrderByClientID(_ context.Context, accountID int64, clientOrderID string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.AccountID == accountID && o.ClientOrderID == clientOrderID {
			return o.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: client order id %q", order.ErrOrderNotFound, clientOrderID)
}

func (s *MemoryStore) ListOpenOrders(_ context.Context, symbol string) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	open := make([]*order.Order, 0)
	for _, o := range s.orders {
		if o.HasLeavesQty() && (symbol == "" || o.Symbol == symbol) {
			open = append(open, o.Clone())
		}
	}

	sort.Slice(open, func(i, j int) bool {
		if !open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].CreatedAt.Before(open[j].CreatedAt)
		}
		return open[i].Seq < open[j].Seq
	})
	return open, nil
}

func (s *MemoryStore) LastSeq(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last uint64
	for _, o := range s.orders {
		last = max(last, o.Seq)
	}
	return last, nil
}

// Executions returns a copy of all recorded executions
func (s *MemoryStore) Executions() []contracts.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.Execution, len(s.executions))
	copy(out, s.executions)
	return out
}
