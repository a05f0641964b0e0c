package matching

import "sync/atomic"

// Sequencer hands out the monotonic sequence numbers that break price-time ties
type Sequencer struct {
	last atomic.Uint64
}

// NewSequencer starts after start; the first Next returns start+1
func NewSequencer(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next sequence number
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued sequence number
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Observe raises the sequencer to at least seq. Used when rehydrating orders.
func (s *Sequencer) Observe(seq uint64) {
	for {
		cur := s.last.Load()
		if seq <= cur || s.last.CompareAndSwap(cur, seq) {
			return
		}
	}
}
