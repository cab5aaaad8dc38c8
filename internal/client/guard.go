package client

import "sync/atomic"

// Guard implements latest-request-wins. Every request takes a ticket and
// applies its result only if no newer ticket was issued meanwhile.
type Guard struct {
	latest atomic.Uint64
}

// Next issues a ticket, invalidating every earlier one
func (g *Guard) Next() uint64 {
	return g.latest.Add(1)
}

// IsLatest reports whether ticket is still the newest
func (g *Guard) IsLatest(ticket uint64) bool {
	return g.latest.Load() == ticket
}
