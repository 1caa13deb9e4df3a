// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weakref

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// defaultPoolCapacity bounds the default registry's recycle pool. Idle
// slots beyond it are forgotten rather than pooled, capping the memory
// pinned by recycling while keeping steady-state churn allocation-free.
const defaultPoolCapacity = 1024

// slot is a generation cell: the shared storage an owner and its
// observers agree on. The counter only ever climbs — by exactly one per
// owner death — so an observer that remembers generation g can match
// again only while the owner that stamped g is alive. Slots are recycled
// across owners and stay reachable through every observer that still
// points at them. Padded so recycled slots do not share cache lines.
type slot struct {
	gen atomix.Uint64
	_   [56]byte
}

// Registry is the process-wide home of generation slots: it mints fresh
// slots on demand and recycles the slots of dropped owners through a
// bounded lock-free MPMC pool. The zero Registry is not usable; create
// one with [NewRegistry] or use [Default].
//
// Keeping the pool behind an explicit handle lets tests run against a
// private registry with deterministic counters.
type Registry struct {
	pool     lfq.Queue[*slot]
	minted   atomix.Uint64
	reused   atomix.Uint64
	recycled atomix.Uint64
}

// NewRegistry creates a registry whose recycle pool holds up to capacity
// idle slots. Capacity rounds up to a power of two; minimum 2.
func NewRegistry(capacity int) *Registry {
	return &Registry{pool: lfq.NewMPMC[*slot](capacity)}
}

// defaultRegistry serves New. Package-level so observers stay valid for
// the life of the process.
var defaultRegistry = NewRegistry(defaultPoolCapacity)

// Default returns the process-wide registry used by [New].
func Default() *Registry {
	return defaultRegistry
}

// acquire returns an idle slot and its current generation, minting a
// fresh slot at generation 0 when the pool cannot supply one. Never
// fails; lock-free.
func (r *Registry) acquire() (*slot, uint64) {
	if s, err := r.pool.Dequeue(); err == nil {
		r.reused.Add(1)
		return s, s.gen.Load()
	}
	r.minted.Add(1)
	return new(slot), 0
}

// release returns a dead owner's slot to the pool. The generation has
// already been advanced to gen, so any future owner claiming the slot
// stamps a value no stale observer remembers. A slot whose counter is
// exhausted is retired: it can never validate again, so it must not
// serve another owner. When the pool is full the slot is simply
// forgotten; stale observers keep it reachable until the collector
// takes it.
func (r *Registry) release(s *slot, gen uint64) {
	if gen == ^uint64(0) {
		return
	}
	if err := r.pool.Enqueue(&s); err != nil {
		return
	}
	r.recycled.Add(1)
}

// Minted reports how many slots this registry has allocated. Under
// bounded concurrent churn it stabilizes instead of tracking the number
// of owners ever created.
func (r *Registry) Minted() uint64 {
	return r.minted.Load()
}

// Reused reports how many owner creations were served from the pool.
func (r *Registry) Reused() uint64 {
	return r.reused.Load()
}

// Recycled reports how many dropped owners returned their slot to the
// pool.
func (r *Registry) Recycled() uint64 {
	return r.recycled.Load()
}

// Drain empties the recycle pool so subsequent owners mint fresh slots.
// Intended for tests that need repeatable mint counts.
func (r *Registry) Drain() {
	for {
		if _, err := r.pool.Dequeue(); err != nil {
			return
		}
	}
}
