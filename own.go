// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weakref

// Own is the exclusive owner of a heap-allocated value bound to one
// generation slot. Observers derived with [Own.Ref] stay valid copies
// forever; they merely report not-alive once the owner drops.
//
// An owner must not be copied and must be dropped at most once; the
// generation CAS in [Own.Drop] panics when that discipline is broken.
type Own[T any] struct {
	weak    Ref[T]
	reg     *Registry
	cleanup func(*T)
}

// New heap-allocates value and binds it to a slot from the default
// registry, stamped at the slot's current generation. Creation needs no
// guard: no observer of this owner can exist yet, so nothing races the
// stamp.
func New[T any](value T) *Own[T] {
	return NewIn(Default(), value)
}

// NewIn is [New] with an explicit registry.
func NewIn[T any](r *Registry, value T) *Own[T] {
	s, gen := r.acquire()
	return &Own[T]{
		weak: Ref[T]{slot: s, gen: gen, ptr: &value},
		reg:  r,
	}
}

// OnDrop registers fn to run after the owner drops, deferred through the
// epoch bridge until no pinned guard can still observe the value. The
// last registration wins. Must not race [Own.Drop].
func (o *Own[T]) OnDrop(fn func(*T)) {
	o.cleanup = fn
}

// Ref returns the copyable weak reference observing this owner. After
// [Own.Drop] it returns a reference that is never alive.
func (o *Own[T]) Ref() Ref[T] {
	return o.weak
}

// Value returns the owned value for direct use. The owner is the single
// writer, so no guard is needed. Panics if the owner was dropped.
func (o *Own[T]) Value() *T {
	if o.weak.ptr == nil {
		panic("weakref: value of a dropped owner")
	}
	return o.weak.ptr
}

// Drop destroys the owner under a single pinned guard: the slot
// generation advances by one, the cleanup registered with [Own.OnDrop]
// is deferred until every guard that could have validated the old
// generation unpins, and the slot returns to the recycle pool
// immediately. The pending cleanup is unaffected by the slot's reuse — a
// future owner only stamps a further-advanced generation.
//
// Dropping twice panics.
func (o *Own[T]) Drop() {
	g := Pin()
	defer g.Unpin()
	s, gen, reusable := o.kill(&g)
	if reusable {
		o.reg.release(s, gen)
	}
}

// kill runs the destruction sequence under g and returns the freed slot,
// its advanced generation, and whether the slot can serve another owner.
//
// The generation advances before the cleanup is deferred: once the CAS
// lands no observer pinned after the deferral epoch can validate, and
// every observer that did validate is pinned at or before it, so the
// drain holds the cleanup until those guards unpin.
func (o *Own[T]) kill(g *Guard) (*slot, uint64, bool) {
	s := o.weak.slot
	if s == nil {
		panic("weakref: drop of a dead owner")
	}
	next := o.weak.gen + 1
	if !s.gen.CompareAndSwap(o.weak.gen, next) {
		panic("weakref: generation advanced behind the owner's back")
	}
	if fn, ptr := o.cleanup, o.weak.ptr; fn != nil {
		g.Defer(func() { fn(ptr) })
	}
	o.weak = Ref[T]{}
	o.cleanup = nil
	return s, next, next != ^uint64(0)
}

// Replace drops old and binds value to the same generation slot,
// skipping the recycle-pool round-trip. Cheaper than [Own.Drop] followed
// by [New] when owners turn over quickly. Falls back to a fresh claim in
// the unreachable case of an exhausted counter.
func Replace[T, U any](old *Own[T], value U) *Own[U] {
	g := Pin()
	defer g.Unpin()
	s, gen, reusable := old.kill(&g)
	if !reusable {
		return NewIn(old.reg, value)
	}
	return &Own[U]{
		weak: Ref[U]{slot: s, gen: gen, ptr: &value},
		reg:  old.reg,
	}
}
