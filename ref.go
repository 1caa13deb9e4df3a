// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weakref

// Ref is a weak reference that checks liveness at runtime. It is a small
// value type with no destructor: copy it, store it, send it across
// goroutines, keep it forever. Validity is re-checked against the slot's
// generation on every access, never assumed.
//
// The zero Ref is valid and never alive, like [Null].
type Ref[T any] struct {
	slot *slot
	gen  uint64
	ptr  *T
}

// Get checks whether the owner is still alive and, if so, returns the
// borrowed view. The view is read-only and valid only until g unpins;
// do not retain it. Not-alive is the normal outcome for a dropped
// owner, not an error.
//
// The generation load is the single synchronization point: a match means
// the cleanup was deferred under an epoch this guard holds back, and a
// mismatch means the owner is gone — never a torn in-between. Panics if
// g is not pinned.
func (r Ref[T]) Get(g *Guard) (*T, bool) {
	if !g.Pinned() {
		panic("weakref: access without a pinned guard")
	}
	if r.slot == nil || r.ptr == nil {
		return nil, false
	}
	if r.slot.gen.Load() != r.gen {
		return nil, false
	}
	return r.ptr, true
}

// Alive reports whether the owner is still alive, without touching the
// value.
func (r Ref[T]) Alive(g *Guard) bool {
	_, ok := r.Get(g)
	return ok
}

// Inspect pins, and if the owner is alive, calls fn on the view. Returns
// whether fn ran. The view passed to fn must not escape it.
func (r Ref[T]) Inspect(fn func(*T)) bool {
	g := Pin()
	defer g.Unpin()
	v, ok := r.Get(&g)
	if ok {
		fn(v)
	}
	return ok
}

// Null returns a reference where [Ref.Get] is always not-alive, as if
// the owner was already dropped.
func Null[T any]() Ref[T] {
	return Ref[T]{}
}

// Map derives a reference to a part of the referent, such as a struct
// field or slice element. The projection shares the source's slot and
// generation, so it dies exactly when the source does, never
// independently. fn must return an address reachable from its argument
// and must not let the argument escape.
func Map[T, U any](r Ref[T], fn func(*T) *U) Ref[U] {
	g := Pin()
	defer g.Unpin()
	return MapWith(r, fn, &g)
}

// MapWith is [Map] for callers that already hold a pinned guard.
func MapWith[T, U any](r Ref[T], fn func(*T) *U, g *Guard) Ref[U] {
	out := Ref[U]{slot: r.slot, gen: r.gen}
	if v, ok := r.Get(g); ok {
		out.ptr = fn(v)
	}
	return out
}

// FilterMap is [Map] with the ability to decline: when fn reports false
// the result behaves like [Null]. Useful for projections that may be out
// of range.
func FilterMap[T, U any](r Ref[T], fn func(*T) (*U, bool)) Ref[U] {
	g := Pin()
	defer g.Unpin()
	return FilterMapWith(r, fn, &g)
}

// FilterMapWith is [FilterMap] for callers that already hold a pinned
// guard.
func FilterMapWith[T, U any](r Ref[T], fn func(*T) (*U, bool), g *Guard) Ref[U] {
	out := Ref[U]{slot: r.slot, gen: r.gen}
	if v, ok := r.Get(g); ok {
		if u, keep := fn(v); keep {
			out.ptr = u
		}
	}
	return out
}
