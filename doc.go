// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package weakref provides runtime-checked weak references: a single
// owner [Own] paired with cheap, freely copyable observers [Ref] that
// can tell at any later point, from any goroutine, whether the owned
// value is still alive. There is no reference counting; liveness is a
// generation-counter comparison under an epoch [Guard].
//
// # Architecture
//
//   - Generation slots: each owner stamps a monotonically increasing
//     counter cell. Dropping the owner advances the counter by one, so
//     every observer created for the old generation turns dead at once.
//     Slots are recycled through a [Registry] backed by a bounded
//     lock-free MPMC queue from [code.hybscloud.com/lfq]; a recycled
//     slot's counter keeps climbing, so a stale observer can never match
//     a future owner.
//   - Epoch bridge: [code.hybscloud.com/weakref/epoch] defers owner
//     cleanup until no pinned guard can still observe the value, which
//     makes the borrowed view returned by [Ref.Get] safe for the
//     lifetime of the guard.
//   - Non-blocking: no operation takes a lock or blocks on I/O; bounded
//     retries wait with [code.hybscloud.com/iox.Backoff], and shared
//     counters are [code.hybscloud.com/atomix] atomics.
//
// # API
//
//   - Owners: [New], [NewIn], [Own.Ref], [Own.Value], [Own.OnDrop],
//     [Own.Drop], [Replace]. An owner is exclusive: it is never copied
//     and drops exactly once.
//   - Observers: [Ref.Get], [Ref.Alive], [Ref.Inspect], projections
//     [Map], [MapWith], [FilterMap], [FilterMapWith], and [Null].
//     A Ref is a small value type, safe to store and pass across
//     goroutines indefinitely.
//   - Pinning: [Pin] returns the [Guard] that scopes every access.
//
// # Example
//
//	data := weakref.New([]int{1, 2, 3})
//	r := data.Ref()
//
//	g := weakref.Pin()
//	if v, ok := r.Get(&g); ok {
//		_ = (*v)[0] // the view is valid until g.Unpin()
//	}
//	g.Unpin()
//
//	data.Drop()
//
//	g = weakref.Pin()
//	_, ok := r.Get(&g) // ok == false: the owner is gone
//	g.Unpin()
package weakref
