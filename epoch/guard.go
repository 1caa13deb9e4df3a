// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package epoch

import "code.hybscloud.com/iox"

// Guard is a pinned observation window. It is acquired by [Pin], must be
// released with [Unpin] on every exit path, and must not be copied while
// pinned. Unpin never pins or waits, so it is safe in deferred teardown.
type Guard struct {
	entry *reservation
}

// Pinned reports whether the guard is still pinned.
func (g *Guard) Pinned() bool {
	return g.entry != nil
}

// Unpin releases the guard's reservation entry, allowing deferred
// actions the pin was holding back to become safe. Unpinning an already
// released guard is a no-op.
func (g *Guard) Unpin() {
	if g.entry == nil {
		return
	}
	g.entry.local.Store(0)
	g.entry = nil
}

// Defer schedules fn to run once no pinned guard can still observe state
// retired before the call: the epoch clock is bumped and fn is queued
// under the pre-bump epoch. The calling guard itself is pinned at or
// before that epoch, so fn never runs inside Defer. Waits with backoff
// when the deferred queue is saturated, draining to make room.
func (g *Guard) Defer(fn func()) {
	if g.entry == nil {
		panic("epoch: Defer on an unpinned guard")
	}
	prior := global.current.Add(1) - 1
	d := deferred{epoch: prior, fn: fn}
	pendingCount.Add(1)
	var bo iox.Backoff
	for pending.Enqueue(&d) != nil {
		drain()
		bo.Wait()
	}
	drain()
}
