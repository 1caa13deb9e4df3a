// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package epoch provides epoch-based deferred reclamation for lock-free
// data structures.
//
// A goroutine pins itself with [Pin] before observing shared state and
// unpins when done. A writer retiring shared state calls [Guard.Defer]
// with a cleanup action; the action runs only after every guard pinned
// at or before the deferral has been released. This is the grace-period
// mechanism that lets readers validate and use borrowed state without
// reference counting.
//
//   - Pinning claims one of [MaxGuards] reservation entries by CAS and
//     records the current epoch clock value. A goroutine may hold several
//     guards at once; each claims its own entry.
//   - Deferring bumps the epoch clock and queues the action tagged with
//     the pre-bump epoch on a bounded MPMC queue from
//     [code.hybscloud.com/lfq].
//   - Draining computes the safe epoch (one less than the oldest pinned
//     epoch) and runs every queued action at or below it. Draining
//     happens opportunistically on Pin and Defer, and on demand via
//     [Advance].
//
// All operations are non-blocking apart from the bounded lock-free
// retries inherent in entry claiming and queue backpressure, which wait
// with [code.hybscloud.com/iox.Backoff].
package epoch

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// MaxGuards is the maximum number of concurrently pinned guards.
// Pin waits with backoff when every reservation entry is claimed.
const MaxGuards = 64

// reservation is one pin entry. local holds the epoch the guard pinned
// at, or 0 when the entry is free. Padded so independent entries do not
// share a cache line.
type reservation struct {
	local atomix.Uint64
	_     [56]byte
}

// global is the process-wide epoch state: the epoch clock and the pin
// reservation table. The clock starts at 1 so that 0 can mark a free
// reservation.
var global struct {
	current atomix.Uint64
	claim   atomix.Uint64
	entries [MaxGuards]reservation
}

func init() {
	global.current.Store(1)
}

// Pin claims a reservation entry at the current epoch and returns the
// guard for it. While the guard is held, no action deferred at or after
// the pinned epoch runs. Waits with adaptive backoff when all entries
// are claimed.
func Pin() Guard {
	var bo iox.Backoff
	for {
		start := global.claim.Add(1)
		for i := uint64(0); i < MaxGuards; i++ {
			e := &global.entries[(start+i)%MaxGuards]
			now := global.current.Load()
			if e.local.CompareAndSwap(0, now) {
				if pendingCount.Load() > 0 {
					drain()
				}
				return Guard{entry: e}
			}
		}
		bo.Wait()
	}
}

// Advance bumps the epoch clock and runs whatever deferred actions have
// become safe. Reclamation is otherwise opportunistic; Advance forces a
// deterministic attempt, which tests and teardown paths rely on.
func Advance() {
	global.current.Add(1)
	drain()
}

// safeEpoch returns the newest epoch no pinned guard can still observe:
// one less than the oldest pinned epoch, or one less than the clock when
// nothing is pinned. An action deferred at epoch p may run once
// safeEpoch() >= p, because every guard that could have validated the
// pre-retirement state is pinned at or before p.
func safeEpoch() uint64 {
	oldest := global.current.Load()
	for i := range global.entries {
		local := global.entries[i].local.Load()
		if local != 0 && local < oldest {
			oldest = local
		}
	}
	return oldest - 1
}
