// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package epoch

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// pendingCapacity bounds the deferred-action queue. Saturation is
// backpressure: Defer drains and retries until reclamation frees a slot.
const pendingCapacity = 256

// deferred is one queued cleanup action, tagged with the epoch it was
// scheduled under. It may run once safeEpoch() reaches that epoch.
type deferred struct {
	epoch uint64
	fn    func()
}

var (
	// pending holds deferred actions in no particular order; safety
	// depends only on each action's epoch tag, never on queue order.
	pending = lfq.NewMPMC[deferred](pendingCapacity)

	// pendingCount tracks queued actions so Pin can skip draining on the
	// common path. Incremented before enqueue so a concurrent drain of
	// the new action cannot underflow it.
	pendingCount atomix.Uint64
)

// drain runs every queued action whose epoch is at or below the safe
// epoch, requeueing the rest. Bounded by the queue capacity per call, so
// an action requeued by this drain is not rescanned forever.
func drain() {
	safe := safeEpoch()
	for range pendingCapacity {
		d, err := pending.Dequeue()
		if err != nil {
			return
		}
		if d.epoch <= safe {
			pendingCount.Add(^uint64(0))
			d.fn()
			continue
		}
		requeue(d)
	}
}

// requeue puts a still-unsafe action back on the queue. The dequeue that
// produced d freed a slot, so the wait here is for a racing producer to
// move on, not for reclamation progress.
func requeue(d deferred) {
	var bo iox.Backoff
	for pending.Enqueue(&d) != nil {
		bo.Wait()
	}
}
