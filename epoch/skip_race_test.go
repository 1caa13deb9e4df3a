// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package epoch_test

import "testing"

// skipRace skips tests that exercise the lfq deferred-action queue. The
// race detector tracks per-variable happens-before and cannot see lfq's
// cross-variable memory ordering, producing false positives.
func skipRace(tb testing.TB) {
	tb.Helper()
	tb.Skip("skip: lfq uses cross-variable memory ordering")
}
