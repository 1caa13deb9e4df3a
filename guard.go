// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weakref

import "code.hybscloud.com/weakref/epoch"

// Guard is a pinned observation window for the calling goroutine. Every
// liveness check happens under one, and the view it yields is valid only
// until the guard unpins.
//
// This is a re-export from [code.hybscloud.com/weakref/epoch].
type Guard = epoch.Guard

// Pin pins the calling goroutine, preventing owned values from being
// cleaned up mid-access. Release with [Guard.Unpin] on every exit path.
//
// This is a re-export from [code.hybscloud.com/weakref/epoch].
func Pin() Guard {
	return epoch.Pin()
}
