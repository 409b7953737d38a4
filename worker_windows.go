// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

//go:build windows

package propcheck

import "os"

// signalTerminate has no cooperative equivalent on Windows; os.Process
// only supports a hard kill, so the timeout escalation ladder collapses
// to one rung here.
func signalTerminate(p *os.Process) {
	if p == nil {
		return
	}
	p.Kill()
}

// killHard terminates the process unconditionally.
func killHard(p *os.Process) {
	if p == nil {
		return
	}
	p.Kill()
}
