// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

//go:build !windows

package propcheck

import (
	"os"
	"syscall"
)

// signalTerminate sends the initial, cooperative termination signal.
func signalTerminate(p *os.Process) {
	if p == nil {
		return
	}
	p.Signal(syscall.SIGTERM)
}

// killHard sends the forcible, non-ignorable kill signal.
func killHard(p *os.Process) {
	if p == nil {
		return
	}
	p.Signal(syscall.SIGKILL)
}
