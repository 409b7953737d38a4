// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// workerSeedEnvVar is the one undocumented environment variable the
// engine uses as its fork-mode IPC discriminator: its presence signals
// that the current process is a re-exec'd worker asked to run exactly
// one trial and report its result over an inherited pipe, rather than a
// full run.
//
// Its value encodes both a seed and a call index, not just a seed. A
// re-exec'd worker is the whole test binary starting over from main, so
// it runs every Run call that precedes the one being isolated, not just
// that one. The call index lets each of those earlier calls recognize
// that the pending worker directive is not meant for them and proceed
// as an ordinary (non-worker) run; only the Run call whose position in
// call order matches the parent's acts as the worker. This assumes the
// parent and child reach Run calls in the same order, which holds for
// sequential (non-t.Parallel) callers.
const workerSeedEnvVar = "__PROPCHECK_WORKER_SEED"

// workerPipeFD is the descriptor number the child expects its result
// pipe on. Standard streams occupy 0-2, so the sole entry in
// exec.Cmd.ExtraFiles lands at 3.
const workerPipeFD = 3

// runCallCounter assigns each call to Run, across the whole process, a
// 1-based position used to line up parent and child call order.
var runCallCounter int64

func nextRunCallIndex() int64 {
	return atomic.AddInt64(&runCallCounter, 1)
}

// inWorkerReexec reports whether the current process was re-exec'd to
// service some Run call's worker, regardless of whether that target is
// this particular callIdx. It is used to suppress fork mode on every Run
// call that is merely being replayed for call-order bookkeeping during a
// re-exec, so that a fork-enabled test does not spawn its own full
// subprocess tree inside another fork-enabled test's child.
func inWorkerReexec() bool {
	_, ok := os.LookupEnv(workerSeedEnvVar)
	return ok
}

func isWorkerChild(callIdx int64) (uint64, bool) {
	v, ok := os.LookupEnv(workerSeedEnvVar)
	if !ok {
		return 0, false
	}
	parts := strings.SplitN(v, "|", 2)
	if len(parts) != 2 {
		return 0, false
	}
	targetIdx, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || targetIdx != callIdx {
		return 0, false
	}
	seed, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return seed, true
}

// runWorkerChild regenerates the trial's arguments from seed using the
// same Config the parent holds, invokes post_fork and the property, and
// writes one result byte to the inherited pipe before exiting. It never
// returns control to its caller.
func runWorkerChild(cfg Config, seed uint64) {
	code := trialErr

	slots, genCode, err := generateArgsFor(cfg.Types, seed)
	if err == nil {
		switch genCode {
		case trialSkip:
			code = trialSkip
		case trialOK:
			if cfg.Hooks.PostFork != nil {
				cfg.Hooks.PostFork(&PostForkInfo{TrialSeed: seed})
			}
			runner := &Runner{trialSeed: seed}
			result := cfg.Property.invoke(runner, valuesOf(slots))
			code = resultToTrialCode(result)
		default:
			code = genCode
		}
		freeSlots(slots)
	}

	if pipe := os.NewFile(uintptr(workerPipeFD), "propcheck-worker-pipe"); pipe != nil {
		pipe.Write([]byte{byte(code)})
		pipe.Close()
	}
	os.Exit(0)
}

// worker is the parent-side handle to one spawned child process.
type worker struct {
	cmd  *exec.Cmd
	read *os.File
}

// spawnWorker re-executes the current binary with the same arguments,
// plus an environment variable telling the child which seed's trial to
// run at which call-order position, and an inherited pipe the child
// reports its result byte on.
func spawnWorker(cfg Config, callIdx int64, seed uint64) (*worker, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, ErrForkUnsupported
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%d|%d", workerSeedEnvVar, callIdx, seed))
	cmd.ExtraFiles = []*os.File{pw}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}
	pw.Close()

	return &worker{cmd: cmd, read: pr}, nil
}

// await blocks until the child reports a result byte or the fork timeout
// policy escalates to a forcible kill, reaping the child either way. Any
// exit that did not deliver a result byte is reported as a failure.
func (w *worker) await(fork ForkConfig) trialCode {
	timeout := fork.Timeout
	if timeout <= 0 {
		timeout = DefaultForkTimeout
	}
	grace := fork.GracePeriod
	if grace <= 0 {
		grace = DefaultForkGracePeriod
	}

	resultCh := make(chan trialCode, 1)
	go func() {
		buf := make([]byte, 1)
		n, err := w.read.Read(buf)
		if err != nil || n == 0 {
			resultCh <- trialFail
			return
		}
		resultCh <- trialCode(buf[0])
	}()

	select {
	case code := <-resultCh:
		w.read.Close()
		w.cmd.Wait()
		return code
	case <-time.After(timeout):
	}

	signalTerminate(w.cmd.Process)

	select {
	case code := <-resultCh:
		w.read.Close()
		w.cmd.Wait()
		return code
	case <-time.After(grace):
	}

	killHard(w.cmd.Process)
	w.read.Close()
	w.cmd.Wait()
	return trialFail
}
