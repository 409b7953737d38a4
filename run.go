// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"fmt"
	"io"
	"os"
)

// defaultSeedSentinel is substituted for Config.Seed when it is zero, so
// that "no seed configured" still produces a fixed, reproducible stream
// rather than colliding with the meaningful seed value 0.
const defaultSeedSentinel uint64 = 0x2545F4914F6CDD1D

// Tally counts trial outcomes across a run.
type Tally struct {
	Pass int
	Fail int
	Skip int
	Dup  int
}

// CounterExample is the final, possibly shrunk, failing input from a run.
type CounterExample struct {
	TrialID   int
	TrialSeed uint64
	Args      []any
}

// RunResult is what Run returns: the final code, the accumulated tally,
// and the counter-example, if any.
type RunResult struct {
	Code           Code
	Tally          Tally
	CounterExample *CounterExample
}

// engine holds everything that must survive across trial boundaries
// within one Run: the configuration, the seed-chaining PRNG, the
// deduplication filter, and the shared autoshrink tactic model.
type engine struct {
	cfg        Config
	callIdx    int64
	bloom      *bloomFilter
	dedup      bool
	model      *autoshrinkModel
	shrinkHook *rng
	out        io.Writer
	printer    *tallyPrinter
	tally      Tally
	result     *CounterExample
}

// shrinkHookSeed seeds the PRNG that drives tactic selection and mutation
// parameters during shrinking. It is distinct from any trial's own
// generation seed so that shrink randomness never perturbs replay.
const shrinkHookSeed uint64 = 0x9E3779B97F4A7C15

// Run validates cfg, then executes its configured trials in sequence,
// honoring always-seeds, fork-mode isolation, shrinking, and every hook.
func Run(cfg Config) RunResult {
	callIdx := nextRunCallIndex()
	if seed, ok := isWorkerChild(callIdx); ok {
		runWorkerChild(cfg, seed)
		// unreachable: runWorkerChild always calls os.Exit.
	}
	if inWorkerReexec() {
		// This Run call is being replayed only so the child's call order
		// lines up with the parent's; it is not the one being isolated.
		// Forcing Fork off here keeps a fork-enabled test from spawning
		// its own full subprocess tree inside another fork-enabled
		// test's child.
		cfg.Fork.Enable = false
	}

	if err := cfg.validate(); err != nil {
		return RunResult{Code: Err}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	dedup := true
	for _, t := range cfg.Types {
		if _, hasHash := t.(Hasher); !hasHash && !typeIsAutoshrink(t) {
			dedup = false
			break
		}
	}
	if len(cfg.Types) == 0 {
		dedup = false
	}

	e := &engine{
		cfg:        cfg,
		callIdx:    callIdx,
		dedup:      dedup,
		model:      newAutoshrinkModel(),
		shrinkHook: newRNG(shrinkHookSeed),
		out:        out,
	}
	if dedup {
		e.bloom = newBloomFilter(cfg.Bloom)
	}

	hooksOut := cfg.Hooks.Output
	if hooksOut == nil {
		hooksOut = out
	}
	if cfg.Hooks.PostTrial == nil {
		e.printer = newTallyPrinter(hooksOut, cfg.Hooks.ColumnWidth)
	}

	if cfg.Fork.Enable {
		if _, err := os.Executable(); err != nil {
			return RunResult{Code: Skip}
		}
	}

	trials := cfg.Trials
	if trials <= 0 {
		trials = DefaultTrials
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = defaultSeedSentinel
	}

	fmt.Fprintf(out, "\n== PROP '%s': %d trials, seed 0x%016x\n", cfg.Name, trials, seed)
	if cfg.Hooks.PreRun != nil {
		res, err := cfg.Hooks.PreRun(&PreRunInfo{Name: cfg.Name, Trials: trials, Seed: seed})
		if err != nil {
			return e.finish(Err)
		}
		if res == HookHalt {
			return e.finish(OK)
		}
	}

	totalTrials := len(cfg.AlwaysSeeds) + trials
	var trailingDraw uint64
	for trialID := 0; trialID < totalTrials; trialID++ {
		var trialSeed uint64
		switch {
		case trialID < len(cfg.AlwaysSeeds):
			trialSeed = cfg.AlwaysSeeds[trialID]
		case trialID == len(cfg.AlwaysSeeds):
			trialSeed = seed
		default:
			trialSeed = trailingDraw
		}

		_, draw, haltRequested, err := e.runOneTrial(trialID, trialSeed)
		if err != nil {
			return e.finish(Err)
		}
		trailingDraw = draw
		if haltRequested {
			return e.finish(e.verdict())
		}
	}

	return e.finish(e.verdict())
}

// printCounterExample writes the default counter-example report when no
// CounterExample hook is configured.
func (e *engine) printCounterExample(trialID int, seed uint64, slots []slotData) {
	fmt.Fprintf(e.out, "\n\n -- Counter-Example: %s\n    Trial %d, Seed 0x%016x\n", e.cfg.Name, trialID, seed)
	for i, s := range slots {
		fmt.Fprintf(e.out, "    Argument %d:\n", i)
		typePrint(s.typ, e.out, s.value)
		io.WriteString(e.out, "\n")
	}
}

func (e *engine) verdict() Code {
	switch {
	case e.tally.Fail > 0:
		return Fail
	case e.tally.Pass > 0:
		return OK
	default:
		return Skip
	}
}

func (e *engine) finish(code Code) RunResult {
	if e.printer != nil {
		e.printer.done()
	}
	if e.cfg.Hooks.PostRun != nil {
		e.cfg.Hooks.PostRun(&PostRunInfo{Name: e.cfg.Name, Tally: e.tally, Code: code})
	}
	fmt.Fprintf(e.out, "\n== %s '%s': pass %d, fail %d, skip %d, dup %d\n",
		code, e.cfg.Name, e.tally.Pass, e.tally.Fail, e.tally.Skip, e.tally.Dup)
	return RunResult{Code: code, Tally: e.tally, CounterExample: e.result}
}

// Generate runs alloc once against typ using seed, prints the resulting
// value to w, frees it, and returns. It shares no mutable state with Run.
func Generate(w io.Writer, seed uint64, typ Type, env any) error {
	stream := newBitStream(seed)
	runner := &Runner{stream: stream, trialSeed: seed, env: env}
	v, err := typ.Alloc(runner)
	if err != nil {
		return err
	}
	typePrint(typ, w, v)
	io.WriteString(w, "\n")
	typeFree(typ, v)
	return nil
}
