// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"errors"
	"fmt"
)

// slotData holds one generated argument alongside the bookkeeping needed
// to free, fingerprint, and (if applicable) autoshrink it.
type slotData struct {
	typ   Type
	value any
	pool  *bitPool // non-nil only for autoshrink slots
}

func valuesOf(slots []slotData) []any {
	out := make([]any, len(slots))
	for i, s := range slots {
		out[i] = s.value
	}
	return out
}

// generateArgsFor runs alloc for every type in order against a fresh bit
// stream seeded with seed, recording a bit pool for any autoshrink slot
// as it goes. It has no dependency on engine state, so the fork-mode
// worker child can call it directly to regenerate the same arguments a
// parent-side trial produced.
func generateArgsFor(types []Type, seed uint64) ([]slotData, trialCode, error) {
	stream := newBitStream(seed)
	slots := make([]slotData, len(types))

	for i, t := range types {
		runner := &Runner{stream: stream, trialSeed: seed}

		var pool *bitPool
		if typeIsAutoshrink(t) {
			pool = newBitPool(0)
			stream.injectPool(pool)
		}

		v, err := t.Alloc(runner)

		if pool != nil {
			stream.stopUsingPool()
		}

		if err != nil {
			if errors.Is(err, ErrSkip) {
				return slots[:i], trialSkip, nil
			}
			return slots[:i], trialErr, err
		}

		slots[i] = slotData{typ: t, value: v, pool: pool}
	}

	return slots, trialOK, nil
}

// decodePool re-runs alloc against a replaying copy of pool, producing
// the value a shrink candidate's mutated bits decode to.
func decodePool(typ Type, pool *bitPool) (any, error) {
	p := pool.clone()
	p.beginReplay()

	stream := newBitStream(0)
	stream.injectPool(p)
	runner := &Runner{stream: stream}
	v, err := typ.Alloc(runner)
	stream.stopUsingPool()
	return v, err
}

func resultToTrialCode(r Result) trialCode {
	switch r {
	case ResultOK:
		return trialOK
	case ResultSkip:
		return trialSkip
	default:
		return trialFail
	}
}

// fingerprintSlots xor-accumulates each slot's hash (or its pool's hash, for
// autoshrink slots) into one dedup key. ok is false when any slot cannot
// supply a hash, in which case deduplication is disabled for the run.
func fingerprintSlots(slots []slotData) (uint64, bool) {
	var fp uint64
	for _, s := range slots {
		if s.pool != nil {
			fp ^= s.pool.fingerprint()
			continue
		}
		h, ok := typeHash(s.typ, s.value)
		if !ok {
			return 0, false
		}
		fp ^= h
	}
	return fp, true
}

func freeSlots(slots []slotData) {
	for _, s := range slots {
		typeFree(s.typ, s.value)
	}
}

// invokeProperty calls the property either in-process or, when fork mode
// is enabled, inside a freshly spawned worker that regenerates the same
// arguments from seed and reports only a result byte back over a pipe.
func (e *engine) invokeProperty(trialID int, seed uint64, args []any) (Result, error) {
	if e.cfg.Fork.Enable {
		return e.invokePropertyForked(seed)
	}
	runner := &Runner{trialID: trialID, trialSeed: seed}
	return e.cfg.Property.invoke(runner, args), nil
}

func (e *engine) invokePropertyForked(seed uint64) (Result, error) {
	w, err := spawnWorker(e.cfg, e.callIdx, seed)
	if err != nil {
		// Worker failure is counted as a trial failure, not an engine
		// error: the shrinking loop then tries to find a smaller
		// reproducer, same as any other failing trial.
		return ResultFail, nil
	}
	switch w.await(e.cfg.Fork) {
	case trialOK:
		return ResultOK, nil
	case trialSkip:
		return ResultSkip, nil
	default:
		return ResultFail, nil
	}
}

const maxAutoshrinkRounds = 2000
const maxBespokeShrinkRounds = 10000

// trialOutcome is the fully resolved result of one (possibly repeated)
// trial, ready for the post_trial hook and tally update.
type trialOutcome struct {
	code         trialCode
	args         []any
	trailingDraw uint64
}

// runOneTrial drives one trial end to end, honoring post_trial's REPEAT
// and REPEAT_ONCE. It returns the final trial code, the 64-bit value to
// chain into the next trial's seed, whether a hook requested an orderly
// halt, and any engine-aborting error.
func (e *engine) runOneTrial(trialID int, seed uint64) (trialCode, uint64, bool, error) {
	repeatOnceSpent := false
	havePrior := false
	var priorCode trialCode

	for {
		// A repeat regenerates the same arguments from the same seed, whose
		// fingerprint is already in the bloom filter; the duplicate check is
		// bypassed so the property is invoked again.
		dedup := e.dedup
		if havePrior {
			e.dedup = false
		}
		outcome, err := e.runTrialBody(trialID, seed)
		e.dedup = dedup
		if err != nil {
			return trialErr, 0, false, err
		}

		if havePrior && priorCode == trialFail && outcome.code != trialFail {
			e.reportFlake(trialID, seed)
		}
		havePrior = true
		priorCode = outcome.code

		var hookResult HookResult
		if e.cfg.Hooks.PostTrial != nil {
			hookResult, err = e.cfg.Hooks.PostTrial(&PostTrialInfo{
				PropName:    e.cfg.Name,
				TotalTrials: e.cfg.Trials,
				RunSeed:     e.cfg.Seed,
				TrialID:     trialID,
				TrialSeed:   seed,
				Args:        outcome.args,
				Result:      outcome.code,
			})
			if err != nil {
				return outcome.code, outcome.trailingDraw, false, err
			}
		} else {
			e.printer.push(outcome.code)
			hookResult = HookContinue
		}

		e.tallyOne(outcome.code)

		switch hookResult {
		case HookHalt:
			return outcome.code, outcome.trailingDraw, true, nil
		case HookRepeat:
			continue
		case HookRepeatOnce:
			if repeatOnceSpent {
				return outcome.code, outcome.trailingDraw, false, nil
			}
			repeatOnceSpent = true
			continue
		default:
			return outcome.code, outcome.trailingDraw, false, nil
		}
	}
}

// reportFlake writes the diagnostic a repeat invocation calls for when a
// previously failing trial no longer fails: the inputs and the seed are
// identical, so a changed result means the property itself is
// non-deterministic. This is a warning, not an error, and does not alter
// the trial's tally.
func (e *engine) reportFlake(trialID int, seed uint64) {
	fmt.Fprintf(e.out, "\n-- FLAKE: %s trial %d (seed 0x%016x) failed on a previous invocation but passed on repeat\n",
		e.cfg.Name, trialID, seed)
}

func (e *engine) tallyOne(code trialCode) {
	switch code {
	case trialOK:
		e.tally.Pass++
	case trialFail:
		e.tally.Fail++
	case trialSkip:
		e.tally.Skip++
	case trialDup:
		e.tally.Dup++
	}
}

// runTrialBody runs the per-trial state machine once: generate, dedup,
// invoke, shrink, report.
func (e *engine) runTrialBody(trialID int, seed uint64) (*trialOutcome, error) {
	if e.cfg.Hooks.PreGenArgs != nil {
		res, err := e.cfg.Hooks.PreGenArgs(&PreGenArgsInfo{TrialID: trialID, TrialSeed: seed})
		if err != nil {
			return nil, err
		}
		if res == HookHalt {
			return &trialOutcome{code: trialSkip}, nil
		}
	}

	slots, code, err := generateArgsFor(e.cfg.Types, seed)
	if err != nil {
		freeSlots(slots)
		return nil, err
	}
	if code != trialOK {
		args := valuesOf(slots)
		freeSlots(slots)
		return &trialOutcome{code: code, args: args}, nil
	}

	if e.dedup && e.bloom != nil {
		if fp, ok := fingerprintSlots(slots); ok {
			if e.bloom.checkHash(fp) {
				freeSlots(slots)
				return &trialOutcome{code: trialDup, args: valuesOf(slots)}, nil
			}
			e.bloom.markHash(fp)
		}
	}

	args := valuesOf(slots)

	if e.cfg.Hooks.PreTrial != nil {
		res, err := e.cfg.Hooks.PreTrial(&PreTrialInfo{TrialID: trialID, TrialSeed: seed, Args: args})
		if err != nil {
			freeSlots(slots)
			return nil, err
		}
		if res == HookHalt {
			freeSlots(slots)
			return &trialOutcome{code: trialSkip, args: args}, nil
		}
	}

	result, err := e.invokeProperty(trialID, seed, args)
	if err != nil {
		freeSlots(slots)
		return nil, err
	}

	trialResultCode := resultToTrialCode(result)

	if trialResultCode == trialFail {
		slots, err = e.shrinkTrial(trialID, seed, slots)
		if err != nil {
			freeSlots(slots)
			return nil, err
		}
		args = valuesOf(slots)

		e.result = &CounterExample{TrialID: trialID, TrialSeed: seed, Args: args}
		if e.cfg.Hooks.CounterExample != nil {
			if _, err := e.cfg.Hooks.CounterExample(&CounterExampleInfo{
				PropName: e.cfg.Name, TrialID: trialID, TrialSeed: seed, Args: args,
			}); err != nil {
				freeSlots(slots)
				return nil, err
			}
		} else {
			e.printCounterExample(trialID, seed, slots)
		}
	}

	outcome := &trialOutcome{code: trialResultCode, args: args}
	freeSlots(slots)
	return outcome, nil
}

// shrinkTrial runs the shrink loop over every slot, left to right: each
// slot's shrink (bespoke or autoshrink) runs to completion before the
// next slot is considered.
func (e *engine) shrinkTrial(trialID int, seed uint64, slots []slotData) ([]slotData, error) {
	if e.cfg.Hooks.PreShrink != nil {
		if _, err := e.cfg.Hooks.PreShrink(&PreShrinkInfo{TrialID: trialID, Args: valuesOf(slots)}); err != nil {
			return slots, err
		}
	}

	successes, failures := 0, 0

	for i := range slots {
		var err error
		switch {
		case slots[i].pool != nil:
			slots, successes, failures, err = e.autoshrinkSlot(trialID, seed, slots, i, successes, failures)
		default:
			if shr, ok := slots[i].typ.(Shrinker); ok {
				slots, successes, failures, err = e.bespokeShrinkSlot(trialID, seed, slots, i, shr, successes, failures)
			}
		}
		if err != nil {
			return slots, err
		}
	}

	if e.cfg.Hooks.PostShrink != nil {
		e.cfg.Hooks.PostShrink(&PostShrinkInfo{
			TrialID: trialID, Successes: successes, Failures: failures, Args: valuesOf(slots),
		})
	}
	return slots, nil
}

func (e *engine) bespokeShrinkSlot(trialID int, seed uint64, slots []slotData, idx int, shr Shrinker, successes, failures int) ([]slotData, int, int, error) {
	var tacticIdx uint32

	for round := 0; round < maxBespokeShrinkRounds; round++ {
		smaller, outcome, err := shr.Shrink(slots[idx].value, tacticIdx)
		if err != nil {
			return slots, successes, failures, err
		}
		if outcome == ShrinkNoMore {
			break
		}
		if outcome == ShrinkDeadEnd {
			tacticIdx++
			continue
		}

		trialArgs := valuesOf(slots)
		trialArgs[idx] = smaller
		result, err := e.invokeProperty(trialID, seed, trialArgs)
		if err != nil {
			return slots, successes, failures, err
		}

		accepted := result == ResultFail
		if e.cfg.Hooks.PostShrinkTrial != nil {
			e.cfg.Hooks.PostShrinkTrial(&PostShrinkTrialInfo{
				TrialID: trialID, Tactic: "bespoke", Args: trialArgs,
				Result: resultToTrialCode(result), Successes: successes, Failures: failures,
			})
		}

		if accepted {
			typeFree(slots[idx].typ, slots[idx].value)
			slots[idx].value = smaller
			tacticIdx = 0
			successes++
		} else {
			typeFree(slots[idx].typ, smaller)
			failures++
			tacticIdx++
		}
	}
	return slots, successes, failures, nil
}

func (e *engine) autoshrinkSlot(trialID int, seed uint64, slots []slotData, idx int, successes, failures int) ([]slotData, int, int, error) {
	env := &autoshrinkEnv{
		typ:                 slots[idx].typ,
		model:               e.model,
		hook:                e.shrinkHook,
		leaveTrailingZeroes: typePreservesTrailingZeroes(slots[idx].typ),
	}
	current := slots[idx].pool

	for round := 0; round < maxAutoshrinkRounds; round++ {
		cand, t, ok := env.propose(current, nil)
		if !ok {
			break
		}

		candValue, err := decodePool(slots[idx].typ, cand)
		if err != nil {
			e.model.penalize(t)
			failures++
			continue
		}

		trialArgs := valuesOf(slots)
		trialArgs[idx] = candValue
		result, err := e.invokeProperty(trialID, seed, trialArgs)
		if err != nil {
			typeFree(slots[idx].typ, candValue)
			return slots, successes, failures, err
		}

		accepted := result == ResultFail
		if e.cfg.Hooks.PostShrinkTrial != nil {
			e.cfg.Hooks.PostShrinkTrial(&PostShrinkTrialInfo{
				TrialID: trialID, Tactic: t.String(), Args: trialArgs,
				Result: resultToTrialCode(result), Successes: successes, Failures: failures,
			})
		}

		if accepted {
			typeFree(slots[idx].typ, slots[idx].value)
			slots[idx].value = candValue
			current = cand
			e.model.reward(t)
			successes++
		} else {
			typeFree(slots[idx].typ, candValue)
			e.model.penalize(t)
			failures++
		}
	}

	slots[idx].pool = current
	return slots, successes, failures, nil
}
