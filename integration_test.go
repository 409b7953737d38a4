// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// These tests exercise full Run invocations end to end rather than any one
// package's internals. None of them call t.Parallel(): the fork-mode tests
// rely on the parent and the re-exec'd child reaching Run calls in the same
// order, which only holds when tests run sequentially within the binary.

// Test_Integration_NonEmptyStringShrinksToMinimal checks that a property
// failing on every non-empty string shrinks its counter-example down to a
// single character: dropping the last character would make the string
// empty, which passes, so one character is the smallest failing input.
func Test_Integration_NonEmptyStringShrinksToMinimal(t *testing.T) {
	is := assert.New(t)

	prop := Prop1(func(r *Runner, s string) Result {
		if len(s) > 0 {
			return ResultFail
		}
		return ResultOK
	})

	cfg := NewConfig("non-empty string fails", prop, []Type{StringType{}},
		WithTrials(50), WithSeed(0x1234), WithOutput(io.Discard))

	result := Run(cfg)

	is.Equal(Fail, result.Code)
	if !is.NotNil(result.CounterExample) {
		return
	}
	final := result.CounterExample.Args[0].(string)
	is.Len(final, 1, "shrinking a non-empty-string failure must bottom out at length 1")
}

// Test_Integration_ListWithDuplicateShrinksSmall checks that a property
// failing whenever a list contains a duplicate byte shrinks its
// counter-example down to a small list that still contains a duplicate.
func Test_Integration_ListWithDuplicateShrinksSmall(t *testing.T) {
	is := assert.New(t)

	prop := Prop1(func(r *Runner, head *u8Node) Result {
		if listHasDuplicate(head) {
			return ResultFail
		}
		return ResultOK
	})

	cfg := NewConfig("no duplicates", prop, []Type{Uint8ListType{}},
		WithTrials(80), WithSeed(0xABCDEF), WithOutput(io.Discard))

	result := Run(cfg)

	is.Equal(Fail, result.Code)
	if !is.NotNil(result.CounterExample) {
		return
	}
	head := result.CounterExample.Args[0].(*u8Node)
	is.True(listHasDuplicate(head), "the shrunk counter-example must still contain a duplicate")
	is.LessOrEqual(listLen(head), 4, "shrinking should collapse well below the 32-node cap")
}

// Test_Integration_ForkModeShrinksToExactBoundary checks that a "v >= 10
// fails" property, run with each trial isolated in a forked worker, shrinks
// to exactly the boundary value. Uint16Type's bespoke {n/2, n-1} candidate
// pair converges deterministically on the smallest failing value for any
// monotone threshold property, so this is an exact equality, not a bound.
func Test_Integration_ForkModeShrinksToExactBoundary(t *testing.T) {
	is := assert.New(t)

	prop := Prop1(func(r *Runner, v uint16) Result {
		if v >= 10 {
			return ResultFail
		}
		return ResultOK
	})

	cfg := NewConfig("threshold", prop, []Type{Uint16Type{}},
		WithTrials(30),
		WithSeed(0x9999),
		WithFork(ForkConfig{Enable: true, Timeout: 2 * time.Second, GracePeriod: 500 * time.Millisecond}),
		WithOutput(io.Discard))

	result := Run(cfg)

	is.Equal(Fail, result.Code)
	if !is.NotNil(result.CounterExample) {
		return
	}
	is.Equal(uint16(10), result.CounterExample.Args[0])
}

// Test_Integration_ForkTimeoutReapsHungChild checks that a property which
// hangs forever once its input crosses a threshold does not hang the run
// itself: the parent's timeout escalation must reap the child and count the
// trial as a failure.
func Test_Integration_ForkTimeoutReapsHungChild(t *testing.T) {
	is := assert.New(t)

	prop := Prop1(func(r *Runner, v uint16) Result {
		if v >= 10 {
			select {}
		}
		return ResultOK
	})

	cfg := NewConfig("hangs past threshold", prop, []Type{Uint16Type{}},
		WithTrials(5),
		WithSeed(0x42),
		WithFork(ForkConfig{Enable: true, Timeout: 5 * time.Millisecond, GracePeriod: 5 * time.Millisecond}),
		WithOutput(io.Discard))

	result := Run(cfg)

	is.Equal(Fail, result.Code, "a reaped hang must still resolve the run, not block it")
}

// Test_Integration_AlwaysSeedsRunFirstInOrder checks that AlwaysSeeds are
// tried, in order, before the configured Seed, regardless of Trials.
func Test_Integration_AlwaysSeedsRunFirstInOrder(t *testing.T) {
	is := assert.New(t)

	var observedSeeds []uint64

	prop := Prop1(func(r *Runner, v uint16) Result {
		return ResultOK
	})

	cfg := NewConfig("seed order", prop, []Type{Uint16Type{}},
		WithTrials(3),
		WithSeed(0x600dd06),
		WithAlwaysSeeds(0x600d5eed, 0xabad5eed),
		WithOutput(io.Discard))
	cfg.Hooks.PreTrial = func(info *PreTrialInfo) (HookResult, error) {
		observedSeeds = append(observedSeeds, info.TrialSeed)
		return HookContinue, nil
	}

	Run(cfg)

	if !is.GreaterOrEqual(len(observedSeeds), 3) {
		return
	}
	is.Equal([]uint64{0x600d5eed, 0xabad5eed, 0x600dd06}, observedSeeds[:3])
}

// Test_Integration_TautologicalFailureDedupesAfterFirstOccurrence checks
// that a property which always fails, run over a two-valued type, only
// ever counts a failure for each distinct value's first occurrence: every
// later trial with a value already seen is a deduplicated repeat, not a
// fresh failure.
func Test_Integration_TautologicalFailureDedupesAfterFirstOccurrence(t *testing.T) {
	is := assert.New(t)

	prop := Prop1(func(r *Runner, b bool) Result {
		return ResultFail
	})

	cfg := NewConfig("always fails", prop, []Type{BoolType{}},
		WithTrials(100), WithSeed(0x77), WithOutput(io.Discard))

	result := Run(cfg)

	is.Equal(Fail, result.Code)
	is.Equal(100, result.Tally.Fail+result.Tally.Dup)
	is.LessOrEqual(result.Tally.Fail, 2, "only the first occurrence of true and of false can be a fresh failure")
}
