// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"errors"
	"io"
)

// ErrSkip, returned from Type.Alloc, asks the engine to skip the current
// trial without counting it as a failure.
var ErrSkip = errors.New("propcheck: skip this trial")

// Type is the external collaborator contract a caller implements to
// describe how one argument is generated, released, fingerprinted,
// printed, and (optionally) shrunk. Only Alloc is
// required; Free, Hash, Print, and Shrink are expressed as small optional
// interfaces a Type may additionally implement, in the Go idiom of
// capability detection via type assertion rather than a single fat
// interface with no-op defaults.
type Type interface {
	// Alloc produces one value, possibly consuming bits from r. Return
	// ErrSkip to skip the current trial, or any other error to abort the
	// run.
	Alloc(r *Runner) (any, error)
}

// Freer releases any resources owned by a value Alloc produced. Types
// whose values are trivially garbage-collectable need not implement it.
type Freer interface {
	Free(v any)
}

// Hasher returns a deterministic fingerprint for deduplication. For an
// autoshrink Type the bit pool itself is hashed instead; if any Type of a
// run neither implements Hasher nor enables autoshrink, deduplication is
// disabled for that run.
type Hasher interface {
	Hash(v any) uint64
}

// Printer renders a human-readable form of v for counter-example
// reporting.
type Printer interface {
	Print(w io.Writer, v any)
}

// Autoshrinkable marks a Type as eligible for the engine's generic,
// bit-pool-driven shrinking strategy. A Type must not
// both report Autoshrink() == true and implement Shrinker — Run rejects
// that combination at initialization.
type Autoshrinkable interface {
	Autoshrink() bool
}

// ShrinkOutcome is the result of one bespoke Shrink call.
type ShrinkOutcome int

const (
	// ShrinkOK indicates smaller successfully holds the next candidate.
	ShrinkOK ShrinkOutcome = iota
	// ShrinkNoMore indicates there is no tactic at this index or beyond;
	// shrinking of this value stops.
	ShrinkNoMore
	// ShrinkDeadEnd indicates this tactic produced no usable candidate this
	// round, but other tactics may still apply; equivalent to a passing
	// try for control-flow purposes.
	ShrinkDeadEnd
)

// Shrinker implements a bespoke shrinking strategy over a value, indexed
// by an incrementing tactic counter. Mutually exclusive
// with Autoshrinkable.
type Shrinker interface {
	Shrink(v any, tactic uint32) (smaller any, outcome ShrinkOutcome, err error)
}

// TrailingZeroesPreserver opts an autoshrink Type out of the DROP
// tactic's default trailing-zero truncation. Most Types decode trailing
// zero bits as a harmless default (an absent length, a zero-valued tail
// element), so truncating them finds smaller pools without changing the
// decoded value; a Type whose trailing bits are significant (e.g. a
// fixed-width value where every bit position is meaningful) implements
// this to keep them.
type TrailingZeroesPreserver interface {
	PreserveTrailingZeroes() bool
}

func typeIsAutoshrink(t Type) bool {
	a, ok := t.(Autoshrinkable)
	return ok && a.Autoshrink()
}

func typeHash(t Type, v any) (uint64, bool) {
	h, ok := t.(Hasher)
	if !ok {
		return 0, false
	}
	return h.Hash(v), true
}

func typePreservesTrailingZeroes(t Type) bool {
	p, ok := t.(TrailingZeroesPreserver)
	return ok && p.PreserveTrailingZeroes()
}

func typeFree(t Type, v any) {
	if f, ok := t.(Freer); ok {
		f.Free(v)
	}
}

func typePrint(t Type, w io.Writer, v any) {
	if p, ok := t.(Printer); ok {
		p.Print(w, v)
		return
	}
	io.WriteString(w, "<unprintable value>")
}

// validateType rejects a Type that is both Autoshrinkable (and opted in)
// and a bespoke Shrinker.
func validateType(t Type) error {
	if t == nil {
		return nil
	}
	_, hasShrink := t.(Shrinker)
	if typeIsAutoshrink(t) && hasShrink {
		return ErrSimultaneousShrink
	}
	return nil
}
