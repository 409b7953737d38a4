// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package propcheck implements a property-based testing engine: given a
// property — a function that receives one or more generated input values
// and reports whether an invariant holds — the engine repeatedly draws
// inputs from user-supplied Type descriptors, reports any input for which
// the property fails, and shrinks that input to a locally minimal,
// deterministically reproducible counter-example.
//
// The engine is built from three tightly coupled subsystems: a seedable
// 64-bit PRNG that can be transparently replaced by a replayable, mutable
// bit pool; a generic "autoshrink" strategy that shrinks the bit pool
// rather than the decoded value, so any Type driven entirely by the PRNG
// becomes shrinkable without bespoke logic; and a trial runner that
// orchestrates generation, deduplication, property invocation (optionally
// in an isolated worker process with a timeout), shrinking, and a
// hook-driven reporting surface.
//
// A minimal property over a single generated value looks like:
//
//	cfg := propcheck.Config{
//	    Name:   "reverse-twice",
//	    Trials: 100,
//	    Property: propcheck.Prop1(func(r *propcheck.Runner, s string) propcheck.Result {
//	        if reverse(reverse(s)) != s {
//	            return propcheck.ResultFail
//	        }
//	        return propcheck.ResultOK
//	    }),
//	    Types: []propcheck.Type{propcheck.StringType{}},
//	}
//	res := propcheck.Run(cfg)
//	if res.Code != propcheck.OK {
//	    t.Fatalf("property failed: %+v", res)
//	}
//
// This package ships a small set of builtin Types (Uint16Type, BoolType,
// StringType, Uint8ListType) covering the common scalar and composite
// shapes; anything more domain-specific is expected to implement Type
// itself. The command-line wrapper, a progress-printing hook beyond the
// built-in default, and OS-level polyfills are treated as external
// collaborators outside the engine's hard core.
package propcheck
