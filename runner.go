// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

// Runner is the per-trial handle a Type's Alloc method (and a Property
// body, should it need to draw extra entropy) uses to pull bits. It is
// the generation-time face of the bit stream: the same stream may be
// serving requests straight from the PRNG, or replaying a previously
// recorded bit pool during a shrink candidate's re-decode.
type Runner struct {
	stream    *bitStream
	trialID   int
	trialSeed uint64
	env       any // caller-supplied hook environment, threaded through for convenience
}

// Bits draws the low n bits (1..64) of the next value from the
// underlying stream.
func (r *Runner) Bits(n uint8) uint64 {
	return r.stream.Bits(n)
}

// BitsBulk draws bitCount bits into out, little-endian packed across
// 64-bit words.
func (r *Runner) BitsBulk(bitCount uint32, out []uint64) {
	r.stream.BitsBulk(bitCount, out)
}

// TrialID returns the index of the trial currently generating arguments.
func (r *Runner) TrialID() int {
	return r.trialID
}

// TrialSeed returns the seed the current trial was started from.
func (r *Runner) TrialSeed() uint64 {
	return r.trialSeed
}

// Env returns the caller-supplied hook environment, or nil if none was
// configured.
func (r *Runner) Env() any {
	return r.env
}

// Bool draws a single bit as a boolean.
func (r *Runner) Bool() bool {
	return r.Bits(1) == 1
}

// Uintn draws a value uniformly from [0, ceil) using the same
// rejection-free scaling scheme the autoshrinker's tactic parameters use,
// so that autoshrink mutations and direct generation share one notion of
// "a bounded random choice".
func (r *Runner) Uintn(ceil uint64) uint64 {
	if ceil < 2 {
		return 0
	}
	if ceil&(ceil-1) == 0 {
		log2Ceil := uint8(0)
		for (uint64(1) << log2Ceil) < ceil {
			log2Ceil++
		}
		return r.Bits(log2Ceil)
	}
	bits := r.Bits(64)
	mul := float64(bits) / 18446744073709551615.0
	return uint64(mul * float64(ceil))
}

// Intn draws a value uniformly from [lo, hi].
func (r *Runner) Intn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(r.Uintn(uint64(hi-lo+1)))
}

// Bytes draws n uniformly random bytes.
func (r *Runner) Bytes(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(r.Bits(8))
	}
	return out
}
