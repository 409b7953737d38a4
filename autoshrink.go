// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

// tactic identifies one of the five generic bit-pool mutations the
// autoshrinker can apply.
type tactic int

const (
	tacticDrop tactic = iota
	tacticShift
	tacticMask
	tacticSwap
	tacticSub
	numTactics
)

func (t tactic) String() string {
	switch t {
	case tacticDrop:
		return "DROP"
	case tacticShift:
		return "SHIFT"
	case tacticMask:
		return "MASK"
	case tacticSwap:
		return "SWAP"
	case tacticSub:
		return "SUB"
	default:
		return "UNKNOWN"
	}
}

// autoshrinkModel tracks, per tactic, a weight updated by feedback:
// tactics that produced an accepted shrink gain weight, tactics that
// failed to shrink lose weight. It is owned by the Runner
// and shared across every trial and every autoshrink slot, consistent
// with the guarantee that the shrinker model carries
// across trial boundaries.
type autoshrinkModel struct {
	weights [numTactics]float64
}

func newAutoshrinkModel() *autoshrinkModel {
	m := &autoshrinkModel{}
	for i := range m.weights {
		m.weights[i] = 1.0
	}
	return m
}

const (
	minTacticWeight  = 0.05
	tacticReward     = 1.15
	tacticPenalty    = 0.85
)

func (m *autoshrinkModel) reward(t tactic) {
	m.weights[t] *= tacticReward
}

func (m *autoshrinkModel) penalize(t tactic) {
	m.weights[t] *= tacticPenalty
	if m.weights[t] < minTacticWeight {
		m.weights[t] = minTacticWeight
	}
}

// pick selects a tactic by weighted choice, drawing from hook.
func (m *autoshrinkModel) pick(hook *rng) tactic {
	var total float64
	for _, w := range m.weights {
		total += w
	}
	if total <= 0 {
		return tacticDrop
	}
	x := uintToUnitInterval(hook.Next()) * total
	for i, w := range m.weights {
		if x < w {
			return tactic(i)
		}
		x -= w
	}
	return tactic(numTactics - 1)
}

// boundedChoice draws a value in [0, ceil) without the modulo bias a naive
// `hook.Next() % ceil` would introduce for non-power-of-two ranges. It is
// grounded on original_source/src/random.c's fuzz_random_choice: a
// power-of-two fast path, and otherwise a scaled-multiply draw from a
// range-appropriate number of bits.
func boundedChoice(hook *rng, ceil uint64) uint64 {
	if ceil < 2 {
		return 0
	}
	if ceil&(ceil-1) == 0 {
		log2Ceil := uint8(0)
		for (uint64(1) << log2Ceil) < ceil {
			log2Ceil++
		}
		return hook.Next() & maskFor(log2Ceil)
	}

	var bitsVal uint64
	var limit float64
	switch {
	case ceil < 256:
		bitsVal = hook.Next() & 0xFFFF
		limit = float64(uint64(1) << 16)
	case ceil < 65536:
		bitsVal = hook.Next() & 0xFFFFFFFF
		limit = float64(uint64(1) << 32)
	default:
		bitsVal = hook.Next()
		limit = 18446744073709551615.0 // float64(UINT64_MAX)
	}
	mul := float64(bitsVal) / limit
	return uint64(mul * float64(ceil))
}

// boundedRange draws a value in [min, max] inclusive.
func boundedRange(hook *rng, min, max uint64) uint64 {
	return boundedChoice(hook, max-min+1) + min
}

// autoshrinkEnv wraps a bit pool with the Type that decodes it, a
// pluggable PRNG used only to drive tactic selection and mutation
// parameters (overridable for deterministic tests), the shared tactic
// model, and policy flags.
type autoshrinkEnv struct {
	typ                 Type
	model               *autoshrinkModel
	hook                *rng
	leaveTrailingZeroes bool
}

const maxCandidateRetries = 8

// propose produces one shrink candidate for pool: it selects a tactic
// (or uses forced, when non-nil, letting callers/tests pin the choice),
// applies it, and retries up to maxCandidateRetries times if the result
// is identical to pool.
func (e *autoshrinkEnv) propose(pool *bitPool, forced *tactic) (*bitPool, tactic, bool) {
	t := e.model.pick(e.hook)
	if forced != nil {
		t = *forced
	}

	for attempt := 0; attempt < maxCandidateRetries; attempt++ {
		cand := e.applyTactic(pool, t)
		if cand == nil {
			continue
		}
		if t == tacticDrop && !e.leaveTrailingZeroes {
			cand.truncateTrailingZeroes()
		}
		if !poolsIdentical(pool, cand) {
			return cand, t, true
		}
	}
	return nil, t, false
}

// applyTactic dispatches to the mutation implementing t. Each returns nil
// when the tactic has no valid position to apply at (e.g. SWAP with no
// two equal-width requests).
func (e *autoshrinkEnv) applyTactic(pool *bitPool, t tactic) *bitPool {
	switch t {
	case tacticDrop:
		return applyDrop(pool, e.hook)
	case tacticShift:
		return applyShift(pool, e.hook)
	case tacticMask:
		return applyMask(pool, e.hook)
	case tacticSwap:
		return applySwap(pool, e.hook)
	case tacticSub:
		return applySub(pool, e.hook)
	default:
		return nil
	}
}

func applyDrop(pool *bitPool, hook *rng) *bitPool {
	n := pool.requestCount()
	if n == 0 {
		return nil
	}
	lo := int(boundedChoice(hook, uint64(n)))
	width := 1 + int(boundedChoice(hook, uint64(n-lo)))
	hi := lo + width
	if hi > n {
		hi = n
	}
	cand := pool.clone()
	cand.dropRange(lo, hi)
	return cand
}

func applyShift(pool *bitPool, hook *rng) *bitPool {
	n := pool.requestCount()
	if n == 0 {
		return nil
	}
	idx := int(boundedChoice(hook, uint64(n)))
	amount := uint8(1)
	if hook.Next()&1 == 1 {
		amount = 2
	}
	cand := pool.clone()
	cand.setRequestValue(idx, cand.requestValue(idx)>>amount)
	return cand
}

func applyMask(pool *bitPool, hook *rng) *bitPool {
	n := pool.requestCount()
	if n == 0 {
		return nil
	}
	idx := int(boundedChoice(hook, uint64(n)))
	width := pool.requests[idx]
	if width > 64 {
		width = 64
	}
	randomMask := hook.Next() & maskFor(uint8(width))
	cand := pool.clone()
	cand.setRequestValue(idx, cand.requestValue(idx)&randomMask)
	return cand
}

func applySwap(pool *bitPool, hook *rng) *bitPool {
	n := pool.requestCount()
	if n < 2 {
		return nil
	}
	const maxSwapAttempts = 8
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		i := int(boundedChoice(hook, uint64(n)))
		j := int(boundedChoice(hook, uint64(n)))
		if i == j || pool.requests[i] != pool.requests[j] {
			continue
		}
		cand := pool.clone()
		vi, vj := cand.requestValue(i), cand.requestValue(j)
		cand.setRequestValue(i, vj)
		cand.setRequestValue(j, vi)
		return cand
	}
	return nil
}

func applySub(pool *bitPool, hook *rng) *bitPool {
	n := pool.requestCount()
	if n == 0 {
		return nil
	}
	idx := int(boundedChoice(hook, uint64(n)))
	width := pool.requests[idx]
	if width > 64 {
		width = 64
	}

	var delta uint64
	if width == 64 {
		delta = hook.Next()
	} else {
		delta = boundedChoice(hook, uint64(1)<<width)
	}
	if delta == 0 {
		delta = 1
	}

	cand := pool.clone()
	v := cand.requestValue(idx)
	newVal := (v - delta) & maskFor(uint8(width))
	cand.setRequestValue(idx, newVal)
	return cand
}

// poolsIdentical reports whether a and b encode the same logical content
// (same filled length, same request widths, same bits), used to detect a
// tactic that produced no effective change.
func poolsIdentical(a, b *bitPool) bool {
	if a.bitsFilled != b.bitsFilled {
		return false
	}
	if len(a.requests) != len(b.requests) {
		return false
	}
	for i := range a.requests {
		if a.requests[i] != b.requests[i] {
			return false
		}
	}
	words := (a.bitsFilled + 63) / 64
	for i := 0; i < words; i++ {
		aw, bw := a.bits[i], b.bits[i]
		if i == words-1 {
			m := maskFor(uint8(a.bitsFilled - i*64))
			aw &= m
			bw &= m
		}
		if aw != bw {
			return false
		}
	}
	return true
}
