// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Fuzz_BitStream_SplitDrawEqualsCombinedDraw fuzzes the bit-stream
// round-trip law: drawing n then m bits must produce the same
// little-endian packed bit string as drawing n+m bits in one request.
func Fuzz_BitStream_SplitDrawEqualsCombinedDraw(f *testing.F) {
	f.Add(uint64(0x1234), uint8(5), uint8(11))
	f.Add(uint64(0), uint8(1), uint8(1))
	f.Add(uint64(0xFFFFFFFFFFFFFFFF), uint8(32), uint8(32))
	f.Add(uint64(0x600dd06), uint8(63), uint8(1))

	f.Fuzz(func(t *testing.T, seed uint64, rawN, rawM uint8) {
		t.Parallel()
		is := assert.New(t)

		n := 1 + rawN%32
		upperBound := 64 - n
		m := 1 + rawM%upperBound

		a := newBitStream(seed)
		lo := a.Bits(n)
		hi := a.Bits(m)
		combinedExpected := lo | (hi << n)

		b := newBitStream(seed)
		combined := b.Bits(n + m)

		is.Equal(combinedExpected, combined, "seed=%#x n=%d m=%d", seed, n, m)
	})
}

// Fuzz_BitPool_ReplayReproducesRecording fuzzes the bit-pool round-trip
// law: replaying a recorded pool against the same generator yields
// bitwise-identical values for every request, regardless of seed or the
// sequence of request widths.
func Fuzz_BitPool_ReplayReproducesRecording(f *testing.F) {
	f.Add(uint64(0x600dd06), []byte{3, 8, 1, 17, 64, 5})
	f.Add(uint64(1), []byte{})
	f.Add(uint64(99), []byte{64, 64, 64})
	f.Add(uint64(7), []byte{0, 255, 128})

	f.Fuzz(func(t *testing.T, seed uint64, rawWidths []byte) {
		t.Parallel()
		is := assert.New(t)

		if len(rawWidths) > 64 {
			rawWidths = rawWidths[:64]
		}
		widths := make([]uint8, len(rawWidths))
		for i, b := range rawWidths {
			widths[i] = 1 + b%64
		}

		p, recorded := recordValues(seed, widths)
		replayed := replayValues(p, widths)

		is.Equal(recorded, replayed, "seed=%#x widths=%v", seed, widths)
	})
}
