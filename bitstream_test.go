// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test_BitStream_SequentialDrawsPackLittleEndian checks that drawing n
// then m bits produces the same little-endian packed bit string as
// drawing n+m bits, for the same seed.
func Test_BitStream_SequentialDrawsPackLittleEndian(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	const seed = 0x1234

	for n := uint8(1); n <= 32; n++ {
		for m := uint8(1); n+m <= 64 && m <= 32; m++ {
			a := newBitStream(seed)
			lo := a.Bits(n)
			hi := a.Bits(m)
			combinedExpected := lo | (hi << n)

			b := newBitStream(seed)
			combined := b.Bits(n + m)

			is.Equal(combinedExpected, combined, "n=%d m=%d", n, m)
		}
	}
}

// Test_BitStream_BulkCrossesWordBoundary exercises BitsBulk with a request
// wide enough to span more than one 64-bit output word.
func Test_BitStream_BulkCrossesWordBoundary(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s := newBitStream(99)
	out := make([]uint64, 3)
	s.BitsBulk(130, out)

	r := newRNG(99)
	is.Equal(r.Next(), out[0])
	is.Equal(r.Next(), out[1])
	is.Equal(r.Next()&maskFor(2), out[2])
}

func Test_BitStream_SetSeedDiscardsBufferedBits(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s := newBitStream(1)
	s.Bits(3) // buffer now holds 61 unconsumed bits

	s.SetSeed(1)
	fresh := newBitStream(1)
	is.Equal(fresh.Bits(64), s.Bits(64), "SetSeed must discard buffered bits and restart the stream")
}

func Test_BitStream_MaxWidthRequest(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s := newBitStream(7)
	v := s.Bits(64)
	r := newRNG(7)
	is.Equal(r.Next(), v)
}

func Test_MaskFor(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.Equal(uint64(0), maskFor(0))
	is.Equal(uint64(1), maskFor(1))
	is.Equal(uint64(0xFF), maskFor(8))
	is.Equal(^uint64(0), maskFor(64))
}
